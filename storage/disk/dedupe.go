package disk

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"EmberDB/internal/trace"
	"EmberDB/storage/types"
)

// DedupeWriter wraps a Manager with a content-hash memoizer: a WritePage
// whose bytes are identical to the last bytes flushed for that page id is
// skipped entirely. This is a pure write-avoidance optimization — it never
// defers, batches, or reorders a write relative to the caller's view, and
// carries no durability or recovery semantics of its own. Every write
// still either lands on the underlying Manager before WritePage returns,
// or would have been a byte-for-byte no-op.
//
// The cache sits on top of whichever Manager the buffer pool was built
// with — FileManager in production, MemManager in tests — so eviction of
// cold entries never affects correctness, only whether an unchanged page
// is written through again after a long idle period.
type DedupeWriter struct {
	inner Manager
	cache *ristretto.Cache[int64, uint64]
}

var _ Manager = (*DedupeWriter)(nil)

// NewDedupeWriter builds a DedupeWriter around inner. capacityHint should
// be roughly the number of distinct pages expected to be written
// repeatedly — typically the buffer pool's pool_size.
func NewDedupeWriter(inner Manager, capacityHint int64) (*DedupeWriter, error) {
	if capacityHint <= 0 {
		capacityHint = 1024
	}
	cache, err := ristretto.NewCache(&ristretto.Config[int64, uint64]{
		NumCounters: capacityHint * 10,
		MaxCost:     capacityHint,
		BufferItems: 64,
		// Each entry costs 1, so MaxCost counts entries; without this,
		// ristretto's per-item bookkeeping cost alone exceeds a small
		// MaxCost and every Set is rejected.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("NewDedupeWriter: %w", err)
	}
	return &DedupeWriter{inner: inner, cache: cache}, nil
}

func (d *DedupeWriter) ReadPage(id types.PageID, buf []byte) error {
	return d.inner.ReadPage(id, buf)
}

func (d *DedupeWriter) WritePage(id types.PageID, buf []byte) error {
	sum := xxhash.Sum64(buf)
	if prev, ok := d.cache.Get(int64(id)); ok && prev == sum {
		trace.Disk("dedupe: skipped unchanged page id=%d", id)
		return nil
	}
	if err := d.inner.WritePage(id, buf); err != nil {
		return err
	}
	d.cache.Set(int64(id), sum, 1)
	d.cache.Wait()
	return nil
}

func (d *DedupeWriter) AllocatePage() (types.PageID, error) {
	return d.inner.AllocatePage()
}

func (d *DedupeWriter) Close() error {
	d.cache.Close()
	return d.inner.Close()
}
