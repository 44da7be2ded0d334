// Package hash implements a concurrent extendible hash directory: a
// directory of bucket handles that doubles and splits overfull buckets on
// insert, used by storage/bufferpool to map page ids to frame indices.
//
// It is generic over key and value type rather than fixed to one key
// width — the buffer pool monomorphizes it as
// Directory[types.PageID, types.FrameID].
package hash

import (
	"sync"

	"EmberDB/internal/assert"
)

// HashFunc computes a 64-bit hash for a directory key. The directory only
// ever looks at the low global_depth bits of this value.
type HashFunc[K comparable] func(K) uint64

type entry[K comparable, V any] struct {
	key K
	val V
}

type bucket[K comparable, V any] struct {
	localDepth uint
	entries    []entry[K, V]
}

// Directory is a concurrent mapping from K to V backed by extendible
// hashing. All operations are serialized by a single mutex: this
// structure is not on the B+ tree's hot path, so coarse locking is
// deliberate, not an oversight.
type Directory[K comparable, V any] struct {
	mu          sync.Mutex
	globalDepth uint
	bucketSize  int
	buckets     []*bucket[K, V]
	hashFn      HashFunc[K]

	numBuckets int // lifetime count: +1 net per split, never decremented
}

// New returns an empty directory with a single bucket at depth 0.
func New[K comparable, V any](bucketSize int, hashFn HashFunc[K]) *Directory[K, V] {
	assert.That(bucketSize > 0, "hash.New: bucketSize must be positive, got %d", bucketSize)
	root := &bucket[K, V]{localDepth: 0}
	return &Directory[K, V]{
		globalDepth: 0,
		bucketSize:  bucketSize,
		buckets:     []*bucket[K, V]{root},
		hashFn:      hashFn,
		numBuckets:  1,
	}
}

func (d *Directory[K, V]) indexFor(k K) int {
	mask := uint64(1)<<d.globalDepth - 1
	return int(d.hashFn(k) & mask)
}

// Find returns the value stored for k, if any.
func (d *Directory[K, V]) Find(k K) (V, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.buckets[d.indexFor(k)]
	for _, e := range b.entries {
		if e.key == k {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// Remove deletes the first (and, since keys are unique, only) entry for k.
// It reports whether anything was removed. It never shrinks the directory
// or merges buckets back together.
func (d *Directory[K, V]) Remove(k K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.buckets[d.indexFor(k)]
	for i, e := range b.entries {
		if e.key == k {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Insert stores (k, v), overwriting any existing value for k. If the
// target bucket is full, it is split — doubling the directory first if
// necessary — and the insert is retried against the (now smaller) bucket
// the key actually belongs to. Insert is infallible: it always succeeds.
func (d *Directory[K, V]) Insert(k K, v V) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		idx := d.indexFor(k)
		b := d.buckets[idx]

		overwrote := false
		for i := range b.entries {
			if b.entries[i].key == k {
				b.entries[i].val = v
				overwrote = true
				break
			}
		}
		if overwrote {
			return
		}

		if len(b.entries) < d.bucketSize {
			b.entries = append(b.entries, entry[K, V]{key: k, val: v})
			return
		}

		d.splitBucket(idx)
		assert.That(d.globalDepth < 63, "hash.Insert: directory depth exceeded 63 bits for key %v — hash function degenerate?", k)
	}
}

// splitBucket splits the bucket currently at directory slot idx, doubling
// the directory first if the bucket's local depth has caught up to the
// global depth.
func (d *Directory[K, V]) splitBucket(idx int) {
	old := d.buckets[idx]

	if old.localDepth == d.globalDepth {
		d.buckets = append(d.buckets, d.buckets...)
		d.globalDepth++
	}

	newLocalDepth := old.localDepth + 1
	splitBit := uint64(1) << (newLocalDepth - 1)

	low := &bucket[K, V]{localDepth: newLocalDepth}
	high := &bucket[K, V]{localDepth: newLocalDepth}
	d.numBuckets++ // net +1 per split: two allocated, one retired

	for i, b := range d.buckets {
		if b != old {
			continue
		}
		if uint64(i)&splitBit == 0 {
			d.buckets[i] = low
		} else {
			d.buckets[i] = high
		}
	}

	for _, e := range old.entries {
		if d.hashFn(e.key)&splitBit == 0 {
			low.entries = append(low.entries, e)
		} else {
			high.entries = append(high.entries, e)
		}
	}
}

// GlobalDepth returns the directory's current global depth.
func (d *Directory[K, V]) GlobalDepth() uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.globalDepth
}

// NumBuckets returns the lifetime count of buckets allocated: net +1 per
// split, never decremented since Remove never merges buckets back
// together.
func (d *Directory[K, V]) NumBuckets() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numBuckets
}

// LocalDepth returns the local depth of the bucket holding k.
func (d *Directory[K, V]) LocalDepth(k K) uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buckets[d.indexFor(k)].localDepth
}
