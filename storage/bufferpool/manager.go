// Package bufferpool implements the buffer pool manager: a fixed-size
// array of frames, a page-id-to-frame directory, and an LRU-K replacer,
// coordinating who may evict what with an on-disk storage/disk.Manager.
package bufferpool

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"EmberDB/internal/trace"
	"EmberDB/storage/disk"
	"EmberDB/storage/hash"
	"EmberDB/storage/page"
	"EmberDB/storage/replacer"
	"EmberDB/storage/types"
)

// pageIDHash hashes a page id for storage/hash.Directory. xxhash.Sum64
// gives the directory's low-bit indexing a better spread than the raw id
// would, which matters once global_depth grows past a handful of bits.
func pageIDHash(id types.PageID) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	return xxhash.Sum64(buf[:])
}

// Manager is the buffer pool manager: pool_size frames, each holding at
// most one resident page, backed by disk for misses and evictions.
type Manager struct {
	mu sync.Mutex

	frames    []*page.Page
	freeList  []types.FrameID
	pageTable *hash.Directory[types.PageID, types.FrameID]
	replacer  *replacer.LRUK
	disk      disk.Manager

	poolSize int
}

// New returns a Manager with poolSize frames, an LRU-K replacer with
// distance parameter k, backed by d for reads, writes, and allocation.
func New(poolSize, k int, d disk.Manager) *Manager {
	free := make([]types.FrameID, poolSize)
	for i := range free {
		free[i] = types.FrameID(i)
	}
	return &Manager{
		frames:    make([]*page.Page, poolSize),
		freeList:  free,
		pageTable: hash.New[types.PageID, types.FrameID](4, pageIDHash),
		replacer:  replacer.New(poolSize, k),
		disk:      d,
		poolSize:  poolSize,
	}
}

// grabFrame returns a frame ready for a new resident page: one from the
// free list if any remain, otherwise an evicted frame (flushed first if
// dirty). Reports false if the pool is fully pinned. Caller must hold mu.
func (m *Manager) grabFrame() (types.FrameID, bool, error) {
	if n := len(m.freeList); n > 0 {
		fid := m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
		return fid, true, nil
	}

	victim, ok := m.replacer.Evict()
	if !ok {
		return 0, false, nil
	}
	fid := types.FrameID(victim)
	pg := m.frames[fid]

	if pg.IsDirty {
		if err := m.disk.WritePage(pg.ID, pg.Data); err != nil {
			return 0, false, fmt.Errorf("bufferpool.grabFrame: flushing evicted page %d: %w", pg.ID, err)
		}
		pg.IsDirty = false
	}
	trace.Bufferpool("evict frame=%d pageID=%d", fid, pg.ID)
	m.pageTable.Remove(pg.ID)
	m.frames[fid] = nil
	return fid, true, nil
}

// FetchPage returns the page with the given id, reading it from disk into
// a free or evicted frame if it is not already resident. The returned
// page is pinned; the caller must UnpinPage it when done.
func (m *Manager) FetchPage(id types.PageID) (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fid, ok := m.pageTable.Find(id); ok {
		pg := m.frames[fid]
		pg.PinCount++
		m.replacer.RecordAccess(replacer.FrameID(fid))
		m.replacer.SetEvictable(replacer.FrameID(fid), false)
		trace.Bufferpool("hit pageID=%d frame=%d pinCount=%d", id, fid, pg.PinCount)
		return pg, nil
	}

	fid, ok, err := m.grabFrame()
	if err != nil {
		return nil, fmt.Errorf("bufferpool.FetchPage: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("bufferpool.FetchPage: pool exhausted, all %d frames pinned", m.poolSize)
	}

	pg := page.New(id)
	if err := m.disk.ReadPage(id, pg.Data); err != nil {
		m.freeList = append(m.freeList, fid)
		return nil, fmt.Errorf("bufferpool.FetchPage: reading page %d: %w", id, err)
	}

	m.frames[fid] = pg
	m.pageTable.Insert(id, fid)
	m.replacer.RecordAccess(replacer.FrameID(fid))
	m.replacer.SetEvictable(replacer.FrameID(fid), false)
	pg.PinCount = 1
	trace.Bufferpool("miss pageID=%d frame=%d loaded from disk", id, fid)
	return pg, nil
}

// NewPage allocates a fresh page id on disk and returns a pinned page for
// it, zeroed and not dirty, in a free or evicted frame.
func (m *Manager) NewPage() (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok, err := m.grabFrame()
	if err != nil {
		return nil, fmt.Errorf("bufferpool.NewPage: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("bufferpool.NewPage: pool exhausted, all %d frames pinned", m.poolSize)
	}

	id, err := m.disk.AllocatePage()
	if err != nil {
		m.freeList = append(m.freeList, fid)
		return nil, fmt.Errorf("bufferpool.NewPage: %w", err)
	}

	pg := page.New(id)
	pg.PinCount = 1

	m.frames[fid] = pg
	m.pageTable.Insert(id, fid)
	m.replacer.RecordAccess(replacer.FrameID(fid))
	m.replacer.SetEvictable(replacer.FrameID(fid), false)
	trace.Bufferpool("new pageID=%d frame=%d", id, fid)
	return pg, nil
}

// UnpinPage decrements id's pin count. If dirty is true the page is
// flagged for a later flush regardless of whether some other pinner had
// already cleared the flag. Once the pin count drops to zero the frame
// becomes eligible for eviction.
func (m *Manager) UnpinPage(id types.PageID, dirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool.UnpinPage: page %d not resident", id)
	}
	pg := m.frames[fid]
	if dirty {
		pg.IsDirty = true
	}
	if pg.PinCount <= 0 {
		return fmt.Errorf("bufferpool.UnpinPage: page %d already has pin count 0", id)
	}
	pg.PinCount--
	if pg.PinCount == 0 {
		m.replacer.SetEvictable(replacer.FrameID(fid), true)
	}
	return nil
}

// FlushPage writes id's bytes to disk if dirty, clearing the dirty flag.
func (m *Manager) FlushPage(id types.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool.FlushPage: page %d not resident", id)
	}
	return m.flushFrame(fid)
}

// flushFrame flushes the page resident in fid, if dirty. Caller must hold
// mu.
func (m *Manager) flushFrame(fid types.FrameID) error {
	pg := m.frames[fid]
	if pg == nil || !pg.IsDirty {
		return nil
	}
	if err := m.disk.WritePage(pg.ID, pg.Data); err != nil {
		return fmt.Errorf("bufferpool.flushFrame: page %d: %w", pg.ID, err)
	}
	pg.IsDirty = false
	trace.Bufferpool("flush pageID=%d frame=%d", pg.ID, fid)
	return nil
}

// FlushAllPages flushes every dirty resident page.
func (m *Manager) FlushAllPages() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for fid, pg := range m.frames {
		if pg == nil {
			continue
		}
		if err := m.flushFrame(types.FrameID(fid)); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes id from the pool, failing if it is still pinned. It
// reports true if id is gone from the pool afterward (including if it was
// never resident); false means it is pinned and could not be removed.
// A dirty page is flushed to disk first so its bytes are not lost.
func (m *Manager) DeletePage(id types.PageID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable.Find(id)
	if !ok {
		return true, nil
	}
	pg := m.frames[fid]
	if pg.PinCount > 0 {
		return false, nil
	}

	if err := m.flushFrame(fid); err != nil {
		return false, fmt.Errorf("bufferpool.DeletePage: %w", err)
	}

	m.pageTable.Remove(id)
	m.replacer.Remove(replacer.FrameID(fid))
	pg.Reset(types.InvalidPageID)
	m.frames[fid] = nil
	m.freeList = append(m.freeList, fid)
	trace.Bufferpool("delete pageID=%d frame=%d", id, fid)
	return true, nil
}

// PoolSize returns the number of frames the pool was built with.
func (m *Manager) PoolSize() int {
	return m.poolSize
}

// PinCount reports id's current pin count, or (0, false) if id is not
// resident. A debug accessor so tests can assert on pin state directly
// instead of inferring it.
func (m *Manager) PinCount(id types.PageID) (int32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable.Find(id)
	if !ok {
		return 0, false
	}
	return m.frames[fid].PinCount, true
}
