package disk

import (
	"fmt"
	"sync"

	"github.com/dsnet/golib/memfile"

	"EmberDB/internal/trace"
	"EmberDB/storage/types"
)

// MemManager is an in-memory disk.Manager backed by
// github.com/dsnet/golib/memfile. It exists so bufferpool and bplustree
// tests can exercise eviction, flush, and recovery-free restart semantics
// without touching the filesystem or paying for O_DIRECT alignment.
type MemManager struct {
	mu         sync.Mutex
	file       *memfile.File
	size       int64
	nextPageID int64
}

var _ Manager = (*MemManager)(nil)

// NewMemManager returns a MemManager with its header page (id 0) already
// reserved, matching FileManager's on-disk behavior.
func NewMemManager() *MemManager {
	mm := &MemManager{
		file: memfile.New(make([]byte, 0)),
	}
	zero := make([]byte, types.PageSize)
	mm.file.WriteAt(zero, 0)
	mm.size = types.PageSize
	mm.nextPageID = 1
	return mm
}

func (mm *MemManager) ReadPage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("MemManager.ReadPage: buf must be %d bytes, got %d", types.PageSize, len(buf))
	}
	if id < 0 {
		return fmt.Errorf("MemManager.ReadPage: invalid page id %d", id)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	offset := int64(id) * types.PageSize
	if offset >= mm.size {
		clear(buf)
		return nil
	}
	n, err := mm.file.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return fmt.Errorf("MemManager.ReadPage: page %d: %w", id, err)
	}
	if n < types.PageSize {
		clear(buf[n:])
	}
	return nil
}

func (mm *MemManager) WritePage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("MemManager.WritePage: buf must be %d bytes, got %d", types.PageSize, len(buf))
	}
	if id < 0 {
		return fmt.Errorf("MemManager.WritePage: invalid page id %d", id)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	offset := int64(id) * types.PageSize
	if _, err := mm.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("MemManager.WritePage: page %d: %w", id, err)
	}
	if end := offset + types.PageSize; end > mm.size {
		mm.size = end
	}
	trace.Disk("mem: wrote page id=%d", id)
	return nil
}

func (mm *MemManager) AllocatePage() (types.PageID, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	id := types.PageID(mm.nextPageID)
	mm.nextPageID++
	return id, nil
}

func (mm *MemManager) Close() error {
	return nil
}
