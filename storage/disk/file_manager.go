package disk

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ncw/directio"

	"EmberDB/internal/trace"
	"EmberDB/storage/types"
)

// FileManager is the on-disk disk.Manager. It reads and writes whole pages
// through O_DIRECT, page-aligned blocks via directio.OpenFile/AlignedBlock,
// so the OS page cache never holds a second, possibly stale, copy of a page
// the buffer pool already caches.
//
// FileManager owns exactly one physical file and a single monotonic
// page-id space, with one header page at id 0. Multiple named files are
// composed with Store, not with this type.
type FileManager struct {
	mu         sync.Mutex
	file       *os.File
	size       atomic.Int64 // bytes currently on disk
	nextPageID atomic.Int64
}

var _ Manager = (*FileManager)(nil)

// OpenFileManager opens (creating if necessary) a page file at path. Page
// id 0 is reserved for the header page; if the file is new, a zeroed
// header page is written immediately so the page-id space starts at 1.
func OpenFileManager(path string) (*FileManager, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("OpenFileManager: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("OpenFileManager: stat %s: %w", path, err)
	}

	fm := &FileManager{file: f}
	fm.size.Store(info.Size())

	if info.Size() == 0 {
		zero := directio.AlignedBlock(types.PageSize)
		if err := fm.writeAt(0, zero); err != nil {
			f.Close()
			return nil, fmt.Errorf("OpenFileManager: reserving header page: %w", err)
		}
		fm.nextPageID.Store(1)
	} else {
		fm.nextPageID.Store(info.Size() / types.PageSize)
	}

	trace.Disk("opened file manager path=%s nextPageID=%d size=%s", path, fm.nextPageID.Load(), trace.Bytes(fm.size.Load()))
	return fm, nil
}

func (fm *FileManager) ReadPage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("FileManager.ReadPage: buf must be %d bytes, got %d", types.PageSize, len(buf))
	}
	if id < 0 {
		return fmt.Errorf("FileManager.ReadPage: invalid page id %d", id)
	}

	offset := int64(id) * types.PageSize
	if offset >= fm.size.Load() {
		clear(buf)
		return nil
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	block := directio.AlignedBlock(types.PageSize)
	n, err := fm.file.ReadAt(block, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("FileManager.ReadPage: page %d: %w", id, err)
	}
	copy(buf, block)
	if n < types.PageSize {
		clear(buf[n:])
	}
	return nil
}

func (fm *FileManager) WritePage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("FileManager.WritePage: buf must be %d bytes, got %d", types.PageSize, len(buf))
	}
	if id < 0 {
		return fmt.Errorf("FileManager.WritePage: invalid page id %d", id)
	}

	block := directio.AlignedBlock(types.PageSize)
	copy(block, buf)

	offset := int64(id) * types.PageSize
	if err := fm.writeAt(offset, block); err != nil {
		return fmt.Errorf("FileManager.WritePage: page %d: %w", id, err)
	}
	trace.Disk("wrote page id=%d offset=%d", id, offset)
	return nil
}

func (fm *FileManager) writeAt(offset int64, block []byte) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	n, err := fm.file.WriteAt(block, offset)
	if err != nil {
		return err
	}
	if n != len(block) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(block))
	}
	if end := offset + int64(n); end > fm.size.Load() {
		fm.size.Store(end)
	}
	return nil
}

func (fm *FileManager) AllocatePage() (types.PageID, error) {
	id := types.PageID(fm.nextPageID.Add(1) - 1)
	trace.Disk("allocated page id=%d", id)
	return id, nil
}

func (fm *FileManager) Close() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if err := fm.file.Sync(); err != nil {
		return fmt.Errorf("FileManager.Close: sync: %w", err)
	}
	return fm.file.Close()
}
