package disk

import (
	"fmt"
	"path/filepath"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store is a registry of named on-disk Managers, one physical file and one
// page-id space per name. It exists because a single process can host more
// than one B+ tree database file (e.g. one per table's secondary indexes),
// and opening the same name twice should hand back the
// same Manager rather than a second file handle.
//
// The registry itself is a read-mostly lookup table, so it is backed by
// xsync.MapOf instead of a mutex-guarded map, using LoadOrStore to make
// concurrent first-opens of the same name converge on one Manager.
type Store struct {
	dir   string
	files *xsync.MapOf[string, Manager]
}

// NewStore returns a Store that opens named files under dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		files: xsync.NewMapOf[string, Manager](),
	}
}

// Open returns the Manager for name, opening (and creating, if needed) its
// backing file on first use.
func (s *Store) Open(name string) (Manager, error) {
	if m, ok := s.files.Load(name); ok {
		return m, nil
	}

	fm, err := OpenFileManager(filepath.Join(s.dir, name+".idx"))
	if err != nil {
		return nil, fmt.Errorf("Store.Open: %s: %w", name, err)
	}

	actual, loaded := s.files.LoadOrStore(name, fm)
	if loaded {
		// Another goroutine opened it first; close the redundant handle.
		fm.Close()
	}
	return actual, nil
}

// Close closes and forgets the Manager registered under name, if any.
func (s *Store) Close(name string) error {
	m, ok := s.files.LoadAndDelete(name)
	if !ok {
		return nil
	}
	return m.Close()
}

// CloseAll closes every open Manager in the store.
func (s *Store) CloseAll() error {
	var firstErr error
	s.files.Range(func(name string, m Manager) bool {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.files.Delete(name)
		return true
	})
	return firstErr
}
