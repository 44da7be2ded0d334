package bplustree

import (
	"encoding/binary"
	"fmt"

	"github.com/tidwall/btree"

	"EmberDB/storage/bufferpool"
	"EmberDB/storage/types"
)

// rootRecord maps one named index to its root page id.
type rootRecord struct {
	name string
	root types.PageID
}

func rootRecordLess(a, b rootRecord) bool { return a.name < b.name }

// HeaderPage owns page 0 of a file: the directory of (index name -> root
// page id) records every Tree in the file consults to find its root and
// updates whenever its root changes. Kept in memory as a tidwall/btree.BTreeG
// and serialized back to page 0's bytes on every write, so several named
// trees can share one file and one root-persistence path.
type HeaderPage struct {
	bp      *bufferpool.Manager
	records *btree.BTreeG[rootRecord]
}

// OpenHeaderPage loads (or initializes, if page 0 is blank) the header
// page directory for a buffer pool's backing file.
func OpenHeaderPage(bp *bufferpool.Manager) (*HeaderPage, error) {
	pg, err := bp.FetchPage(types.HeaderPageID)
	if err != nil {
		return nil, fmt.Errorf("OpenHeaderPage: %w", err)
	}
	defer bp.UnpinPage(types.HeaderPageID, false)

	h := &HeaderPage{bp: bp, records: btree.NewBTreeG(rootRecordLess)}
	if err := h.decode(pg.Data); err != nil {
		return nil, fmt.Errorf("OpenHeaderPage: %w", err)
	}
	return h, nil
}

func (h *HeaderPage) decode(data []byte) error {
	n := binary.LittleEndian.Uint16(data[0:2])
	offset := 2
	for i := 0; i < int(n); i++ {
		if offset+2 > len(data) {
			return fmt.Errorf("decode: truncated directory at record %d", i)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
		if offset+nameLen+8 > len(data) {
			return fmt.Errorf("decode: truncated record %d", i)
		}
		name := string(data[offset : offset+nameLen])
		offset += nameLen
		root := types.PageID(binary.LittleEndian.Uint64(data[offset:]))
		offset += 8
		h.records.Set(rootRecord{name: name, root: root})
	}
	return nil
}

func (h *HeaderPage) encode(data []byte) error {
	clear(data)
	binary.LittleEndian.PutUint16(data[0:2], uint16(h.records.Len()))
	offset := 2
	var encErr error
	h.records.Ascend(rootRecord{}, func(r rootRecord) bool {
		need := 2 + len(r.name) + 8
		if offset+need > len(data) {
			encErr = fmt.Errorf("encode: header page directory is full")
			return false
		}
		binary.LittleEndian.PutUint16(data[offset:], uint16(len(r.name)))
		offset += 2
		copy(data[offset:], r.name)
		offset += len(r.name)
		binary.LittleEndian.PutUint64(data[offset:], uint64(r.root))
		offset += 8
		return true
	})
	return encErr
}

// Root returns the root page id recorded for name, if any.
func (h *HeaderPage) Root(name string) (types.PageID, bool) {
	r, ok := h.records.Get(rootRecord{name: name})
	if !ok {
		return types.InvalidPageID, false
	}
	return r.root, true
}

// SetRoot records root as name's current root page id and immediately
// re-encodes the directory into page 0, unpinning it dirty, so the header
// page never lags behind a Tree's root. The bytes reach disk when the
// buffer pool flushes or evicts page 0.
func (h *HeaderPage) SetRoot(name string, root types.PageID) error {
	h.records.Set(rootRecord{name: name, root: root})

	pg, err := h.bp.FetchPage(types.HeaderPageID)
	if err != nil {
		return fmt.Errorf("HeaderPage.SetRoot: %w", err)
	}
	if err := h.encode(pg.Data); err != nil {
		h.bp.UnpinPage(types.HeaderPageID, false)
		return fmt.Errorf("HeaderPage.SetRoot: %w", err)
	}
	return h.bp.UnpinPage(types.HeaderPageID, true)
}

// Names returns every index name currently recorded.
func (h *HeaderPage) Names() []string {
	names := make([]string, 0, h.records.Len())
	h.records.Ascend(rootRecord{}, func(r rootRecord) bool {
		names = append(names, r.name)
		return true
	})
	return names
}
