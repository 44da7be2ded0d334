// Package page defines the fixed-size byte buffer plus out-of-band
// metadata that the buffer pool moves between disk and memory. It
// deliberately knows nothing about eviction policy or directory
// bookkeeping — those live in storage/replacer, storage/hash, and
// storage/bufferpool, which only reference a Page by its id and frame
// index.
package page

import "EmberDB/storage/types"

// Page is one resident page: PageSize bytes of content plus the metadata
// the buffer pool needs to decide whether the bytes may be evicted or must
// be flushed first.
//
// Page does not lock itself — every field is only ever touched while the
// owning bufferpool.Manager holds its single mutex.
type Page struct {
	ID       types.PageID
	Data     []byte
	PinCount int32
	IsDirty  bool
}

// New returns a zeroed page of the given id, not yet resident anywhere.
func New(id types.PageID) *Page {
	return &Page{
		ID:   id,
		Data: make([]byte, types.PageSize),
	}
}

// Reset clears a page back to its just-allocated state, reusing the
// backing array. Used by the buffer pool's DeletePage to wipe a deleted
// page before its frame goes back on the free list.
func (p *Page) Reset(id types.PageID) {
	p.ID = id
	p.PinCount = 0
	p.IsDirty = false
	clear(p.Data)
}
