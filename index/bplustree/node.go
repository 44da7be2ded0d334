package bplustree

import (
	"encoding/binary"
	"fmt"

	"EmberDB/storage/types"
)

// headerSize is the fixed prefix of every serialized node, laid out the
// way node_to_index_page.go documents its own header: page id, a leaf
// flag, a key count, and parent/next links, padded to a round number of
// bytes.
const headerSize = 32

const ridSize = 12 // types.RID: PageID int64 + Slot uint32

// node is one B+ tree node — leaf or internal — generic over key type K.
// Internal nodes have len(children) == len(keys)+1; leaf nodes have
// len(values) == len(keys) and chain together via next.
type node[K any] struct {
	pageID types.PageID
	parent types.PageID
	isLeaf bool

	keys     []K
	children []types.PageID // internal only
	values   []types.RID    // leaf only
	next     types.PageID   // leaf only

	dirty bool
}

func newLeafNode[K any](id types.PageID) *node[K] {
	return &node[K]{pageID: id, isLeaf: true, parent: types.InvalidPageID, next: types.InvalidPageID, dirty: true}
}

func newInternalNode[K any](id types.PageID) *node[K] {
	return &node[K]{pageID: id, isLeaf: false, parent: types.InvalidPageID, dirty: true}
}

// serialize writes n into buf (length types.PageSize), using codec to
// encode each key.
func serialize[K any](n *node[K], codec Codec[K], buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("serialize: buffer must be %d bytes, got %d", types.PageSize, len(buf))
	}
	clear(buf)

	binary.LittleEndian.PutUint64(buf[0:], uint64(n.pageID))
	if n.isLeaf {
		buf[8] = 1
	}
	binary.LittleEndian.PutUint16(buf[10:], uint16(len(n.keys)))
	binary.LittleEndian.PutUint64(buf[12:], uint64(n.parent))
	binary.LittleEndian.PutUint64(buf[20:], uint64(n.next))

	offset := headerSize
	keySize := codec.Size()
	for _, k := range n.keys {
		if offset+keySize > types.PageSize {
			return fmt.Errorf("serialize: page overflow writing keys")
		}
		codec.Encode(k, buf[offset:offset+keySize])
		offset += keySize
	}

	if n.isLeaf {
		for _, v := range n.values {
			if offset+ridSize > types.PageSize {
				return fmt.Errorf("serialize: page overflow writing values")
			}
			binary.LittleEndian.PutUint64(buf[offset:], uint64(v.PageID))
			binary.LittleEndian.PutUint32(buf[offset+8:], v.Slot)
			offset += ridSize
		}
	} else {
		for _, c := range n.children {
			if offset+8 > types.PageSize {
				return fmt.Errorf("serialize: page overflow writing children")
			}
			binary.LittleEndian.PutUint64(buf[offset:], uint64(c))
			offset += 8
		}
	}
	return nil
}

// deserialize reads a node back out of buf. The caller always overwrites
// the returned node's pageID with the id it fetched the page under.
func deserialize[K any](buf []byte, codec Codec[K]) (*node[K], error) {
	if len(buf) != types.PageSize {
		return nil, fmt.Errorf("deserialize: buffer must be %d bytes, got %d", types.PageSize, len(buf))
	}

	n := &node[K]{
		pageID: types.PageID(binary.LittleEndian.Uint64(buf[0:])),
		isLeaf: buf[8] == 1,
		parent: types.PageID(int64(binary.LittleEndian.Uint64(buf[12:]))),
		next:   types.PageID(int64(binary.LittleEndian.Uint64(buf[20:]))),
	}
	numKeys := int(binary.LittleEndian.Uint16(buf[10:]))

	offset := headerSize
	keySize := codec.Size()
	n.keys = make([]K, numKeys)
	for i := 0; i < numKeys; i++ {
		if offset+keySize > types.PageSize {
			return nil, fmt.Errorf("deserialize: page overflow reading key %d", i)
		}
		n.keys[i] = codec.Decode(buf[offset : offset+keySize])
		offset += keySize
	}

	if n.isLeaf {
		n.values = make([]types.RID, numKeys)
		for i := 0; i < numKeys; i++ {
			if offset+ridSize > types.PageSize {
				return nil, fmt.Errorf("deserialize: page overflow reading value %d", i)
			}
			n.values[i] = types.RID{
				PageID: types.PageID(int64(binary.LittleEndian.Uint64(buf[offset:]))),
				Slot:   binary.LittleEndian.Uint32(buf[offset+8:]),
			}
			offset += ridSize
		}
	} else {
		n.children = make([]types.PageID, numKeys+1)
		for i := 0; i <= numKeys; i++ {
			if offset+8 > types.PageSize {
				return nil, fmt.Errorf("deserialize: page overflow reading child %d", i)
			}
			n.children[i] = types.PageID(int64(binary.LittleEndian.Uint64(buf[offset:])))
			offset += 8
		}
	}
	return n, nil
}

// insertAt inserts elem at index i, shifting the rest right.
func insertAt[T any](s []T, i int, elem T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = elem
	return s
}

// removeAt removes the element at index i.
func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
