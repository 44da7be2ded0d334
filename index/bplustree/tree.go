// Package bplustree implements an on-disk B+ tree index: a tree of
// fixed-size pages holding sorted keys, living behind a
// storage/bufferpool.Manager, generalized over key type via Codec instead of
// requiring callers to pre-encode keys to []byte.
package bplustree

import (
	"fmt"
	"sync"

	"EmberDB/internal/assert"
	"EmberDB/internal/trace"
	"EmberDB/storage/bufferpool"
	"EmberDB/storage/types"
)

// Tree is one named B+ tree index backed by a shared buffer pool. Several
// Trees — each with its own name and key type — may share one
// bufferpool.Manager and HeaderPage, the way OpenBPlusTree shares one
// DiskManager and BufferPool across every index file of a database.
type Tree[K any] struct {
	mu sync.RWMutex

	name   string
	bp     *bufferpool.Manager
	header *HeaderPage
	codec  Codec[K]

	root types.PageID

	leafMaxSize     int
	leafMinSize     int
	internalMaxSize int
	internalMinSize int
}

// Open returns the named tree, creating an empty one (a single empty leaf
// root) if name is not yet recorded in header. leafMaxSize and
// internalMaxSize bound how many keys a node may hold before it splits;
// BusTub calls these leaf_max_size and internal_max_size, kept distinct
// here since a leaf entry (key+RID) and an internal entry (key+child
// pointer) are different sizes.
func Open[K any](name string, bp *bufferpool.Manager, header *HeaderPage, codec Codec[K], leafMaxSize, internalMaxSize int) (*Tree[K], error) {
	assert.That(leafMaxSize >= 3, "bplustree.Open: leafMaxSize must be >= 3, got %d", leafMaxSize)
	assert.That(internalMaxSize >= 3, "bplustree.Open: internalMaxSize must be >= 3, got %d", internalMaxSize)

	t := &Tree[K]{
		name:            name,
		bp:              bp,
		header:          header,
		codec:           codec,
		leafMaxSize:     leafMaxSize,
		leafMinSize:     leafMaxSize / 2,
		internalMaxSize: internalMaxSize,
		internalMinSize: internalMaxSize / 2,
	}

	if root, ok := header.Root(name); ok {
		t.root = root
		return t, nil
	}

	pg, err := bp.NewPage()
	if err != nil {
		return nil, fmt.Errorf("bplustree.Open: allocating root for %q: %w", name, err)
	}
	root := newLeafNode[K](pg.ID)
	if err := serialize(root, codec, pg.Data); err != nil {
		bp.UnpinPage(pg.ID, false)
		return nil, fmt.Errorf("bplustree.Open: %w", err)
	}
	if err := bp.UnpinPage(pg.ID, true); err != nil {
		return nil, fmt.Errorf("bplustree.Open: %w", err)
	}

	t.root = pg.ID
	if err := header.SetRoot(name, t.root); err != nil {
		return nil, fmt.Errorf("bplustree.Open: %w", err)
	}
	trace.Btree("opened new tree %q root=%d", name, t.root)
	return t, nil
}

// fetchNode loads the node at id, pinned. Caller must releaseNode it.
func (t *Tree[K]) fetchNode(id types.PageID) (*node[K], error) {
	pg, err := t.bp.FetchPage(id)
	if err != nil {
		return nil, fmt.Errorf("bplustree: fetch node %d: %w", id, err)
	}
	n, err := deserialize(pg.Data, t.codec)
	if err != nil {
		t.bp.UnpinPage(id, false)
		return nil, fmt.Errorf("bplustree: decode node %d: %w", id, err)
	}
	n.pageID = id
	return n, nil
}

// releaseNode unpins n, flushing it to the buffer pool's page bytes first
// if it was modified in memory since it was fetched or created.
func (t *Tree[K]) releaseNode(n *node[K]) error {
	if n.dirty {
		if err := t.writeNode(n); err != nil {
			return err
		}
	}
	return t.bp.UnpinPage(n.pageID, false)
}

// writeNode re-fetches n's page and serializes n's current in-memory
// fields into it, marking the page dirty. Does not change n's pin count:
// the extra FetchPage/UnpinPage pair here is purely to reach pg.Data.
func (t *Tree[K]) writeNode(n *node[K]) error {
	pg, err := t.bp.FetchPage(n.pageID)
	if err != nil {
		return fmt.Errorf("bplustree: writeNode fetch %d: %w", n.pageID, err)
	}
	if err := serialize(n, t.codec, pg.Data); err != nil {
		t.bp.UnpinPage(n.pageID, false)
		return fmt.Errorf("bplustree: writeNode encode %d: %w", n.pageID, err)
	}
	n.dirty = false
	return t.bp.UnpinPage(n.pageID, true)
}

// findLeaf descends from id to the leaf that would hold key. Every
// internal node visited along the way is unpinned before moving on; only
// the returned leaf stays pinned for the caller.
func (t *Tree[K]) findLeaf(id types.PageID, key K) (*node[K], error) {
	for {
		n, err := t.fetchNode(id)
		if err != nil {
			return nil, err
		}
		if n.isLeaf {
			return n, nil
		}
		i := t.childIndex(n.keys, key)
		childID := n.children[i]
		if err := t.releaseNode(n); err != nil {
			return nil, err
		}
		id = childID
	}
}

// lowerBound returns the index of the first key >= target.
func (t *Tree[K]) lowerBound(keys []K, target K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if t.codec.Compare(keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// search returns the index of target in keys, or -1 if absent.
func (t *Tree[K]) search(keys []K, target K) int {
	i := t.lowerBound(keys, target)
	if i < len(keys) && t.codec.Compare(keys[i], target) == 0 {
		return i
	}
	return -1
}

// upperBound returns the index of the first key > target.
func (t *Tree[K]) upperBound(keys []K, target K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if t.codec.Compare(keys[mid], target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// childIndex returns the index into an internal node's children slice that
// key descends into: keys[i] is the minimum key of children[i+1], so the
// separator equal to key itself must route to its right child, not its
// left — upperBound(keys, key), not lowerBound, is what gives that.
func (t *Tree[K]) childIndex(keys []K, key K) int {
	return t.upperBound(keys, key)
}

// minSize returns n's minimum occupancy (keys below this count underflow),
// which differs between leaf and internal nodes.
func (t *Tree[K]) minSize(n *node[K]) int {
	if n.isLeaf {
		return t.leafMinSize
	}
	return t.internalMinSize
}

// Root returns the tree's current root page id, mainly for diagnostics
// and tests.
func (t *Tree[K]) Root() types.PageID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// IsEmpty reports whether the tree currently holds no entries.
func (t *Tree[K]) IsEmpty() (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, err := t.fetchNode(t.root)
	if err != nil {
		return false, fmt.Errorf("bplustree.IsEmpty: %w", err)
	}
	empty := len(n.keys) == 0
	return empty, t.releaseNode(n)
}
