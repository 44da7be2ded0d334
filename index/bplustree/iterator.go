package bplustree

import (
	"fmt"

	"EmberDB/storage/types"
)

// Iterator scans a range of a Tree in key order, following leaf next
// pointers across leaves as they exhaust. Valid reports true exactly when
// there is a current entry to read, defined positively rather than as the
// negation of an end flag, so an empty tree or a seek past the last key is
// simply never valid rather than needing a separate end check.
type Iterator[K any] struct {
	tree  *Tree[K]
	leaf  *node[K]
	index int
}

// Seek positions an iterator at the first key >= key (or the end, if
// none exists). The caller must Close the iterator when done.
func (t *Tree[K]) Seek(key K) (*Iterator[K], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, err := t.findLeaf(t.root, key)
	if err != nil {
		return nil, fmt.Errorf("bplustree.Seek: %w", err)
	}
	it := &Iterator[K]{tree: t, leaf: leaf, index: t.lowerBound(leaf.keys, key)}
	if err := it.advanceToEntry(); err != nil {
		return nil, err
	}
	return it, nil
}

// First positions an iterator at the smallest key in the tree.
func (t *Tree[K]) First() (*Iterator[K], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id := t.root
	for {
		n, err := t.fetchNode(id)
		if err != nil {
			return nil, fmt.Errorf("bplustree.First: %w", err)
		}
		if n.isLeaf {
			it := &Iterator[K]{tree: t, leaf: n, index: 0}
			if err := it.advanceToEntry(); err != nil {
				return nil, err
			}
			return it, nil
		}
		childID := n.children[0]
		if err := t.releaseNode(n); err != nil {
			return nil, err
		}
		id = childID
	}
}

// advanceToEntry walks forward across leaf boundaries until index points
// at a real entry, or the iterator is exhausted (leaf == nil).
func (it *Iterator[K]) advanceToEntry() error {
	for it.leaf != nil && it.index >= len(it.leaf.keys) {
		next := it.leaf.next
		leaf := it.leaf
		it.leaf = nil
		if err := it.tree.releaseNode(leaf); err != nil {
			return err
		}
		if !next.Valid() {
			return nil
		}
		n, err := it.tree.fetchNode(next)
		if err != nil {
			return fmt.Errorf("bplustree.Iterator: %w", err)
		}
		it.leaf = n
		it.index = 0
	}
	return nil
}

// Valid reports whether Key and Value refer to a real entry.
func (it *Iterator[K]) Valid() bool {
	return it.leaf != nil && it.index < len(it.leaf.keys)
}

// Key returns the entry's key. Only valid when Valid() is true.
func (it *Iterator[K]) Key() K {
	return it.leaf.keys[it.index]
}

// Value returns the entry's RID. Only valid when Valid() is true.
func (it *Iterator[K]) Value() types.RID {
	return it.leaf.values[it.index]
}

// Next advances the iterator by one entry, returning whether a valid
// entry is positioned afterward. Takes the tree's lock for the duration of
// the advance, the same as Insert/Delete, since it may fetch and release
// nodes that a concurrent writer could be rewriting.
func (it *Iterator[K]) Next() (bool, error) {
	it.tree.mu.Lock()
	defer it.tree.mu.Unlock()

	if !it.Valid() {
		return false, nil
	}
	it.index++
	if err := it.advanceToEntry(); err != nil {
		return false, err
	}
	return it.Valid(), nil
}

// Close releases any leaf still pinned by the iterator. Safe to call
// more than once.
func (it *Iterator[K]) Close() error {
	if it.leaf == nil {
		return nil
	}
	leaf := it.leaf
	it.leaf = nil
	return it.tree.releaseNode(leaf)
}
