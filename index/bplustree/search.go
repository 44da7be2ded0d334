package bplustree

import (
	"fmt"

	"EmberDB/storage/types"
)

// Get returns the RID stored for key, if present.
func (t *Tree[K]) Get(key K) (types.RID, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, err := t.findLeaf(t.root, key)
	if err != nil {
		return types.RID{}, false, fmt.Errorf("bplustree.Get: %w", err)
	}
	defer t.releaseNode(leaf)

	idx := t.search(leaf.keys, key)
	if idx < 0 {
		return types.RID{}, false, nil
	}
	return leaf.values[idx], true, nil
}
