package bplustree

import (
	"fmt"

	"EmberDB/internal/trace"
	"EmberDB/storage/types"
)

// Insert stores (key, rid) in the tree. Keys are unique: if key is already
// present, Insert leaves the tree untouched and reports false. Splits
// propagate upward as far as needed, possibly growing the tree by one
// level.
func (t *Tree[K]) Insert(key K, rid types.RID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf, err := t.findLeaf(t.root, key)
	if err != nil {
		return false, fmt.Errorf("bplustree.Insert: %w", err)
	}

	if idx := t.search(leaf.keys, key); idx >= 0 {
		return false, t.releaseNode(leaf)
	}

	pos := t.lowerBound(leaf.keys, key)
	leaf.keys = insertAt(leaf.keys, pos, key)
	leaf.values = insertAt(leaf.values, pos, rid)
	leaf.dirty = true

	if len(leaf.keys) < t.leafMaxSize {
		return true, t.releaseNode(leaf)
	}
	return true, t.splitLeaf(leaf)
}

// splitLeaf splits an overfull leaf into two, releasing both halves and
// propagating the new separator key into the parent (or creating a new
// root, if leaf had none).
func (t *Tree[K]) splitLeaf(leaf *node[K]) error {
	mid := len(leaf.keys) / 2

	pg, err := t.bp.NewPage()
	if err != nil {
		t.releaseNode(leaf)
		return fmt.Errorf("bplustree.splitLeaf: %w", err)
	}
	right := newLeafNode[K](pg.ID)
	right.keys = append(right.keys, leaf.keys[mid:]...)
	right.values = append(right.values, leaf.values[mid:]...)
	right.next = leaf.next
	right.parent = leaf.parent
	right.dirty = true

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = right.pageID
	leaf.dirty = true

	sep := right.keys[0]
	leftID, parentID, rightID := leaf.pageID, leaf.parent, right.pageID

	if err := t.releaseNode(leaf); err != nil {
		return err
	}
	if err := t.releaseNode(right); err != nil {
		return err
	}

	trace.Btree("split leaf %d -> %d,%d sep=%v", leftID, leftID, rightID, sep)

	if leftID == t.root {
		return t.createRoot(leftID, sep, rightID)
	}
	return t.insertIntoParent(parentID, leftID, sep, rightID)
}

// createRoot builds a fresh internal root over leftID and rightID,
// separated by sep, and records it as the tree's new root.
func (t *Tree[K]) createRoot(leftID types.PageID, sep K, rightID types.PageID) error {
	pg, err := t.bp.NewPage()
	if err != nil {
		return fmt.Errorf("bplustree.createRoot: %w", err)
	}
	root := newInternalNode[K](pg.ID)
	root.keys = append(root.keys, sep)
	root.children = append(root.children, leftID, rightID)
	root.dirty = true

	for _, cid := range [2]types.PageID{leftID, rightID} {
		c, err := t.fetchNode(cid)
		if err != nil {
			t.releaseNode(root)
			return fmt.Errorf("bplustree.createRoot: %w", err)
		}
		c.parent = root.pageID
		c.dirty = true
		if err := t.releaseNode(c); err != nil {
			return err
		}
	}

	if err := t.releaseNode(root); err != nil {
		return err
	}

	t.root = pg.ID
	trace.Btree("new root %d over %d,%d", t.root, leftID, rightID)
	return t.header.SetRoot(t.name, t.root)
}

// insertIntoParent inserts the separator produced by splitting leftID into
// parentID, splitting parentID in turn if it overflows.
func (t *Tree[K]) insertIntoParent(parentID, leftID types.PageID, sep K, rightID types.PageID) error {
	parent, err := t.fetchNode(parentID)
	if err != nil {
		return fmt.Errorf("bplustree.insertIntoParent: %w", err)
	}

	idx := 0
	for idx < len(parent.children) && parent.children[idx] != leftID {
		idx++
	}

	parent.keys = insertAt(parent.keys, idx, sep)
	parent.children = insertAt(parent.children, idx+1, rightID)
	parent.dirty = true

	if right, err := t.fetchNode(rightID); err == nil {
		right.parent = parentID
		right.dirty = true
		t.releaseNode(right)
	}

	if len(parent.keys) < t.internalMaxSize {
		return t.releaseNode(parent)
	}
	return t.splitInternal(parent)
}

// splitInternal splits an overfull internal node, promoting its middle key
// into the parent level.
func (t *Tree[K]) splitInternal(n *node[K]) error {
	mid := len(n.keys) / 2
	promote := n.keys[mid]

	pg, err := t.bp.NewPage()
	if err != nil {
		t.releaseNode(n)
		return fmt.Errorf("bplustree.splitInternal: %w", err)
	}
	right := newInternalNode[K](pg.ID)
	right.keys = append(right.keys, n.keys[mid+1:]...)
	right.children = append(right.children, n.children[mid+1:]...)
	right.parent = n.parent
	right.dirty = true

	for _, cid := range right.children {
		t.reparent(cid, right.pageID)
	}

	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]
	n.dirty = true

	nodeID, parentID, rightID := n.pageID, n.parent, right.pageID

	if err := t.releaseNode(n); err != nil {
		return err
	}
	if err := t.releaseNode(right); err != nil {
		return err
	}

	if nodeID == t.root {
		return t.createRoot(nodeID, promote, rightID)
	}
	return t.insertIntoParent(parentID, nodeID, promote, rightID)
}
