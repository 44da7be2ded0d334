package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EmberDB/storage/bufferpool"
	"EmberDB/storage/disk"
	"EmberDB/storage/types"
)

func newTestTree(t *testing.T, leafMax, internalMax int) *Tree[int32] {
	t.Helper()
	mm := disk.NewMemManager()
	bp := bufferpool.New(32, 2, mm)
	h, err := OpenHeaderPage(bp)
	require.NoError(t, err)
	tr, err := Open[int32]("idx", bp, h, Int32Codec{}, leafMax, internalMax)
	require.NoError(t, err)
	return tr
}

func rid(page int64, slot uint32) types.RID {
	return types.RID{PageID: types.PageID(page), Slot: slot}
}

func mustInsert(t *testing.T, tr *Tree[int32], key int32, v types.RID) {
	t.Helper()
	inserted, err := tr.Insert(key, v)
	require.NoError(t, err)
	require.True(t, inserted, "key %d should not already be present", key)
}

func TestTree_InsertAndGetMissingKey(t *testing.T) {
	tr := newTestTree(t, 4, 4)

	_, ok, err := tr.Get(7)
	require.NoError(t, err)
	assert.False(t, ok)

	mustInsert(t, tr, 7, rid(1, 0))
	got, ok, err := tr.Get(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rid(1, 0), got)
}

func TestTree_InsertRejectsDuplicateKeyAndLeavesValueUnchanged(t *testing.T) {
	tr := newTestTree(t, 4, 4)

	mustInsert(t, tr, 1, rid(1, 0))

	inserted, err := tr.Insert(1, rid(2, 0))
	require.NoError(t, err)
	assert.False(t, inserted, "inserting an already-present key must be rejected")

	got, ok, err := tr.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rid(1, 0), got, "a rejected insert must not overwrite the existing value")
}

func TestTree_SplitsLeafWhenFull(t *testing.T) {
	tr := newTestTree(t, 3, 3)
	originalRoot := tr.Root()

	for i := int32(1); i <= 4; i++ {
		mustInsert(t, tr, i, rid(int64(i), 0))
	}

	assert.NotEqual(t, originalRoot, tr.Root(), "inserting past leafMaxSize must split the root leaf and grow the tree")

	for i := int32(1); i <= 4; i++ {
		got, ok, err := tr.Get(i)
		require.NoError(t, err)
		require.True(t, ok, "key %d must survive the split", i)
		assert.Equal(t, rid(int64(i), 0), got)
	}
}

func TestTree_SplitPropagatesThroughMultipleLevels(t *testing.T) {
	tr := newTestTree(t, 3, 3)

	const n = 60
	for i := int32(0); i < n; i++ {
		mustInsert(t, tr, i, rid(int64(i), 0))
	}

	for i := int32(0); i < n; i++ {
		got, ok, err := tr.Get(i)
		require.NoError(t, err)
		require.True(t, ok, "key %d must be findable after many splits", i)
		assert.Equal(t, rid(int64(i), 0), got)
	}

	_, ok, err := tr.Get(n)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTree_DeleteRemovesKey(t *testing.T) {
	tr := newTestTree(t, 4, 4)

	mustInsert(t, tr, 1, rid(1, 0))
	mustInsert(t, tr, 2, rid(2, 0))

	removed, err := tr.Delete(1)
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok, err := tr.Get(1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := tr.Get(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rid(2, 0), got)
}

func TestTree_DeleteMissingKeyReportsFalse(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	mustInsert(t, tr, 1, rid(1, 0))

	removed, err := tr.Delete(99)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestTree_DeleteTriggersMergeAndKeepsRemainingKeysFindable(t *testing.T) {
	tr := newTestTree(t, 3, 3)

	const n = 40
	for i := int32(0); i < n; i++ {
		mustInsert(t, tr, i, rid(int64(i), 0))
	}

	for i := int32(0); i < n; i += 2 {
		removed, err := tr.Delete(i)
		require.NoError(t, err)
		assert.True(t, removed)
	}

	for i := int32(0); i < n; i++ {
		got, ok, err := tr.Get(i)
		require.NoError(t, err)
		if i%2 == 0 {
			assert.False(t, ok, "key %d should have been deleted", i)
		} else {
			require.True(t, ok, "key %d should still be present", i)
			assert.Equal(t, rid(int64(i), 0), got)
		}
	}
}

func TestTree_DeleteEverythingCollapsesRootToSingleLeaf(t *testing.T) {
	tr := newTestTree(t, 3, 3)

	const n = 30
	for i := int32(0); i < n; i++ {
		mustInsert(t, tr, i, rid(int64(i), 0))
	}
	for i := int32(0); i < n; i++ {
		removed, err := tr.Delete(i)
		require.NoError(t, err)
		assert.True(t, removed)
	}

	for i := int32(0); i < n; i++ {
		_, ok, err := tr.Get(i)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	root, err := tr.fetchNode(tr.Root())
	require.NoError(t, err)
	assert.True(t, root.isLeaf, "the root must have collapsed back to a single leaf")
	require.NoError(t, tr.releaseNode(root))
}

func TestTree_IsEmptyReflectsContents(t *testing.T) {
	tr := newTestTree(t, 3, 3)

	empty, err := tr.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty, "a freshly opened tree must start empty")

	mustInsert(t, tr, 1, rid(1, 0))
	empty, err = tr.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)

	removed, err := tr.Delete(1)
	require.NoError(t, err)
	require.True(t, removed)

	empty, err = tr.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty, "deleting the last key must make the tree empty again")
}
