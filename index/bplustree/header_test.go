package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EmberDB/storage/bufferpool"
	"EmberDB/storage/disk"
	"EmberDB/storage/types"
)

func newTestBufferPool(t *testing.T) *bufferpool.Manager {
	t.Helper()
	mm := disk.NewMemManager()
	return bufferpool.New(8, 2, mm)
}

func TestHeaderPage_RootMissingByDefault(t *testing.T) {
	bp := newTestBufferPool(t)
	h, err := OpenHeaderPage(bp)
	require.NoError(t, err)

	_, ok := h.Root("orders")
	assert.False(t, ok)
	assert.Empty(t, h.Names())
}

func TestHeaderPage_SetRootPersistsAcrossReopen(t *testing.T) {
	bp := newTestBufferPool(t)
	h, err := OpenHeaderPage(bp)
	require.NoError(t, err)

	require.NoError(t, h.SetRoot("orders", types.PageID(5)))
	require.NoError(t, h.SetRoot("customers", types.PageID(9)))

	reopened, err := OpenHeaderPage(bp)
	require.NoError(t, err)

	root, ok := reopened.Root("orders")
	assert.True(t, ok)
	assert.Equal(t, types.PageID(5), root)

	root, ok = reopened.Root("customers")
	assert.True(t, ok)
	assert.Equal(t, types.PageID(9), root)

	assert.ElementsMatch(t, []string{"orders", "customers"}, reopened.Names())
}

func TestHeaderPage_SetRootOverwritesExisting(t *testing.T) {
	bp := newTestBufferPool(t)
	h, err := OpenHeaderPage(bp)
	require.NoError(t, err)

	require.NoError(t, h.SetRoot("orders", types.PageID(1)))
	require.NoError(t, h.SetRoot("orders", types.PageID(2)))

	root, ok := h.Root("orders")
	assert.True(t, ok)
	assert.Equal(t, types.PageID(2), root)
}
