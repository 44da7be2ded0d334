package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EmberDB/storage/types"
)

// countingManager wraps a Manager and counts WritePage calls that reach it,
// so tests can tell whether DedupeWriter actually skipped a redundant
// write instead of merely claiming to.
type countingManager struct {
	Manager
	writes int
}

func (c *countingManager) WritePage(id types.PageID, buf []byte) error {
	c.writes++
	return c.Manager.WritePage(id, buf)
}

func TestDedupeWriter_SkipsUnchangedWrite(t *testing.T) {
	inner := &countingManager{Manager: NewMemManager()}
	d, err := NewDedupeWriter(inner, 16)
	require.NoError(t, err)

	buf := make([]byte, types.PageSize)
	copy(buf, []byte("same-bytes"))

	require.NoError(t, d.WritePage(1, buf))
	require.NoError(t, d.WritePage(1, buf))
	require.NoError(t, d.WritePage(1, buf))

	assert.Equal(t, 1, inner.writes, "identical bytes written repeatedly should reach the disk exactly once")
}

func TestDedupeWriter_WritesChangedContent(t *testing.T) {
	inner := &countingManager{Manager: NewMemManager()}
	d, err := NewDedupeWriter(inner, 16)
	require.NoError(t, err)

	buf := make([]byte, types.PageSize)
	copy(buf, []byte("v1"))
	require.NoError(t, d.WritePage(1, buf))

	copy(buf, []byte("v2"))
	require.NoError(t, d.WritePage(1, buf))

	assert.Equal(t, 2, inner.writes)
}

func TestDedupeWriter_ReadPassesThrough(t *testing.T) {
	inner := NewMemManager()
	d, err := NewDedupeWriter(inner, 16)
	require.NoError(t, err)

	id, err := d.AllocatePage()
	require.NoError(t, err)

	want := make([]byte, types.PageSize)
	copy(want, []byte("hello"))
	require.NoError(t, d.WritePage(id, want))

	got := make([]byte, types.PageSize)
	require.NoError(t, d.ReadPage(id, got))
	assert.Equal(t, want, got)
}
