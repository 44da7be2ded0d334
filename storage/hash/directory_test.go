package hash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityHash is a deterministic, fully predictable HashFunc used so test
// expectations can be derived by hand instead of depending on whatever
// distribution a real hash function happens to produce for small ints.
func identityHash(k int) uint64 { return uint64(k) }

func TestDirectory_FindMissing(t *testing.T) {
	d := New[int, string](2, identityHash)
	_, ok := d.Find(42)
	assert.False(t, ok)
}

func TestDirectory_InsertFindOverwrite(t *testing.T) {
	d := New[int, string](2, identityHash)
	d.Insert(1, "a")
	v, ok := d.Find(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	d.Insert(1, "b")
	v, ok = d.Find(1)
	require.True(t, ok)
	assert.Equal(t, "b", v, "Insert must overwrite an existing key rather than duplicate it")
}

// TestDirectory_SplitSequence traces the exact split sequence an identity
// hash produces for bucket_size=2 inserting 1..5, verifying the directory
// doubles when the overflowing bucket's local depth has caught up to the
// global depth (true for both splits here), and that NumBuckets counts
// net +1 per split.
func TestDirectory_SplitSequence(t *testing.T) {
	d := New[int, string](2, identityHash)
	assert.EqualValues(t, 0, d.GlobalDepth())
	assert.Equal(t, 1, d.NumBuckets())

	d.Insert(1, "1")
	d.Insert(2, "2")
	assert.EqualValues(t, 0, d.GlobalDepth(), "two keys fit in one bucket_size=2 bucket, no split yet")
	assert.Equal(t, 1, d.NumBuckets())

	d.Insert(3, "3") // overflows the single bucket: one split
	assert.EqualValues(t, 1, d.GlobalDepth())
	assert.Equal(t, 2, d.NumBuckets())

	for _, k := range []int{1, 2, 3} {
		v, ok := d.Find(k)
		require.True(t, ok, "key %d lost during split", k)
		assert.Equal(t, fmt.Sprint(k), v)
	}

	d.Insert(4, "4") // lands in the other half, no split
	assert.EqualValues(t, 1, d.GlobalDepth())
	assert.Equal(t, 2, d.NumBuckets())

	d.Insert(5, "5") // overflows its bucket again: second split, depth 2
	assert.EqualValues(t, 2, d.GlobalDepth())
	assert.Equal(t, 3, d.NumBuckets())

	for _, k := range []int{1, 2, 3, 4, 5} {
		v, ok := d.Find(k)
		require.True(t, ok, "key %d lost after second split", k)
		assert.Equal(t, fmt.Sprint(k), v)
	}
}

func TestDirectory_RemoveFirstMatchOnly(t *testing.T) {
	d := New[int, string](4, identityHash)
	d.Insert(10, "x")

	assert.True(t, d.Remove(10))
	_, ok := d.Find(10)
	assert.False(t, ok)

	assert.False(t, d.Remove(10), "removing an absent key a second time reports false")
}

func TestDirectory_RemoveDoesNotMergeBuckets(t *testing.T) {
	d := New[int, string](2, identityHash)
	d.Insert(1, "1")
	d.Insert(2, "2")
	d.Insert(3, "3") // forces a split, NumBuckets -> 2

	before := d.NumBuckets()
	d.Remove(1)
	d.Remove(2)
	d.Remove(3)

	assert.Equal(t, before, d.NumBuckets(), "Remove must never merge buckets back together")
}

func TestDirectory_LocalDepthNeverExceedsGlobalDepth(t *testing.T) {
	d := New[int, string](2, identityHash)
	for i := 0; i < 20; i++ {
		d.Insert(i, "v")
	}
	for i := 0; i < 20; i++ {
		assert.LessOrEqual(t, d.LocalDepth(i), d.GlobalDepth())
	}
}
