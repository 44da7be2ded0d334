package replacer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUK_RejectsBadParams(t *testing.T) {
	assert.Panics(t, func() { New(7, 0) })
	assert.Panics(t, func() { New(0, 2) })
}

// TestLRUK_Scenario replays a canonical access sequence: frames
// accumulate history and cache entries, get toggled evictable, and the
// resulting eviction order reflects the k=2 history-then-LRU policy.
func TestLRUK_Scenario(t *testing.T) {
	r := New(7, 2)

	for f := FrameID(1); f <= 6; f++ {
		r.RecordAccess(f)
	}
	for f := FrameID(1); f <= 6; f++ {
		r.SetEvictable(f, true)
	}
	assert.Equal(t, 6, r.Size())

	for f := FrameID(1); f <= 6; f++ {
		r.RecordAccess(f)
	}

	r.SetEvictable(1, false)
	r.SetEvictable(1, true)
	assert.Equal(t, 6, r.Size())

	r.RecordAccess(6)
	r.RecordAccess(1)

	wantOrder := []FrameID{2, 3, 4, 5, 6, 1}
	for _, want := range wantOrder {
		got, ok := r.Evict()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := r.Evict()
	assert.False(t, ok, "replacer should be empty after evicting every tracked frame")
	assert.Equal(t, 0, r.Size())
}

func TestLRUK_HistoryPreferredOverCache(t *testing.T) {
	r := New(4, 2)

	r.RecordAccess(1) // promoted to cache below
	r.RecordAccess(1)
	r.SetEvictable(1, true)

	r.RecordAccess(2) // stays in history (only one access)
	r.SetEvictable(2, true)

	got, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, FrameID(2), got, "a frame still in the history queue is preferred over one in the cache queue")
}

func TestLRUK_NonEvictableFramesAreSkipped(t *testing.T) {
	r := New(4, 1)

	r.RecordAccess(1)
	r.RecordAccess(2)
	r.SetEvictable(1, false)
	r.SetEvictable(2, true)

	got, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, FrameID(2), got)

	_, ok = r.Evict()
	assert.False(t, ok, "frame 1 is still pinned (non-evictable) and must not be chosen")
}

func TestLRUK_RemoveRequiresEvictable(t *testing.T) {
	r := New(4, 2)
	r.RecordAccess(1)

	r.Remove(1) // not evictable yet: no-op
	assert.Equal(t, 0, r.Size())

	r.SetEvictable(1, true)
	assert.Equal(t, 1, r.Size())
	r.Remove(1)
	assert.Equal(t, 0, r.Size())

	_, ok := r.Evict()
	assert.False(t, ok)
}

func TestLRUK_EvictDoesNotDecrementSizeWhenNothingEvictable(t *testing.T) {
	r := New(4, 1)
	r.RecordAccess(1)
	r.SetEvictable(1, false)

	before := r.Size()
	_, ok := r.Evict()
	assert.False(t, ok)
	assert.Equal(t, before, r.Size(), "a failed Evict scan must not disturb the evictable count")
}
