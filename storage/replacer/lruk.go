// Package replacer implements the LRU-K eviction replacer. It tracks
// access history for a bounded set of frames and, on demand, picks a
// victim to evict — independent of page semantics; the buffer pool is the
// only caller that knows what a "frame" actually holds.
package replacer

import (
	"container/list"
	"sync"

	"EmberDB/internal/assert"
)

// FrameID identifies a tracked frame. Deliberately distinct from
// types.FrameID: the replacer has no notion of a buffer pool frame array,
// only of opaque ids a caller reports accesses for.
type FrameID int

// LRUK tracks up to capacity frames under a k-distance policy: frames
// touched fewer than k times live in a FIFO history queue and are
// preferred for eviction (their "backward k-distance" is infinite);
// frames touched k or more times live in a true LRU queue.
type LRUK struct {
	mu       sync.Mutex
	k        int
	capacity int

	history     *list.List
	historyElem map[FrameID]*list.Element

	cache     *list.List
	cacheElem map[FrameID]*list.Element

	counter   map[FrameID]int
	evictable map[FrameID]bool

	evictableCount int
}

// New returns an LRU-K replacer for up to capacity frames with distance
// parameter k (k >= 1).
func New(capacity, k int) *LRUK {
	assert.That(k >= 1, "replacer.New: k must be >= 1, got %d", k)
	assert.That(capacity > 0, "replacer.New: capacity must be positive, got %d", capacity)
	return &LRUK{
		k:           k,
		capacity:    capacity,
		history:     list.New(),
		historyElem: make(map[FrameID]*list.Element, capacity),
		cache:       list.New(),
		cacheElem:   make(map[FrameID]*list.Element, capacity),
		counter:     make(map[FrameID]int, capacity),
		evictable:   make(map[FrameID]bool, capacity),
	}
}

// RecordAccess records one more access to frame f: the first access files
// f into the history queue (non-evictable by default); the k-th access
// promotes it into the cache queue; every access after that moves it to
// the back of the cache queue.
func (r *LRUK) RecordAccess(f FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter[f]++
	c := r.counter[f]

	switch {
	case c == 1:
		r.evictable[f] = false
		if r.k == 1 {
			// The first access is already the k-th: straight to the cache.
			r.cacheElem[f] = r.cache.PushBack(f)
		} else {
			r.historyElem[f] = r.history.PushBack(f)
		}
	case c == r.k:
		if elem, ok := r.historyElem[f]; ok {
			r.history.Remove(elem)
			delete(r.historyElem, f)
		}
		r.cacheElem[f] = r.cache.PushBack(f)
	case c > r.k:
		if elem, ok := r.cacheElem[f]; ok {
			r.cache.MoveToBack(elem)
		}
	}
	// 1 < c < k: frame stays put in the history queue, ordered by its
	// first access, not this one.
}

// SetEvictable marks f evictable or not. Idempotent: setting the same
// value twice is a no-op, including for f's effect on Size().
func (r *LRUK) SetEvictable(f FrameID, flag bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, tracked := r.evictable[f]
	if !tracked || cur == flag {
		return
	}
	r.evictable[f] = flag
	if flag {
		r.evictableCount++
	} else {
		r.evictableCount--
	}
}

// Remove drops f from the replacer entirely. A no-op unless f is currently
// evictable.
func (r *LRUK) Remove(f FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.evictable[f] {
		return
	}
	if elem, ok := r.historyElem[f]; ok {
		r.history.Remove(elem)
		delete(r.historyElem, f)
	}
	if elem, ok := r.cacheElem[f]; ok {
		r.cache.Remove(elem)
		delete(r.cacheElem, f)
	}
	delete(r.counter, f)
	delete(r.evictable, f)
	r.evictableCount--
}

// Evict selects and removes a victim frame: the front-most evictable entry
// of the history queue, or, failing that, the front-most evictable entry
// of the cache queue. Reports false if nothing is evictable.
//
// The evictable-size counter is only decremented once a victim has
// actually been found — scanning both queues and finding nothing
// evictable leaves Size() unchanged.
func (r *LRUK) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for e := r.history.Front(); e != nil; e = e.Next() {
		f := e.Value.(FrameID)
		if r.evictable[f] {
			r.history.Remove(e)
			delete(r.historyElem, f)
			r.finishEvict(f)
			return f, true
		}
	}
	for e := r.cache.Front(); e != nil; e = e.Next() {
		f := e.Value.(FrameID)
		if r.evictable[f] {
			r.cache.Remove(e)
			delete(r.cacheElem, f)
			r.finishEvict(f)
			return f, true
		}
	}
	return 0, false
}

func (r *LRUK) finishEvict(f FrameID) {
	delete(r.counter, f)
	delete(r.evictable, f)
	r.evictableCount--
}

// Size returns the number of currently evictable tracked frames.
func (r *LRUK) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableCount
}
