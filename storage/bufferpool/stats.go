package bufferpool

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"EmberDB/storage/types"
)

// Stats summarizes the pool's current occupancy.
type Stats struct {
	Resident int
	Pinned   int
	Dirty    int
	Free     int
	Capacity int
}

// Stats returns a snapshot of the pool's current occupancy.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Capacity: m.poolSize, Free: len(m.freeList)}
	for _, pg := range m.frames {
		if pg == nil {
			continue
		}
		s.Resident++
		if pg.PinCount > 0 {
			s.Pinned++
		}
		if pg.IsDirty {
			s.Dirty++
		}
	}
	return s
}

// Audit checks the invariants expected to hold between fetches: every
// frame is either on the free list or holds exactly one resident page,
// the two partitions never overlap, and the page table agrees with what
// is actually resident. It returns the first violation found, or nil.
//
// Audit is a diagnostic for tests, not a hot path — golang-set/v2 buys
// set-difference/intersection readability over hand-rolled map scans.
func (m *Manager) Audit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	free := mapset.NewSet[types.FrameID]()
	for _, fid := range m.freeList {
		if free.Contains(fid) {
			return fmt.Errorf("bufferpool.Audit: frame %d appears twice on the free list", fid)
		}
		free.Add(fid)
	}

	resident := mapset.NewSet[types.FrameID]()
	for i, pg := range m.frames {
		fid := types.FrameID(i)
		if pg == nil {
			continue
		}
		resident.Add(fid)

		got, ok := m.pageTable.Find(pg.ID)
		if !ok {
			return fmt.Errorf("bufferpool.Audit: frame %d holds page %d but the page table has no entry for it", fid, pg.ID)
		}
		if got != fid {
			return fmt.Errorf("bufferpool.Audit: page table maps page %d to frame %d, but it is resident in frame %d", pg.ID, got, fid)
		}
	}

	if overlap := free.Intersect(resident); overlap.Cardinality() != 0 {
		return fmt.Errorf("bufferpool.Audit: frames %v are on the free list and resident at once", overlap.ToSlice())
	}
	if total := free.Cardinality() + resident.Cardinality(); total != m.poolSize {
		return fmt.Errorf("bufferpool.Audit: %d free + %d resident frames != pool size %d", free.Cardinality(), resident.Cardinality(), m.poolSize)
	}
	return nil
}
