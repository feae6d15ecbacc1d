// Package store implements the record store: a slot arena mapping
// dense internal slots to external identifiers and their cached column
// values, with a free-list and tombstone set for lazy deletion.
package store

import (
	"fmt"

	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/core"
)

// Counters accumulates CRUD activity. Cleanup does not reset them.
type Counters struct {
	Inserts  uint64
	Updates  uint64
	Deletes  uint64
	Cleanups uint64
}

// Store owns the slot numbering shared by every column index. A slot
// is allocated on insert (reused from the free-list or appended),
// tombstoned on delete, and physically reclaimed only by Compact.
type Store struct {
	numColumns int

	// values is column-major: values[col][slot] is the cached text the
	// column indexed for that slot. Cached text survives tombstoning
	// so a reused slot can be withdrawn from the bitmaps it touched.
	values [][]string
	ids    []uint64
	slotOf map[uint64]core.Slot

	free       []core.Slot
	tombstones *bitmap.Set
	live       int

	counters Counters
}

// New creates an empty store for numColumns columns.
func New(numColumns int) *Store {
	values := make([][]string, numColumns)
	return &Store{
		numColumns: numColumns,
		values:     values,
		slotOf:     make(map[uint64]core.Slot),
		tombstones: bitmap.New(),
	}
}

// NumColumns returns the number of columns per record.
func (s *Store) NumColumns() int { return s.numColumns }

// Lookup returns the slot for an external id.
func (s *Store) Lookup(id uint64) (core.Slot, bool) {
	slot, ok := s.slotOf[id]
	return slot, ok
}

// Contains reports whether an external id is live in the store.
func (s *Store) Contains(id uint64) bool {
	_, ok := s.slotOf[id]
	return ok
}

// Insert assigns a slot to id and caches its column values. When a
// freed slot is reused, the tombstone is lifted and the previous
// record's cached values are returned so the caller can withdraw them
// from the column bitmaps. The caller must have verified id is not
// already present.
func (s *Store) Insert(id uint64, vals []string) (slot core.Slot, old []string, reused bool) {
	if _, ok := s.slotOf[id]; ok {
		panic(fmt.Sprintf("store: insert of live id %d", id))
	}
	if len(vals) != s.numColumns {
		panic(fmt.Sprintf("store: %d values for %d columns", len(vals), s.numColumns))
	}

	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
		if !s.tombstones.Contains(slot) {
			panic(fmt.Sprintf("store: free slot %d not tombstoned", slot))
		}
		s.tombstones.Remove(slot)

		old = make([]string, s.numColumns)
		for c := range s.values {
			old[c] = s.values[c][slot]
		}
		reused = true
	} else {
		slot = core.Slot(len(s.ids))
		s.ids = append(s.ids, 0)
		for c := range s.values {
			s.values[c] = append(s.values[c], "")
		}
	}

	s.ids[slot] = id
	for c := range s.values {
		s.values[c][slot] = vals[c]
	}
	s.slotOf[id] = slot
	s.live++
	s.counters.Inserts++

	return slot, old, reused
}

// Delete tombstones the record for id and pushes its slot onto the
// free-list. The slot stays present in every bitmap its value touched;
// queries exclude it via the tombstone set. Returns false when id is
// unknown.
func (s *Store) Delete(id uint64) (core.Slot, bool) {
	slot, ok := s.slotOf[id]
	if !ok {
		return 0, false
	}
	if s.tombstones.Contains(slot) {
		panic(fmt.Sprintf("store: double free of slot %d", slot))
	}

	delete(s.slotOf, id)
	s.tombstones.Add(slot)
	s.free = append(s.free, slot)
	s.live--
	s.counters.Deletes++

	return slot, true
}

// CountUpdate bumps the update counter. Updates are performed by the
// engine as delete + insert; the individual counters are adjusted back
// so an update is not double-counted.
func (s *Store) CountUpdate() {
	s.counters.Inserts--
	s.counters.Deletes--
	s.counters.Updates++
}

// IDAt returns the external id stored at slot.
func (s *Store) IDAt(slot core.Slot) uint64 {
	return s.ids[slot]
}

// ValueAt returns the cached text for one column at slot.
func (s *Store) ValueAt(col int, slot core.Slot) string {
	return s.values[col][slot]
}

// Tombstones exposes the tombstone set for query-time exclusion. The
// caller must not mutate it.
func (s *Store) Tombstones() *bitmap.Set { return s.tombstones }

// LiveCount returns the number of live (non-tombstoned) records.
func (s *Store) LiveCount() int { return s.live }

// SlotCount returns the size of the slot table including tombstones.
func (s *Store) SlotCount() int { return len(s.ids) }

// FreeCount returns the number of slots awaiting reuse.
func (s *Store) FreeCount() int { return len(s.free) }

// TombstoneCount returns the number of tombstoned slots.
func (s *Store) TombstoneCount() int { return int(s.tombstones.Cardinality()) }

// CountersSnapshot returns the accumulated CRUD counters.
func (s *Store) CountersSnapshot() Counters { return s.counters }

// CountCleanup bumps the cleanup counter.
func (s *Store) CountCleanup() { s.counters.Cleanups++ }

// Compact renumbers live slots densely in ascending slot order,
// clears the tombstone set and free-list, and invokes fn once per live
// record with its new slot. The caller rebuilds the column bitmaps
// inside fn. CRUD counters survive compaction.
func (s *Store) Compact(fn func(slot core.Slot, id uint64, vals []string)) {
	newIDs := make([]uint64, 0, s.live)
	newValues := make([][]string, s.numColumns)
	for c := range newValues {
		newValues[c] = make([]string, 0, s.live)
	}
	newSlotOf := make(map[uint64]core.Slot, s.live)

	for old := 0; old < len(s.ids); old++ {
		oldSlot := core.Slot(old)
		if s.tombstones.Contains(oldSlot) {
			continue
		}
		newSlot := core.Slot(len(newIDs))
		id := s.ids[oldSlot]

		vals := make([]string, s.numColumns)
		for c := range s.values {
			vals[c] = s.values[c][oldSlot]
			newValues[c] = append(newValues[c], vals[c])
		}
		newIDs = append(newIDs, id)
		newSlotOf[id] = newSlot

		fn(newSlot, id, vals)
	}

	s.ids = newIDs
	s.values = newValues
	s.slotOf = newSlotOf
	s.free = s.free[:0]
	s.tombstones = bitmap.New()
}
