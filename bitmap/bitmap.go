// Package bitmap provides the compressed sorted-integer-set used by all
// positional and length indexes.
package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/likedex/core"
)

// Set implements a 32-bit Roaring Bitmap over internal slots.
// It wraps the official roaring implementation; the hybrid
// array/run/bitmap container selection happens inside it.
//
// All operations are total and safe on empty operands. Iteration is
// always ascending.
type Set struct {
	rb *roaring.Bitmap
}

// New creates a new empty set.
func New() *Set {
	return &Set{
		rb: roaring.New(),
	}
}

// Add adds a slot to the set.
func (s *Set) Add(slot core.Slot) {
	s.rb.Add(uint32(slot))
}

// AddRange adds all slots in [lo, hi) to the set.
func (s *Set) AddRange(lo, hi core.Slot) {
	s.rb.AddRange(uint64(lo), uint64(hi))
}

// Remove removes a slot from the set.
func (s *Set) Remove(slot core.Slot) {
	s.rb.Remove(uint32(slot))
}

// Contains checks if a slot is in the set.
func (s *Set) Contains(slot core.Slot) bool {
	return s.rb.Contains(uint32(slot))
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of elements in the set.
func (s *Set) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{
		rb: s.rb.Clone(),
	}
}

// Clear removes all elements from the set.
func (s *Set) Clear() {
	s.rb.Clear()
}

// And computes the intersection with other in place.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Or computes the union with other in place.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// AndNot removes all elements of other from the set in place.
func (s *Set) AndNot(other *Set) {
	s.rb.AndNot(other.rb)
}

// Iterator returns an ascending iterator over the set.
func (s *Set) Iterator() iter.Seq[core.Slot] {
	return func(yield func(core.Slot) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(core.Slot(it.Next())) {
				return
			}
		}
	}
}

// ToArray returns the elements of the set in ascending order.
func (s *Set) ToArray() []core.Slot {
	out := make([]core.Slot, 0, s.rb.GetCardinality())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, core.Slot(it.Next()))
	}
	return out
}

// GetSizeInBytes returns the size of the set in bytes.
func (s *Set) GetSizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}
