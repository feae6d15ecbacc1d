// Package column implements the per-column positional bitmap index and
// the pattern executors that evaluate analyzed LIKE patterns against it.
//
// For every indexed string the column records, per byte value, which
// slots carry that byte at a given forward offset (0-based from the
// start) and at a given reverse offset (negative, from the end). Two
// length families complete the picture: exact-length bitmaps and
// at-least-length bitmaps. A case-folded twin of all structures backs
// ILIKE evaluation.
package column

import (
	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/core"
)

// byteRange is the number of distinct byte values a position index is
// keyed by.
const byteRange = 256

// posIndex is a sparse mapping from position to the set of slots that
// carry one particular byte value there. Forward positions are
// 0-based offsets; reverse positions are negative offsets from the end
// (-1 is the last byte).
type posIndex struct {
	entries map[int]*bitmap.Set
}

func (p *posIndex) get(pos int) *bitmap.Set {
	if p.entries == nil {
		return nil
	}
	return p.entries[pos]
}

func (p *posIndex) add(pos int, slot core.Slot) {
	if p.entries == nil {
		p.entries = make(map[int]*bitmap.Set)
	}
	set := p.entries[pos]
	if set == nil {
		set = bitmap.New()
		p.entries[pos] = set
	}
	set.Add(slot)
}

func (p *posIndex) remove(pos int, slot core.Slot) {
	if p.entries == nil {
		return
	}
	if set := p.entries[pos]; set != nil {
		set.Remove(slot)
	}
}

// variant holds one complete set of positional and length structures.
// Every column carries a case-sensitive variant and, optionally, a
// byte-folded one.
type variant struct {
	forward [byteRange]posIndex
	reverse [byteRange]posIndex

	// lengthExact[k] holds slots whose indexed value is exactly k
	// bytes long; lengthAtLeast[k] holds slots with at least k bytes.
	// Invariant: lengthAtLeast[k] is a superset of lengthAtLeast[k+1],
	// and lengthAtLeast[0] covers every indexed slot.
	lengthExact   []*bitmap.Set
	lengthAtLeast []*bitmap.Set

	// maxLen is the longest indexed value seen so far.
	maxLen int
}

func newVariant() variant {
	return variant{
		lengthExact:   []*bitmap.Set{bitmap.New()},
		lengthAtLeast: []*bitmap.Set{bitmap.New()},
	}
}

// grow extends the length families to cover values of length n.
func (v *variant) grow(n int) {
	for len(v.lengthExact) <= n {
		v.lengthExact = append(v.lengthExact, bitmap.New())
		v.lengthAtLeast = append(v.lengthAtLeast, bitmap.New())
	}
	if n > v.maxLen {
		v.maxLen = n
	}
}

// exact returns the exact-length set for k; absent entries yield nil.
func (v *variant) exact(k int) *bitmap.Set {
	if k < 0 || k >= len(v.lengthExact) {
		return nil
	}
	return v.lengthExact[k]
}

// atLeast returns the at-least-length set for k; absent entries yield
// nil (no indexed value is that long).
func (v *variant) atLeast(k int) *bitmap.Set {
	if k < 0 || k > v.maxLen {
		return nil
	}
	return v.lengthAtLeast[k]
}

func (v *variant) add(slot core.Slot, val []byte) {
	n := len(val)
	v.grow(n)

	for i := 0; i < n; i++ {
		b := val[i]
		v.forward[b].add(i, slot)
		v.reverse[b].add(-(n - i), slot)
	}

	v.lengthExact[n].Add(slot)
	for k := 0; k <= n; k++ {
		v.lengthAtLeast[k].Add(slot)
	}
}

func (v *variant) remove(slot core.Slot, val []byte) {
	n := len(val)

	for i := 0; i < n; i++ {
		b := val[i]
		v.forward[b].remove(i, slot)
		v.reverse[b].remove(-(n - i), slot)
	}

	if n < len(v.lengthExact) {
		v.lengthExact[n].Remove(slot)
	}
	for k := 0; k <= n && k < len(v.lengthAtLeast); k++ {
		v.lengthAtLeast[k].Remove(slot)
	}
}

// Index is the bitmap index for one text column. Slots are assigned by
// the record store; the same slot denotes the same logical row in
// every column of a multi-column index.
type Index struct {
	cap    int
	folded bool

	sens variant
	fold variant
}

// New creates an empty column index. maxIndexedLen caps how many
// leading bytes of a value participate positionally; longer values are
// indexed as their prefix of that length. When caseFolding is set a
// byte-folded twin of every structure is maintained for ILIKE.
func New(maxIndexedLen int, caseFolding bool) *Index {
	return &Index{
		cap:    maxIndexedLen,
		folded: caseFolding,
		sens:   newVariant(),
		fold:   newVariant(),
	}
}

// truncate clips a value to the indexable prefix. Truncation is
// deterministic: a value longer than the cap behaves exactly like its
// prefix everywhere in this column.
func (ix *Index) truncate(val string) []byte {
	if len(val) > ix.cap {
		val = val[:ix.cap]
	}
	return []byte(val)
}

// Add indexes value under slot in both variants.
func (ix *Index) Add(slot core.Slot, val string) {
	b := ix.truncate(val)
	ix.sens.add(slot, b)
	if ix.folded {
		ix.fold.add(slot, foldBytes(b))
	}
}

// Remove withdraws slot's entries for value from every bitmap it
// touches. Used when a freed slot is reassigned; plain deletes only
// tombstone the slot and leave the bitmaps alone.
func (ix *Index) Remove(slot core.Slot, val string) {
	b := ix.truncate(val)
	ix.sens.remove(slot, b)
	if ix.folded {
		ix.fold.remove(slot, foldBytes(b))
	}
}

// MaxLen returns the longest indexed value length for this column.
func (ix *Index) MaxLen() int {
	return ix.sens.maxLen
}

// CaseFolded reports whether the folded variant is maintained.
func (ix *Index) CaseFolded() bool {
	return ix.folded
}

// variantFor selects the variant to evaluate against.
func (ix *Index) variantFor(caseFold bool) *variant {
	if caseFold {
		return &ix.fold
	}
	return &ix.sens
}

func foldBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = core.FoldByte(c)
	}
	return out
}
