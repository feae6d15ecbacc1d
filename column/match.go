package column

import (
	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/pattern"
)

// matchPartAt resolves one literal part anchored at a fixed forward
// offset: the AND over its non-wildcard bytes of forward[b][start+i],
// constrained to values long enough to hold the part. Aborts to an
// empty set on the first empty intersection.
func (v *variant) matchPartAt(part pattern.Part, start int) *bitmap.Set {
	var result *bitmap.Set

	for i := 0; i < part.Len(); i++ {
		if part.Wild[i] {
			continue
		}
		set := v.forward[part.Bytes[i]].get(start + i)
		if set == nil {
			return bitmap.New()
		}
		if result == nil {
			result = set.Clone()
		} else {
			result.And(set)
			if result.IsEmpty() {
				return result
			}
		}
	}

	ge := v.atLeast(start + part.Len())
	if ge == nil {
		return bitmap.New()
	}
	if result == nil {
		// All-wildcard part: any value reaching past it matches.
		return ge.Clone()
	}
	result.And(ge)
	return result
}

// matchPartAtEnd resolves one literal part anchored at the string's
// true end via the reverse index: byte i of the part must sit at
// offset -(len-i) from the end.
func (v *variant) matchPartAtEnd(part pattern.Part) *bitmap.Set {
	var result *bitmap.Set
	n := part.Len()

	for i := 0; i < n; i++ {
		if part.Wild[i] {
			continue
		}
		set := v.reverse[part.Bytes[i]].get(-(n - i))
		if set == nil {
			return bitmap.New()
		}
		if result == nil {
			result = set.Clone()
		} else {
			result.And(set)
			if result.IsEmpty() {
				return result
			}
		}
	}

	ge := v.atLeast(n)
	if ge == nil {
		return bitmap.New()
	}
	if result == nil {
		return ge.Clone()
	}
	result.And(ge)
	return result
}
