package column

import (
	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/pattern"
)

// Execute evaluates one analyzed pattern against this column and
// returns the matching slots. The result may still contain tombstoned
// slots; the planner subtracts those once after the full predicate
// intersection. caseFold selects the byte-folded variant (the caller
// must have folded the pattern itself before analysis).
func (ix *Index) Execute(a *pattern.Analyzed, caseFold bool) *bitmap.Set {
	v := ix.variantFor(caseFold)

	switch a.Kind {
	case pattern.KindPureEmpty:
		return cloneOrEmpty(v.exact(0))

	case pattern.KindPureWildcard:
		if a.HasPercent {
			return cloneOrEmpty(v.atLeast(a.UnderscoreCount))
		}
		return cloneOrEmpty(v.exact(a.UnderscoreCount))

	case pattern.KindExact:
		result := v.matchPartAt(a.Parts[0], 0)
		if result.IsEmpty() {
			return result
		}
		exact := v.exact(a.Parts[0].Len())
		if exact == nil {
			return bitmap.New()
		}
		result.And(exact)
		return result

	case pattern.KindPrefix:
		return v.matchPartAt(a.Parts[0], 0)

	case pattern.KindSuffix:
		return v.matchPartAtEnd(a.Parts[0])

	case pattern.KindSubstring:
		return v.matchSubstring(a.Parts[0])

	case pattern.KindInfix:
		return v.matchInfix(a.Parts[0], a.Parts[1])

	case pattern.KindMultiPart:
		return v.matchMultiPart(a)

	default:
		return bitmap.New()
	}
}

// matchSubstring resolves a single enclosed literal ("%abc%") by
// unioning its match at every feasible start offset.
func (v *variant) matchSubstring(part pattern.Part) *bitmap.Set {
	result := bitmap.New()
	for s := 0; s <= v.maxLen-part.Len(); s++ {
		m := v.matchPartAt(part, s)
		result.Or(m)
	}
	return result
}

// matchInfix resolves "abc%def": the forward-anchored prefix AND the
// reverse-anchored suffix, further constrained to values long enough
// to hold both without overlap.
func (v *variant) matchInfix(prefix, suffix pattern.Part) *bitmap.Set {
	result := v.matchPartAt(prefix, 0)
	if result.IsEmpty() {
		return result
	}

	end := v.matchPartAtEnd(suffix)
	result.And(end)
	if result.IsEmpty() {
		return result
	}

	ge := v.atLeast(prefix.Len() + suffix.Len())
	if ge == nil {
		return bitmap.New()
	}
	result.And(ge)
	return result
}
