package column

import (
	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/pattern"
)

func cloneOrEmpty(set *bitmap.Set) *bitmap.Set {
	if set == nil {
		return bitmap.New()
	}
	return set.Clone()
}

// reachState tracks, for one literal part, the slots whose prefix of
// parts matched with this part ending at offset end. Windowed matching
// chains these states part by part.
type reachState struct {
	end int
	set *bitmap.Set
}

// matchMultiPart resolves patterns with several literal parts by
// iterative forward chaining: for each part, every feasible start
// offset is tried against the union of states that ended at or before
// it, bounding the work by parts x positions bitmap operations instead
// of enumerating match paths.
func (v *variant) matchMultiPart(a *pattern.Analyzed) *bitmap.Set {
	parts := a.Parts
	minLen := a.MinLen()
	if minLen > v.maxLen {
		return bitmap.New()
	}

	seed := v.atLeast(minLen)
	if seed == nil || seed.IsEmpty() {
		return bitmap.New()
	}

	var states []reachState
	next := 0

	if !a.StartsPercent {
		// First part is anchored at offset 0.
		first := v.matchPartAt(parts[0], 0)
		first.And(seed)
		if first.IsEmpty() {
			return first
		}
		states = []reachState{{end: parts[0].Len(), set: first}}
		next = 1
	} else {
		states = []reachState{{end: 0, set: seed.Clone()}}
	}

	for j := next; j < len(parts); j++ {
		part := parts[j]
		last := j == len(parts)-1

		if last && !a.EndsPercent {
			return v.matchFinalAtEnd(part, states)
		}

		states = v.advanceWindow(part, states, remainingLen(parts, j))
		if len(states) == 0 {
			return bitmap.New()
		}
	}

	// Trailing % (or no parts left to pin): union every reached state.
	result := bitmap.New()
	for _, st := range states {
		result.Or(st.set)
	}
	return result
}

// advanceWindow computes the reach states for part given the states of
// the previous part. Feasible starts range from the earliest previous
// end to the last offset that still leaves room for the remaining
// parts. A cumulative union folds in previous states as their end
// offsets become admissible.
func (v *variant) advanceWindow(part pattern.Part, prev []reachState, remaining int) []reachState {
	maxStart := v.maxLen - part.Len() - remaining
	if maxStart < 0 {
		return nil
	}

	var out []reachState
	cum := bitmap.New()
	pi := 0

	for s := prev[0].end; s <= maxStart; s++ {
		for pi < len(prev) && prev[pi].end <= s {
			cum.Or(prev[pi].set)
			pi++
		}
		if cum.IsEmpty() {
			continue
		}

		m := v.matchPartAt(part, s)
		if m.IsEmpty() {
			continue
		}
		m.And(cum)
		if m.IsEmpty() {
			continue
		}
		out = append(out, reachState{end: s + part.Len(), set: m})
	}
	return out
}

// matchFinalAtEnd pins the last literal part to the string's true end.
// Each previous state demands the value be long enough to fit the part
// after that state's end offset.
func (v *variant) matchFinalAtEnd(part pattern.Part, prev []reachState) *bitmap.Set {
	endMatch := v.matchPartAtEnd(part)
	if endMatch.IsEmpty() {
		return endMatch
	}

	result := bitmap.New()
	for _, st := range prev {
		ge := v.atLeast(st.end + part.Len())
		if ge == nil {
			continue
		}
		t := st.set.Clone()
		t.And(endMatch)
		if t.IsEmpty() {
			continue
		}
		t.And(ge)
		result.Or(t)
	}
	return result
}

func remainingLen(parts []pattern.Part, j int) int {
	n := 0
	for _, p := range parts[j+1:] {
		n += p.Len()
	}
	return n
}
