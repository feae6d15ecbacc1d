package likedex

import (
	"errors"
	"sort"

	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/core"
	"github.com/hupe1980/likedex/pattern"
)

// Predicate is one LIKE/ILIKE condition against a single column.
type Predicate struct {
	// Column is the 0-based index of the column to match.
	Column int

	// Pattern is the LIKE pattern. % matches any run of bytes, _ any
	// single byte; \ escapes the next byte.
	Pattern string

	// CaseFold evaluates the pattern case-insensitively (ILIKE).
	CaseFold bool

	// Negate inverts the predicate (NOT LIKE / NOT ILIKE).
	Negate bool
}

// plannedPredicate pairs a predicate with its analysis and original
// position. Planning never reorders across equal priorities except by
// selectivity, so permuting the input cannot change the result set,
// only the evaluation order.
type plannedPredicate struct {
	pred     Predicate
	analyzed *pattern.Analyzed
	order    int
}

// planPredicates validates and analyzes every predicate before any
// evaluation starts, then orders them cheapest-first: by priority
// tier, then selectivity score, then declaration order (stable).
func (ix *Index) planPredicates(preds []Predicate) ([]plannedPredicate, error) {
	planned := make([]plannedPredicate, 0, len(preds))

	for i, p := range preds {
		if p.Column < 0 || p.Column >= len(ix.columns) {
			return nil, ErrColumnOutOfRange
		}
		if p.CaseFold && !ix.opts.CaseFolding {
			return nil, ErrCaseFoldingDisabled
		}
		if len(p.Pattern) > ix.opts.MaxPatternLength {
			return nil, &ErrInvalidPattern{Pattern: p.Pattern, Reason: "pattern too long"}
		}

		pat := p.Pattern
		if p.CaseFold {
			pat = core.Fold(pat)
		}
		analyzed, err := pattern.Analyze(pat)
		if err != nil {
			reason := "malformed pattern"
			if errors.Is(err, pattern.ErrMalformedEscape) {
				reason = "malformed escape"
			}
			return nil, &ErrInvalidPattern{Pattern: p.Pattern, Reason: reason, cause: err}
		}

		planned = append(planned, plannedPredicate{pred: p, analyzed: analyzed, order: i})
	}

	sort.SliceStable(planned, func(a, b int) bool {
		pa, pb := planned[a], planned[b]
		if pa.analyzed.Priority != pb.analyzed.Priority {
			return pa.analyzed.Priority < pb.analyzed.Priority
		}
		if pa.analyzed.Selectivity != pb.analyzed.Selectivity {
			return pa.analyzed.Selectivity < pb.analyzed.Selectivity
		}
		return pa.order < pb.order
	})

	return planned, nil
}

// evaluateChain intersects the planned predicates in order, stopping
// as soon as the accumulator is empty. The returned set may still
// contain tombstoned slots; callers subtract those once at the end.
func (ix *Index) evaluateChain(planned []plannedPredicate) *bitmap.Set {
	if len(planned) == 0 {
		return ix.universe()
	}

	var acc *bitmap.Set
	for _, pp := range planned {
		res := ix.columns[pp.pred.Column].Execute(pp.analyzed, pp.pred.CaseFold)

		if pp.pred.Negate {
			inv := ix.universe()
			inv.AndNot(res)
			res = inv
		}

		if acc == nil {
			acc = res
		} else {
			acc.And(res)
		}
		if acc.IsEmpty() {
			break
		}
	}
	return acc
}

// universe returns the full slot range, tombstones included.
func (ix *Index) universe() *bitmap.Set {
	u := bitmap.New()
	if n := ix.records.SlotCount(); n > 0 {
		u.AddRange(0, core.Slot(n))
	}
	return u
}

// excludeTombstones subtracts tombstoned slots. Applied exactly once
// per query, after the full predicate intersection (or union).
func (ix *Index) excludeTombstones(set *bitmap.Set) {
	if ix.records.TombstoneCount() > 0 {
		set.AndNot(ix.records.Tombstones())
	}
}
