// Package pattern parses and classifies SQL LIKE/ILIKE patterns.
//
// A pattern is split on unescaped % wildcards into literal parts. Each
// part keeps a per-byte wildcard mask so that _ inside a literal
// segment stays a per-position constraint. The analyzer derives a
// typed descriptor with a selectivity estimate and a priority tier;
// the multi-predicate planner orders predicates by these.
package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEscape is returned when a pattern ends with a lone
	// escape character.
	ErrMalformedEscape = errors.New("pattern ends with unfinished escape")
)

// Escape is the escape character recognized inside patterns. An
// escaped byte always becomes a literal, so `\%`, `\_` and `\\` match
// the bytes %, _ and \ respectively.
const Escape = '\\'

// Part is one literal segment of a pattern between % wildcards.
type Part struct {
	// Bytes holds the segment's bytes. Positions flagged in Wild are
	// placeholders for the _ wildcard and their byte value is 0.
	Bytes []byte
	// Wild marks positions occupied by the _ wildcard.
	Wild []bool
}

// Len returns the number of byte positions the part spans.
func (p Part) Len() int { return len(p.Bytes) }

// Concrete returns the number of non-wildcard bytes in the part.
func (p Part) Concrete() int {
	n := 0
	for _, w := range p.Wild {
		if !w {
			n++
		}
	}
	return n
}

// AllWild reports whether every position of the part is a _ wildcard.
func (p Part) AllWild() bool { return p.Concrete() == 0 }

// Parsed is the structural decomposition of a pattern.
type Parsed struct {
	// Parts are the literal segments in order. Consecutive % collapse,
	// so there is never an empty part.
	Parts []Part

	// StartsPercent is true when the pattern begins with %.
	StartsPercent bool
	// EndsPercent is true when the pattern ends with %.
	EndsPercent bool

	// HasPercent is true when the pattern contains at least one %.
	HasPercent bool
	// PercentCount is the number of % runs.
	PercentCount int
	// UnderscoreCount is the total number of _ wildcards.
	UnderscoreCount int
	// ConcreteChars is the total number of literal bytes.
	ConcreteChars int
}

// PartitionCount returns the number of literal parts.
func (p *Parsed) PartitionCount() int { return len(p.Parts) }

// MinLen returns the minimum string length the pattern can match: the
// sum of all part lengths.
func (p *Parsed) MinLen() int {
	n := 0
	for _, part := range p.Parts {
		n += part.Len()
	}
	return n
}

// Parse decomposes a pattern into literal parts and wildcard counts.
// It fails only on a malformed escape; length limits are enforced by
// the caller before evaluation.
func Parse(pat string) (*Parsed, error) {
	parsed := &Parsed{}

	var cur Part
	flush := func() {
		if cur.Len() > 0 {
			parsed.Parts = append(parsed.Parts, cur)
			cur = Part{}
		}
	}

	inPercentRun := false
	for i := 0; i < len(pat); i++ {
		switch b := pat[i]; b {
		case '%':
			parsed.HasPercent = true
			if !inPercentRun {
				parsed.PercentCount++
				inPercentRun = true
			}
			if i == 0 {
				parsed.StartsPercent = true
			}
			if i == len(pat)-1 {
				parsed.EndsPercent = true
			}
			flush()
		case '_':
			inPercentRun = false
			parsed.UnderscoreCount++
			cur.Bytes = append(cur.Bytes, 0)
			cur.Wild = append(cur.Wild, true)
		case Escape:
			if i == len(pat)-1 {
				return nil, fmt.Errorf("%w: %q", ErrMalformedEscape, pat)
			}
			i++
			inPercentRun = false
			parsed.ConcreteChars++
			cur.Bytes = append(cur.Bytes, pat[i])
			cur.Wild = append(cur.Wild, false)
		default:
			inPercentRun = false
			parsed.ConcreteChars++
			cur.Bytes = append(cur.Bytes, b)
			cur.Wild = append(cur.Wild, false)
		}
	}
	flush()

	return parsed, nil
}
