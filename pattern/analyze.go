package pattern

// Kind classifies a pattern for executor dispatch. Each kind has one
// evaluation strategy; there is no dynamic dispatch.
type Kind uint8

const (
	// KindPureEmpty matches only the empty string.
	KindPureEmpty Kind = iota
	// KindPureWildcard consists solely of % and _ wildcards.
	KindPureWildcard
	// KindExact contains no %; every position is pinned.
	KindExact
	// KindPrefix is a single leading literal followed by % ("abc%").
	KindPrefix
	// KindSuffix is % followed by a single trailing literal ("%abc").
	KindSuffix
	// KindSubstring is a single literal enclosed in % ("%abc%").
	KindSubstring
	// KindInfix is two literals anchored at both ends ("abc%def").
	KindInfix
	// KindMultiPart is any other multi-segment pattern.
	KindMultiPart
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindPureEmpty:
		return "PureEmpty"
	case KindPureWildcard:
		return "PureWildcard"
	case KindExact:
		return "Exact"
	case KindPrefix:
		return "Prefix"
	case KindSuffix:
		return "Suffix"
	case KindSubstring:
		return "Substring"
	case KindInfix:
		return "Infix"
	case KindMultiPart:
		return "MultiPart"
	default:
		return "Unknown"
	}
}

// Analyzed is the full descriptor for one pattern: its structural
// decomposition, its kind, and the planner inputs derived from it.
type Analyzed struct {
	Parsed

	Kind Kind

	// AnchorStrength rates the pattern's fixed leading/trailing
	// literals from 0 (unanchored) to 100.
	AnchorStrength int
	// Selectivity estimates result-set size; lower means more
	// selective, range [0.01, 1.0].
	Selectivity float64
	// Priority orders execution; lower evaluates first.
	Priority int
}

// Analyze parses pat and derives its descriptor.
func Analyze(pat string) (*Analyzed, error) {
	parsed, err := Parse(pat)
	if err != nil {
		return nil, err
	}

	a := &Analyzed{Parsed: *parsed}
	a.Kind = classify(parsed, len(pat) == 0)
	a.AnchorStrength = anchorStrength(parsed)
	a.Selectivity = selectivity(a)
	a.Priority = priority(a)
	return a, nil
}

func classify(p *Parsed, empty bool) Kind {
	if empty {
		return KindPureEmpty
	}
	if p.ConcreteChars == 0 {
		// Only % and _ remain; the executor works off the wildcard
		// counts alone for these.
		return KindPureWildcard
	}
	if !p.HasPercent {
		return KindExact
	}
	// With at least one unescaped %, a single literal part can only
	// sit at one end or be fully enclosed.
	switch {
	case len(p.Parts) == 1 && !p.StartsPercent:
		return KindPrefix
	case len(p.Parts) == 1 && !p.EndsPercent:
		return KindSuffix
	case len(p.Parts) == 1:
		return KindSubstring
	case len(p.Parts) == 2 && !p.StartsPercent && !p.EndsPercent:
		return KindInfix
	default:
		return KindMultiPart
	}
}

// anchorStrength scores the fixed literals at the pattern's ends.
// Concrete bytes in an anchor are worth 10 points, _ wildcards 3,
// capped at 100. Patterns without % have no anchors in this sense;
// they are handled by the exact tiers instead.
func anchorStrength(p *Parsed) int {
	if !p.HasPercent || len(p.Parts) == 0 {
		return 0
	}

	strength := 0
	if !p.StartsPercent {
		strength += segmentStrength(p.Parts[0])
	}
	if !p.EndsPercent {
		strength += segmentStrength(p.Parts[len(p.Parts)-1])
	}
	if strength > 100 {
		strength = 100
	}
	return strength
}

func segmentStrength(part Part) int {
	s := 0
	for _, wild := range part.Wild {
		if wild {
			s += 3
		} else {
			s += 10
		}
	}
	return s
}

// selectivity estimates how small the result set will be. Lower is
// more selective and evaluates earlier.
func selectivity(a *Analyzed) float64 {
	score := 1.0
	if a.ConcreteChars > 0 {
		score = 1.0 / float64(a.ConcreteChars+1)
	}

	score -= float64(a.UnderscoreCount) * 0.05
	score -= float64(a.AnchorStrength) / 200.0
	if a.Kind == KindSubstring {
		score += 0.5
	}

	if score < 0.01 {
		score = 0.01
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// priority buckets patterns into execution tiers, then fine-tunes
// within the tier using the selectivity score.
func priority(a *Analyzed) int {
	var p int
	switch {
	case a.Kind == KindExact || a.Kind == KindPureEmpty,
		!a.HasPercent && a.UnderscoreCount >= 3:
		p = 0
	case !a.HasPercent && a.UnderscoreCount > 0:
		p = 10 + (5 - a.UnderscoreCount)
		if p < 10 {
			p = 10
		}
	case (a.Kind == KindPrefix || a.Kind == KindSuffix || a.Kind == KindInfix) && a.AnchorStrength >= 30:
		p = 20 + (100-a.AnchorStrength)/10
	case (a.Kind == KindPrefix || a.Kind == KindSuffix || a.Kind == KindInfix) && a.AnchorStrength > 0:
		p = 30 + (50-a.AnchorStrength)/5
	case a.Kind == KindMultiPart && a.PartitionCount() > 2:
		p = 40 + a.PartitionCount()
	case a.Kind == KindSubstring:
		p = 50 + (10 - a.ConcreteChars)
	default:
		p = 35
	}

	return p + int(a.Selectivity*10)
}
