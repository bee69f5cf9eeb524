package soa

import "math"

// Level pairs one tmaxfrac key with its limit. Tables preserve declaration
// order; nearest-level ties are broken by the first entry in that order.
type Level struct {
	Tmaxfrac float64
	Limit    Limit
}

// Parameter is a named quantity with an ordered tmaxfrac table. A parameter
// participating in queries must carry a non-empty table with keys in [0,1].
type Parameter struct {
	Name        string
	Severity    Severity
	Kind        ParameterKind
	Unit        string
	Polarity    Polarity
	Table       []Level
	Conditions  []string
	Description string
}

// Outcome reports a single-point validation. Unvalidated marks a pass that
// was granted because the resolved limit could not be compared numerically;
// callers must surface it rather than treat it as a clean pass.
type Outcome struct {
	Passed      bool
	Unvalidated bool
}

// ValueAt resolves the limit for a tmaxfrac level. An exact key match wins;
// otherwise the entry with minimal absolute distance to the request is used,
// with ties resolved in favor of the earlier table entry. Querying an empty
// table fails with ErrEmptyTable.
func (p Parameter) ValueAt(tmaxfrac float64) (Limit, error) {
	if len(p.Table) == 0 {
		return Limit{}, ErrEmptyTable{Parameter: p.Name}
	}
	best := 0
	bestDist := math.Abs(p.Table[0].Tmaxfrac - tmaxfrac)
	for i := 1; i < len(p.Table); i++ {
		// Strict < keeps the earlier entry on equal distance, so an exact
		// key match always wins and ties resolve to first declaration.
		if d := math.Abs(p.Table[i].Tmaxfrac - tmaxfrac); d < bestDist {
			best, bestDist = i, d
		}
	}
	return p.Table[best].Limit, nil
}

// IsUnrestricted reports whether the limit resolved at tmaxfrac is the
// unrestricted sentinel. An empty table reports false.
func (p Parameter) IsUnrestricted(tmaxfrac float64) bool {
	limit, err := p.ValueAt(tmaxfrac)
	if err != nil {
		return false
	}
	return limit.IsUnrestricted()
}

// Validate checks an observed value against the limit resolved at tmaxfrac.
// Unrestricted limits pass unconditionally. Unvalidatable limits pass with
// the Unvalidated flag set. Bounded limits compare in the direction selected
// by the parameter's polarity.
func (p Parameter) Validate(observed, tmaxfrac float64) (Outcome, error) {
	limit, err := p.ValueAt(tmaxfrac)
	if err != nil {
		return Outcome{}, err
	}
	if limit.IsUnrestricted() {
		return Outcome{Passed: true}, nil
	}
	threshold, ok := limit.Value()
	if !ok {
		return Outcome{Passed: true, Unvalidated: true}, nil
	}
	if p.Polarity == PolarityLowerBound {
		return Outcome{Passed: observed >= threshold}, nil
	}
	return Outcome{Passed: observed <= threshold}, nil
}

// TransientConstraints derives the time-fraction constraint set attached to
// the parameter: one constraint per table level, pairing the level's limit
// with its tmaxfrac as the allowed time fraction.
func (p Parameter) TransientConstraints() []TransientConstraint {
	out := make([]TransientConstraint, 0, len(p.Table))
	for _, lvl := range p.Table {
		out = append(out, TransientConstraint{
			Limit:           lvl.Limit,
			MaxTimeFraction: lvl.Tmaxfrac,
			Description:     p.Description,
		})
	}
	return out
}
