package soa

import (
	"fmt"
	"sort"
)

// RuleSet aggregates the SOA parameters declared for one device, the
// device's tmaxfrac levels, and provenance metadata. The declared levels
// should be the union of the parameters' table keys; this is advisory and
// not enforced.
type RuleSet struct {
	DeviceType  string
	Subcategory string
	Levels      []float64
	Parameters  map[string]Parameter
	Metadata    map[string]any
}

// LimitInfo is the introspection view of one parameter's resolved limit at a
// tmaxfrac level. It is reporting output only and never drives control flow.
type LimitInfo struct {
	Value        Limit
	Unit         string
	Severity     Severity
	Kind         ParameterKind
	Unrestricted bool
}

// ParameterNames returns the rule set's parameter names in sorted order.
func (r RuleSet) ParameterNames() []string {
	names := make([]string, 0, len(r.Parameters))
	for name := range r.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateConditions checks every observed parameter present in the set
// against its limit at tmaxfrac. Parameters in the set but absent from the
// observations are skipped; compliance is evaluated only for supplied
// values. It returns the violations in sorted parameter-name order together
// with the names of parameters whose limits were unvalidatable (fail-open
// passes requiring review). The Device field of returned violations is left
// empty for the registry to stamp.
func (r RuleSet) ValidateConditions(tmaxfrac float64, observations map[string]float64) ([]Violation, []string, error) {
	var violations []Violation
	var unvalidated []string
	for _, name := range r.ParameterNames() {
		observed, supplied := observations[name]
		if !supplied {
			continue
		}
		param := r.Parameters[name]
		outcome, err := param.Validate(observed, tmaxfrac)
		if err != nil {
			return nil, nil, err
		}
		if outcome.Unvalidated {
			unvalidated = append(unvalidated, name)
		}
		if outcome.Passed {
			continue
		}
		limit, err := param.ValueAt(tmaxfrac)
		if err != nil {
			return nil, nil, err
		}
		violations = append(violations, Violation{
			Parameter:   name,
			Severity:    param.Severity,
			Description: param.Description,
			Message: fmt.Sprintf("%s: %g violates %s limit of %s %s at tmaxfrac=%g",
				name, observed, param.Severity, limit, param.Unit, tmaxfrac),
		})
	}
	return violations, unvalidated, nil
}

// LimitsAt resolves every parameter's limit, unit, severity, and
// unrestricted flag at the given tmaxfrac level. Parameters with an empty
// table are omitted.
func (r RuleSet) LimitsAt(tmaxfrac float64) map[string]LimitInfo {
	limits := make(map[string]LimitInfo, len(r.Parameters))
	for name, param := range r.Parameters {
		value, err := param.ValueAt(tmaxfrac)
		if err != nil {
			continue
		}
		limits[name] = LimitInfo{
			Value:        value,
			Unit:         param.Unit,
			Severity:     param.Severity,
			Kind:         param.Kind,
			Unrestricted: value.IsUnrestricted(),
		}
	}
	return limits
}
