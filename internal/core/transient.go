package core

import (
	"fmt"
	"sort"

	"soacore/pkg/soa"
)

// ProfileSet maps parameter names to their transient profiles for one
// simulation run.
type ProfileSet map[string][]soa.Sample

// TransientReport is the outcome of validating a profile set against one
// device's constraints. Violations appear in sorted parameter order, then in
// constraint and sample order within a parameter. Warnings records profile
// parameters with no matching constraint; they usually signal a caller
// mistake and are skipped, never failed.
type TransientReport struct {
	Device     string          `json:"device"`
	Violations []soa.Violation `json:"violations"`
	Warnings   []string        `json:"warnings,omitempty"`
	Compliant  bool            `json:"compliant"`
}

// ValidateTransient walks every supplied profile against the time-fraction
// constraints derived from the device's parameter tables.
//
// The profile window spans from the earliest sample start to the latest
// sample end; allowed budgets are fractions of that span, so a profile need
// not begin at time zero. Each sample is charged against the full budget
// independently: durations of separate excursions above the same threshold
// are not summed.
func (r *Registry) ValidateTransient(deviceKey string, profiles ProfileSet) (TransientReport, error) {
	rs, ok := r.devices[deviceKey]
	if !ok {
		return TransientReport{}, soa.ErrDeviceNotFound{Device: deviceKey}
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	report := TransientReport{Device: deviceKey}
	for _, name := range names {
		param, ok := rs.Parameters[name]
		if !ok {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("parameter %s has no constraints for device %s; profile skipped", name, deviceKey))
			continue
		}
		report.Violations = append(report.Violations,
			validateProfile(deviceKey, param, profiles[name])...)
	}
	report.Compliant = len(report.Violations) == 0
	return report, nil
}

func validateProfile(deviceKey string, param soa.Parameter, profile []Sample) []soa.Violation {
	if len(profile) == 0 {
		return nil
	}
	start, end := soa.ProfileWindow(profile)
	totalTime := end - start

	var violations []soa.Violation
	for _, constraint := range param.TransientConstraints() {
		for _, sample := range profile {
			msg, violated := constraint.Check(sample, totalTime)
			if !violated {
				continue
			}
			violations = append(violations, soa.Violation{
				Device:      deviceKey,
				Parameter:   param.Name,
				Severity:    param.Severity,
				Description: constraint.Description,
				Message:     fmt.Sprintf("%s: %s", param.Name, msg),
			})
		}
	}
	return violations
}

// Sample aliases the domain profile sample for callers working through the
// core package.
type Sample = soa.Sample
