// Package soa defines the core value types and single-device evaluation
// primitives for Safe Operating Area (SOA) rule checking: parameter limit
// tables keyed by tmaxfrac level, device rule sets, and the transient
// time-fraction constraints derived from them.
package soa

import "strings"

// Severity tags a parameter with its reliability criticality.
// It is informational only and never participates in comparison logic.
type Severity string

// Severities ordered from least to most critical.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the position of the severity in the low < medium < high order.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// IsValid reports whether s is one of the canonical severities.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity maps a document string to a Severity, defaulting to high for
// unknown or empty input.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s
	}
	return SeverityHigh
}

// ParameterKind classifies the physical quantity a parameter constrains.
// It informs unit inference only.
type ParameterKind string

// Canonical parameter kinds.
const (
	KindVoltage     ParameterKind = "voltage"
	KindCurrent     ParameterKind = "current"
	KindTemperature ParameterKind = "temperature"
	KindGeneral     ParameterKind = "general"
)

// IsValid reports whether k is one of the canonical kinds.
func (k ParameterKind) IsValid() bool {
	switch k {
	case KindVoltage, KindCurrent, KindTemperature, KindGeneral:
		return true
	}
	return false
}

// ParseKind maps a document string to a ParameterKind, defaulting to general.
func ParseKind(raw string) ParameterKind {
	k := ParameterKind(strings.ToLower(strings.TrimSpace(raw)))
	if k.IsValid() {
		return k
	}
	return KindGeneral
}

// DefaultUnit returns the customary unit for a parameter kind, or the empty
// string when no convention exists.
func DefaultUnit(k ParameterKind) string {
	switch k {
	case KindVoltage:
		return "V"
	case KindCurrent:
		return "A"
	case KindTemperature:
		return "C"
	}
	return ""
}

// Polarity selects the comparison direction a limit applies in.
type Polarity string

const (
	// PolarityUpperBound requires observed <= limit.
	PolarityUpperBound Polarity = "upper"
	// PolarityLowerBound requires observed >= limit.
	PolarityLowerBound Polarity = "lower"
)

// InferPolarity derives the comparison direction from a legacy parameter name.
// Names containing "high" or "max" are upper bounds, names containing "low" or
// "min" are lower bounds, and anything else defaults to an upper bound. The
// inference runs once at ingest time; evaluation reads the explicit field.
func InferPolarity(name string) Polarity {
	n := strings.ToLower(name)
	if strings.Contains(n, "high") || strings.Contains(n, "max") {
		return PolarityUpperBound
	}
	if strings.Contains(n, "low") || strings.Contains(n, "min") {
		return PolarityLowerBound
	}
	return PolarityUpperBound
}

// Violation reports a single failed compliance check. Violations are
// transient evaluation output and are never persisted.
type Violation struct {
	Device      string   `json:"device"`
	Parameter   string   `json:"parameter"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description,omitempty"`
	Message     string   `json:"message"`
}
