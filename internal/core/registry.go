package core

import (
	"sort"

	"soacore/pkg/soa"
)

// Config carries registry-wide settings. Version and Technology are first
// class; everything else from a document's global_config travels in Extra
// untouched.
type Config struct {
	Version    string
	Technology string
	Extra      map[string]any
}

// Registry owns all device rule sets and the global configuration. The
// intended discipline is build once, then share read-only: populate via
// AddDevice or LoadDocument, then query concurrently. Callers must serialize
// mutating calls themselves; queries never mutate.
type Registry struct {
	config  Config
	devices map[string]soa.RuleSet
}

// NewRegistry constructs an empty registry with default configuration.
func NewRegistry() *Registry {
	return &Registry{
		config:  Config{Version: "1.0"},
		devices: make(map[string]soa.RuleSet),
	}
}

// Config returns the registry's global configuration.
func (r *Registry) Config() Config { return r.config }

// SetConfig replaces the registry's global configuration.
func (r *Registry) SetConfig(cfg Config) { r.config = cfg }

// AddDevice inserts or overwrites the rule set stored under key. Rule sets
// from multiple sources must be combined by the caller before insertion;
// there is no automatic merge.
func (r *Registry) AddDevice(key string, rs soa.RuleSet) {
	r.devices[key] = rs
}

// Device returns the rule set stored under key.
func (r *Registry) Device(key string) (soa.RuleSet, bool) {
	rs, ok := r.devices[key]
	return rs, ok
}

// DeviceKeys returns all device keys in sorted order.
func (r *Registry) DeviceKeys() []string {
	keys := make([]string, 0, len(r.devices))
	for key := range r.devices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// LoadDocument deserializes a canonical document into the registry. Every
// device entry is converted before any is committed, so a malformed document
// never leaves the registry partially populated. A missing required field
// fails with a format error naming it.
func (r *Registry) LoadDocument(doc Document) error {
	if doc.SOARules == nil {
		return soa.ErrFormat{Field: "soa_rules"}
	}
	rules := doc.SOARules
	if rules.Devices == nil {
		return soa.ErrFormat{Field: "soa_rules.devices"}
	}

	keys := make([]string, 0, len(rules.Devices))
	for key := range rules.Devices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	staged := make(map[string]soa.RuleSet, len(keys))
	for _, key := range keys {
		rs, err := ruleSetFromDocument(key, rules.Devices[key])
		if err != nil {
			return err
		}
		staged[key] = rs
	}

	cfg := r.config
	if rules.Version != "" {
		cfg.Version = rules.Version
	}
	if rules.Technology != "" {
		cfg.Technology = rules.Technology
	}
	if len(rules.GlobalConfig) > 0 {
		if cfg.Extra == nil {
			cfg.Extra = make(map[string]any, len(rules.GlobalConfig))
		}
		for k, v := range rules.GlobalConfig {
			switch k {
			case "version":
				if s, ok := v.(string); ok {
					cfg.Version = s
				}
			case "technology":
				if s, ok := v.(string); ok {
					cfg.Technology = s
				}
			default:
				cfg.Extra[k] = v
			}
		}
	}

	r.config = cfg
	for key, rs := range staged {
		r.devices[key] = rs
	}
	return nil
}

// ExportDocument produces a canonical document equivalent to the registry
// contents. A load of the export yields the same device keys, parameter
// names, and resolved limits at every level; mapping entry order is not part
// of the contract.
func (r *Registry) ExportDocument() Document {
	devices := make(map[string]DeviceDocument, len(r.devices))
	for key, rs := range r.devices {
		devices[key] = deviceToDocument(rs)
	}
	global := make(map[string]any, len(r.config.Extra)+2)
	for k, v := range r.config.Extra {
		global[k] = v
	}
	global["version"] = r.config.Version
	global["technology"] = r.config.Technology
	return Document{SOARules: &RulesDocument{
		Version:      r.config.Version,
		Technology:   r.config.Technology,
		GlobalConfig: global,
		Devices:      devices,
	}}
}

// Scenario pairs one tmaxfrac level with a set of observed parameter values.
type Scenario struct {
	Tmaxfrac     float64            `json:"tmaxfrac"`
	Observations map[string]float64 `json:"observations"`
}

// CheckResult is the audit-friendly outcome of a single compliance query:
// the inputs echoed back, the violations found, the fail-open parameters
// needing review, and the device's resolved limits at the queried level.
type CheckResult struct {
	Device       string                   `json:"device"`
	Tmaxfrac     float64                  `json:"tmaxfrac"`
	Observations map[string]float64       `json:"observations"`
	Violations   []soa.Violation          `json:"violations"`
	Unvalidated  []string                 `json:"unvalidated,omitempty"`
	Compliant    bool                     `json:"compliant"`
	Limits       map[string]soa.LimitInfo `json:"limits"`
}

// CheckCompliance validates one (device, tmaxfrac, observations) tuple.
// An unknown device key fails with soa.ErrDeviceNotFound and leaves the
// registry untouched.
func (r *Registry) CheckCompliance(deviceKey string, tmaxfrac float64, observations map[string]float64) (CheckResult, error) {
	rs, ok := r.devices[deviceKey]
	if !ok {
		return CheckResult{}, soa.ErrDeviceNotFound{Device: deviceKey}
	}
	violations, unvalidated, err := rs.ValidateConditions(tmaxfrac, observations)
	if err != nil {
		return CheckResult{}, err
	}
	for i := range violations {
		violations[i].Device = deviceKey
	}
	return CheckResult{
		Device:       deviceKey,
		Tmaxfrac:     tmaxfrac,
		Observations: observations,
		Violations:   violations,
		Unvalidated:  unvalidated,
		Compliant:    len(violations) == 0,
		Limits:       rs.LimitsAt(tmaxfrac),
	}, nil
}

// ReportSummary tallies scenario outcomes.
type ReportSummary struct {
	Total  int `json:"total_scenarios"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report aggregates compliance checks over an ordered scenario sequence.
// Results[i] corresponds to scenarios[i].
type Report struct {
	Device  string        `json:"device"`
	Summary ReportSummary `json:"summary"`
	Results []CheckResult `json:"results"`
}

// GenerateValidationReport runs CheckCompliance over the scenarios in order.
// The result order matches the input order exactly and Passed+Failed equals
// the scenario count.
func (r *Registry) GenerateValidationReport(deviceKey string, scenarios []Scenario) (Report, error) {
	if _, ok := r.devices[deviceKey]; !ok {
		return Report{}, soa.ErrDeviceNotFound{Device: deviceKey}
	}
	report := Report{
		Device:  deviceKey,
		Summary: ReportSummary{Total: len(scenarios)},
		Results: make([]CheckResult, 0, len(scenarios)),
	}
	for _, sc := range scenarios {
		result, err := r.CheckCompliance(deviceKey, sc.Tmaxfrac, sc.Observations)
		if err != nil {
			return Report{}, err
		}
		report.Results = append(report.Results, result)
		if result.Compliant {
			report.Summary.Passed++
		} else {
			report.Summary.Failed++
		}
	}
	return report, nil
}
