// Package core owns the SOA rule registry: canonical document load/export,
// static compliance queries, transient profile validation, and the
// instrumented service wrapper around them.
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"soacore/pkg/soa"
)

// Document is the canonical interchange structure exchanged with the
// extraction pipeline. Unknown extra fields are ignored on load.
type Document struct {
	SOARules *RulesDocument `json:"soa_rules"`
}

// RulesDocument is the payload under the soa_rules envelope.
type RulesDocument struct {
	Version      string                    `json:"version"`
	Technology   string                    `json:"technology"`
	GlobalConfig map[string]any            `json:"global_config,omitempty"`
	Devices      map[string]DeviceDocument `json:"devices"`
}

// DeviceDocument serializes one device's rule set.
type DeviceDocument struct {
	DeviceType  string                       `json:"device_type"`
	Subcategory string                       `json:"subcategory"`
	MultiLevel  MultiLevelDocument           `json:"multi_level"`
	Parameters  map[string]ParameterDocument `json:"parameters"`
	Metadata    map[string]any               `json:"metadata,omitempty"`
}

// MultiLevelDocument declares a device's tmaxfrac levels.
type MultiLevelDocument struct {
	Enabled        bool      `json:"enabled"`
	TmaxfracLevels []float64 `json:"tmaxfrac_levels"`
}

// ParameterDocument serializes one SOA parameter.
type ParameterDocument struct {
	Name        string         `json:"name"`
	Severity    string         `json:"severity"`
	Type        string         `json:"type"`
	Unit        string         `json:"unit"`
	Values      ValuesDocument `json:"values"`
	Conditions  []string       `json:"conditions,omitempty"`
	Description string         `json:"description"`
}

// ValuesDocument holds the tmaxfrac table. Keys are tmaxfrac levels
// serialized as text; values are numbers or the "no-limit" sentinel.
type ValuesDocument struct {
	MultiLevel map[string]any `json:"multi_level"`
}

// DecodeDocument parses a canonical document from JSON bytes.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode canonical document: %w", err)
	}
	return doc, nil
}

// ReadDocument parses a canonical document from a reader.
func ReadDocument(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read canonical document: %w", err)
	}
	return DecodeDocument(data)
}

// ruleSetFromDocument converts one device entry, failing with a format error
// that names the missing field. Conversion is all-or-nothing: either the
// complete rule set is returned or nothing is.
func ruleSetFromDocument(deviceKey string, doc DeviceDocument) (soa.RuleSet, error) {
	if doc.Parameters == nil {
		return soa.RuleSet{}, soa.ErrFormat{Field: fmt.Sprintf("devices.%s.parameters", deviceKey)}
	}
	params := make(map[string]soa.Parameter, len(doc.Parameters))
	for key, pd := range doc.Parameters {
		param, err := parameterFromDocument(deviceKey, key, pd, doc.MultiLevel.TmaxfracLevels)
		if err != nil {
			return soa.RuleSet{}, err
		}
		params[key] = param
	}
	deviceType := doc.DeviceType
	if deviceType == "" {
		deviceType = "unknown"
	}
	subcategory := doc.Subcategory
	if subcategory == "" {
		subcategory = "general"
	}
	return soa.RuleSet{
		DeviceType:  deviceType,
		Subcategory: subcategory,
		Levels:      append([]float64(nil), doc.MultiLevel.TmaxfracLevels...),
		Parameters:  params,
		Metadata:    doc.Metadata,
	}, nil
}

func parameterFromDocument(deviceKey, paramKey string, doc ParameterDocument, declaredLevels []float64) (soa.Parameter, error) {
	if doc.Values.MultiLevel == nil {
		return soa.Parameter{}, soa.ErrFormat{
			Field: fmt.Sprintf("devices.%s.parameters.%s.values.multi_level", deviceKey, paramKey),
		}
	}
	table, err := tableFromDocument(deviceKey, paramKey, doc.Values.MultiLevel, declaredLevels)
	if err != nil {
		return soa.Parameter{}, err
	}
	name := doc.Name
	if name == "" {
		name = paramKey
	}
	kind := soa.ParseKind(doc.Type)
	unit := doc.Unit
	if unit == "" {
		unit = soa.DefaultUnit(kind)
	}
	return soa.Parameter{
		Name:        name,
		Severity:    soa.ParseSeverity(doc.Severity),
		Kind:        kind,
		Unit:        unit,
		Polarity:    soa.InferPolarity(name),
		Table:       table,
		Conditions:  append([]string(nil), doc.Conditions...),
		Description: doc.Description,
	}, nil
}

// tableFromDocument parses the text-keyed tmaxfrac map into an ordered table.
// Declared device levels fix the leading order; any remaining keys follow in
// descending numeric order so loads are deterministic.
func tableFromDocument(deviceKey, paramKey string, raw map[string]any, declaredLevels []float64) ([]soa.Level, error) {
	parsed := make(map[float64]soa.Limit, len(raw))
	for key, value := range raw {
		frac, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return nil, soa.ErrFormat{
				Field:  fmt.Sprintf("devices.%s.parameters.%s.values.multi_level", deviceKey, paramKey),
				Reason: fmt.Sprintf("tmaxfrac key %q is not a number", key),
			}
		}
		parsed[frac] = soa.ParseLimit(value)
	}

	table := make([]soa.Level, 0, len(parsed))
	for _, frac := range declaredLevels {
		if limit, ok := parsed[frac]; ok {
			table = append(table, soa.Level{Tmaxfrac: frac, Limit: limit})
			delete(parsed, frac)
		}
	}
	rest := make([]float64, 0, len(parsed))
	for frac := range parsed {
		rest = append(rest, frac)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(rest)))
	for _, frac := range rest {
		table = append(table, soa.Level{Tmaxfrac: frac, Limit: parsed[frac]})
	}
	return table, nil
}

func deviceToDocument(rs soa.RuleSet) DeviceDocument {
	params := make(map[string]ParameterDocument, len(rs.Parameters))
	for key, p := range rs.Parameters {
		values := make(map[string]any, len(p.Table))
		for _, lvl := range p.Table {
			values[strconv.FormatFloat(lvl.Tmaxfrac, 'g', -1, 64)] = lvl.Limit.DocumentValue()
		}
		params[key] = ParameterDocument{
			Name:        p.Name,
			Severity:    string(p.Severity),
			Type:        string(p.Kind),
			Unit:        p.Unit,
			Values:      ValuesDocument{MultiLevel: values},
			Conditions:  append([]string(nil), p.Conditions...),
			Description: p.Description,
		}
	}
	return DeviceDocument{
		DeviceType:  rs.DeviceType,
		Subcategory: rs.Subcategory,
		MultiLevel: MultiLevelDocument{
			Enabled:        len(rs.Levels) > 1,
			TmaxfracLevels: append([]float64(nil), rs.Levels...),
		},
		Parameters: params,
		Metadata:   rs.Metadata,
	}
}
