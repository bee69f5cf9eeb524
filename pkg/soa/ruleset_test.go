package soa

import (
	"strings"
	"testing"
)

func testRuleSet() RuleSet {
	return RuleSet{
		DeviceType:  "mos_transistor",
		Subcategory: "symmetric_on_off",
		Levels:      []float64{0.1, 0.01, 0.0},
		Parameters: map[string]Parameter{
			"vhigh_ds_on": testParameter(),
			"vhigh_ds_off": {
				Name:     "vhigh_ds_off",
				Severity: SeverityMedium,
				Kind:     KindVoltage,
				Unit:     "V",
				Polarity: PolarityUpperBound,
				Table: []Level{
					{Tmaxfrac: 0.1, Limit: Bounded(1.815)},
					{Tmaxfrac: 0.0, Limit: Bounded(3.0)},
				},
			},
		},
	}
}

func TestValidateConditionsReportsViolations(t *testing.T) {
	rs := testRuleSet()
	violations, unvalidated, err := rs.ValidateConditions(0.1, map[string]float64{
		"vhigh_ds_on":  2.0,
		"vhigh_ds_off": 1.7,
	})
	if err != nil {
		t.Fatalf("validate conditions: %v", err)
	}
	if len(unvalidated) != 0 {
		t.Fatalf("unexpected unvalidated params: %v", unvalidated)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %+v", len(violations), violations)
	}
	v := violations[0]
	if v.Parameter != "vhigh_ds_on" {
		t.Fatalf("violation names %q", v.Parameter)
	}
	for _, part := range []string{"2", "1.65", "tmaxfrac=0.1", "high"} {
		if !strings.Contains(v.Message, part) {
			t.Fatalf("message %q missing %q", v.Message, part)
		}
	}
}

func TestValidateConditionsSkipsUnsuppliedParameters(t *testing.T) {
	rs := testRuleSet()
	// vhigh_ds_off is wildly out of range but not observed, so it is skipped.
	violations, _, err := rs.ValidateConditions(0.1, map[string]float64{"vhigh_ds_on": 1.0})
	if err != nil {
		t.Fatalf("validate conditions: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

func TestValidateConditionsSurfacesUnvalidated(t *testing.T) {
	rs := testRuleSet()
	rs.Parameters["vhigh_note"] = Parameter{
		Name:  "vhigh_note",
		Table: []Level{{Tmaxfrac: 0.1, Limit: Unvalidatable("per app note 12")}},
	}
	violations, unvalidated, err := rs.ValidateConditions(0.1, map[string]float64{"vhigh_note": 500})
	if err != nil {
		t.Fatalf("validate conditions: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("fail-open limit must not violate, got %+v", violations)
	}
	if len(unvalidated) != 1 || unvalidated[0] != "vhigh_note" {
		t.Fatalf("expected vhigh_note flagged, got %v", unvalidated)
	}
}

func TestLimitsAt(t *testing.T) {
	rs := testRuleSet()
	rs.Parameters["vhigh_free"] = Parameter{
		Name:  "vhigh_free",
		Unit:  "V",
		Table: []Level{{Tmaxfrac: 0.1, Limit: Unrestricted()}},
	}
	rs.Parameters["vhigh_empty"] = Parameter{Name: "vhigh_empty"}

	limits := rs.LimitsAt(0.1)
	if _, ok := limits["vhigh_empty"]; ok {
		t.Fatalf("empty-table parameter must be omitted")
	}
	info, ok := limits["vhigh_ds_on"]
	if !ok {
		t.Fatalf("missing vhigh_ds_on")
	}
	if v, _ := info.Value.Value(); v != 1.65 || info.Unit != "V" || info.Severity != SeverityHigh {
		t.Fatalf("unexpected limit info %+v", info)
	}
	if free := limits["vhigh_free"]; !free.Unrestricted {
		t.Fatalf("expected unrestricted flag for vhigh_free")
	}
}

func TestSeverityOrderAndKinds(t *testing.T) {
	if !(SeverityLow.Rank() < SeverityMedium.Rank() && SeverityMedium.Rank() < SeverityHigh.Rank()) {
		t.Fatalf("severity order broken")
	}
	if ParseSeverity("bogus") != SeverityHigh {
		t.Fatalf("unknown severity must default to high")
	}
	if ParseKind("Voltage") != KindVoltage || ParseKind("") != KindGeneral {
		t.Fatalf("kind parsing broken")
	}
	if DefaultUnit(KindVoltage) != "V" || DefaultUnit(KindCurrent) != "A" || DefaultUnit(KindGeneral) != "" {
		t.Fatalf("unit inference broken")
	}
}
