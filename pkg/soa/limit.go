package soa

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// unrestrictedSentinel is the canonical document spelling of an absent limit.
const unrestrictedSentinel = "no-limit"

type limitKind uint8

const (
	limitBounded limitKind = iota
	limitUnrestricted
	limitUnvalidatable
)

// Limit is a tagged variant holding a threshold value: a finite numeric bound,
// the unrestricted sentinel, or an unvalidatable raw string carried through
// from a source document. Unrestricted satisfies every query. Unvalidatable
// limits pass validation by default, but the pass is flagged so callers can
// route it to human review instead of silently reporting full compliance.
type Limit struct {
	kind limitKind
	val  float64
	raw  string
}

// Bounded returns a numeric limit.
func Bounded(v float64) Limit {
	return Limit{kind: limitBounded, val: v}
}

// Unrestricted returns the sentinel limit that satisfies every query.
func Unrestricted() Limit {
	return Limit{kind: limitUnrestricted}
}

// Unvalidatable wraps a raw threshold that could not be interpreted
// numerically. The original text is retained for reporting.
func Unvalidatable(raw string) Limit {
	return Limit{kind: limitUnvalidatable, raw: raw}
}

// ParseLimit interprets a decoded document value as a Limit. Numbers become
// bounded limits, the "no-limit" sentinel (case-insensitive) becomes
// unrestricted, and any other value is carried as unvalidatable.
func ParseLimit(v any) Limit {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Unvalidatable(fmt.Sprint(t))
		}
		return Bounded(t)
	case int:
		return Bounded(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Bounded(f)
		}
		return Unvalidatable(t.String())
	case string:
		if strings.EqualFold(strings.TrimSpace(t), unrestrictedSentinel) {
			return Unrestricted()
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return Bounded(f)
		}
		return Unvalidatable(t)
	case nil:
		return Unvalidatable("")
	}
	return Unvalidatable(fmt.Sprint(v))
}

// IsUnrestricted reports whether the limit is the sentinel.
func (l Limit) IsUnrestricted() bool { return l.kind == limitUnrestricted }

// IsUnvalidatable reports whether the limit carries a value that cannot be
// compared numerically.
func (l Limit) IsUnvalidatable() bool { return l.kind == limitUnvalidatable }

// Value returns the numeric threshold and true when the limit is bounded.
func (l Limit) Value() (float64, bool) {
	if l.kind != limitBounded {
		return 0, false
	}
	return l.val, true
}

// String renders the limit the way the canonical document spells it.
func (l Limit) String() string {
	switch l.kind {
	case limitUnrestricted:
		return unrestrictedSentinel
	case limitUnvalidatable:
		return l.raw
	}
	return strconv.FormatFloat(l.val, 'g', -1, 64)
}

// DocumentValue returns the value as serialized in the canonical document:
// a float64 for bounded limits, "no-limit" for unrestricted, and the raw
// string for unvalidatable limits.
func (l Limit) DocumentValue() any {
	switch l.kind {
	case limitUnrestricted:
		return unrestrictedSentinel
	case limitUnvalidatable:
		return l.raw
	}
	return l.val
}

// MarshalJSON encodes the limit in canonical document form.
func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.DocumentValue())
}

// UnmarshalJSON decodes a canonical document limit value.
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = ParseLimit(v)
	return nil
}
