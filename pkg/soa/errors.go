package soa

import "fmt"

// ErrDeviceNotFound is returned by registry queries referencing an unknown
// device key. It is fatal only to the query that raised it.
type ErrDeviceNotFound struct {
	Device string
}

func (e ErrDeviceNotFound) Error() string {
	return fmt.Sprintf("device %s not found", e.Device)
}

// ErrFormat is returned when a canonical rule document is malformed or
// incomplete. Field names the offending location so producers can fix the
// document without guessing.
type ErrFormat struct {
	Field  string
	Reason string
}

func (e ErrFormat) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("canonical document: missing required field %q", e.Field)
	}
	return fmt.Sprintf("canonical document: field %q: %s", e.Field, e.Reason)
}

// ErrEmptyTable is returned when a parameter with no tmaxfrac table entries
// is queried for a limit.
type ErrEmptyTable struct {
	Parameter string
}

func (e ErrEmptyTable) Error() string {
	return fmt.Sprintf("parameter %s has an empty tmaxfrac table", e.Parameter)
}
