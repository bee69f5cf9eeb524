package soa

import "fmt"

// TransientConstraint bounds how long a transient waveform may sustain a
// value at or above a threshold: at most MaxTimeFraction of the profile
// window. A MaxTimeFraction of zero means the threshold must never be met or
// exceeded, for any positive duration.
type TransientConstraint struct {
	Limit           Limit
	MaxTimeFraction float64
	Description     string
}

// Sample is one interval of a transient profile: an applied value held from
// Start to End. Profiles are ordered, non-overlapping sequences of samples
// with Start < End.
type Sample struct {
	Value float64 `json:"value"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the sample's interval length.
func (s Sample) Duration() float64 { return s.End - s.Start }

// Check evaluates one sample against the constraint given the profile's
// total window time. It returns a violation message and true when the sample
// breaks the constraint. Samples below a bounded threshold are not subject to
// the constraint; unrestricted and unvalidatable thresholds never violate.
//
// The duration is charged against the full allowed budget independently per
// sample: separate excursions above the same threshold are not summed.
func (c TransientConstraint) Check(sample Sample, totalTime float64) (string, bool) {
	threshold, ok := c.Limit.Value()
	if !ok {
		return "", false
	}
	if sample.Value < threshold {
		return "", false
	}
	if c.MaxTimeFraction == 0 {
		return fmt.Sprintf("threshold %g must never be reached (tmaxfrac=0), applied %g", threshold, sample.Value), true
	}
	allowed := c.MaxTimeFraction * totalTime
	if d := sample.Duration(); d > allowed {
		return fmt.Sprintf("%g applied for %g exceeds allowed %g (%g%% of %g window)",
			sample.Value, d, allowed, c.MaxTimeFraction*100, totalTime), true
	}
	return "", false
}

// ProfileWindow returns the time span covered by a profile: the interval
// from the earliest sample start to the latest sample end. Profiles are not
// required to begin at time zero; fractions are computed against this span,
// so shifting a profile in time does not change any verdict. An empty
// profile has a zero window.
func ProfileWindow(profile []Sample) (start, end float64) {
	if len(profile) == 0 {
		return 0, 0
	}
	start, end = profile[0].Start, profile[0].End
	for _, s := range profile[1:] {
		if s.Start < start {
			start = s.Start
		}
		if s.End > end {
			end = s.End
		}
	}
	return start, end
}
