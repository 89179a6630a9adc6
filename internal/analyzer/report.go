// Package analyzer extracts prosodic features from captured audio and
// maps them to human-readable emotional hints. One clip in, one report
// out; every feature degrades independently to "unavailable" instead of
// failing the whole analysis.
package analyzer

import (
	"fmt"
	"strings"
)

// Tremble classification values.
const (
	TrembleYes           = "Yes"
	TrembleNo            = "No"
	TrembleNotApplicable = "Not Applicable"
)

// FeatureReport is the fixed-shape result of one analysis pass.
// Nil floats mean the feature could not be computed; the keys are
// always present in the serialized form.
type FeatureReport struct {
	PitchHz  *float64 `json:"pitch_hz"`
	TempoBPM *float64 `json:"tempo_bpm"`
	Energy   *float64 `json:"energy"`
	Jitter   *float64 `json:"jitter"`
	Tremble  string   `json:"tremble"`
}

// String renders a log-friendly one-liner.
func (r FeatureReport) String() string {
	var b strings.Builder

	writeField := func(name string, value *float64) {
		if value == nil {
			fmt.Fprintf(&b, "%s=n/a ", name)
			return
		}
		fmt.Fprintf(&b, "%s=%g ", name, *value)
	}

	writeField("pitch_hz", r.PitchHz)
	writeField("tempo_bpm", r.TempoBPM)
	writeField("energy", r.Energy)
	writeField("jitter", r.Jitter)
	fmt.Fprintf(&b, "tremble=%s", r.Tremble)

	return b.String()
}
