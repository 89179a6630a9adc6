package analyzer

// Heuristic cut points carried over from the original product. They are
// empirical and tunable, not validated thresholds.
const (
	TrembleJitterThreshold = 0.18

	lowPitchHz  = 140.0
	highPitchHz = 220.0

	slowTempoBPM = 80.0
	fastTempoBPM = 150.0
)

// classifyTremble buckets a computed jitter value. The threshold is
// strict: exactly 0.18 is still "No".
func classifyTremble(jitter float64) string {
	if jitter > TrembleJitterThreshold {
		return TrembleYes
	}
	return TrembleNo
}

// Interpret derives the human-readable hint lines for a report. The
// order is fixed: pitch line, tempo line, tremble line. Unavailable
// features contribute no line.
func (r FeatureReport) Interpret() []string {
	var lines []string

	if r.PitchHz != nil {
		switch pitch := *r.PitchHz; {
		case pitch < lowPitchHz:
			lines = append(lines, "Low pitch — may sound calm/serious.")
		case pitch > highPitchHz:
			lines = append(lines, "High pitch — may indicate stress or excitement.")
		default:
			lines = append(lines, "Medium pitch — neutral.")
		}
	}

	if r.TempoBPM != nil {
		switch tempo := *r.TempoBPM; {
		case tempo < slowTempoBPM:
			lines = append(lines, "Slow speech — may indicate sadness or tiredness.")
		case tempo > fastTempoBPM:
			lines = append(lines, "Fast speech — may indicate excitement or nervousness.")
		default:
			lines = append(lines, "Moderate tempo.")
		}
	}

	switch r.Tremble {
	case TrembleYes:
		lines = append(lines, "Tremble detected — possible anxiety/hesitation.")
	case TrembleNo:
		lines = append(lines, "No tremble detected.")
	}

	return lines
}
