// Package presenters formats analysis results for display. Pure
// formatting, no I/O.
package presenters

import (
	"fmt"
	"strings"

	"github.com/fennwick/empath/internal/analyzer"
	"github.com/fennwick/empath/internal/repository"
)

const noMeasurement = "n/a"

// FormatFeatureReport renders a report as an aligned block followed by
// its interpretation lines:
//
//	Pitch:   219.74 Hz
//	Tempo:   n/a
//	Energy:  0.031245
//	Jitter:  0.0213
//	Tremble: No
//	  - Medium pitch — neutral.
//	  - No tremble detected.
func FormatFeatureReport(report analyzer.FeatureReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pitch:   %s\n", formatMeasurement(report.PitchHz, "%.2f Hz"))
	fmt.Fprintf(&b, "Tempo:   %s\n", formatMeasurement(report.TempoBPM, "%.2f BPM"))
	fmt.Fprintf(&b, "Energy:  %s\n", formatMeasurement(report.Energy, "%.6f"))
	fmt.Fprintf(&b, "Jitter:  %s\n", formatMeasurement(report.Jitter, "%.4f"))
	fmt.Fprintf(&b, "Tremble: %s\n", report.Tremble)

	for _, line := range report.Interpret() {
		fmt.Fprintf(&b, "  - %s\n", line)
	}

	return b.String()
}

func formatMeasurement(value *float64, format string) string {
	if value == nil {
		return noMeasurement
	}
	return fmt.Sprintf(format, *value)
}

// FormatScoreHistory renders empathy scores one line per entry, in the
// order given.
func FormatScoreHistory(scores []repository.EmpathyScore) string {
	if len(scores) == 0 {
		return "No scores recorded\n"
	}

	var b strings.Builder
	for _, score := range scores {
		fmt.Fprintf(
			&b,
			"%s  %4.2f  %-8s  %s\n",
			score.CreatedAt.Format("2006-01-02 15:04"),
			score.Score,
			score.Label,
			truncate(score.Body, 60),
		)
	}
	return b.String()
}

// FormatVoiceReportHistory renders persisted voice reports one line per
// entry, in the order given.
func FormatVoiceReportHistory(reports []repository.VoiceReport) string {
	if len(reports) == 0 {
		return "No voice reports recorded\n"
	}

	var b strings.Builder
	for _, report := range reports {
		fmt.Fprintf(
			&b,
			"%s  pitch=%-10s tempo=%-10s tremble=%s\n",
			report.CreatedAt.Format("2006-01-02 15:04"),
			formatMeasurement(report.PitchHz, "%.2fHz"),
			formatMeasurement(report.TempoBPM, "%.2fBPM"),
			report.Tremble,
		)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
