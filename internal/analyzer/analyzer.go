package analyzer

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/fennwick/empath/internal/audio"
)

// Analyze extracts the full feature report from a clip. Each feature is
// computed in isolation: a failure inside one step leaves that step's
// fields unavailable and the rest of the report intact.
func Analyze(clip audio.Clip) FeatureReport {
	report := FeatureReport{Tremble: TrembleNotApplicable}

	var survivors []float64
	safely("pitch", func() {
		survivors = survivingPitches(trackPitch(clip))
		if len(survivors) > 0 {
			pitch := roundTo(median(survivors), 2)
			report.PitchHz = &pitch
		}
	})

	safely("tempo", func() {
		if bpm, ok := estimateTempo(clip); ok {
			tempo := roundTo(bpm, 2)
			report.TempoBPM = &tempo
		}
	})

	safely("energy", func() {
		if rms, ok := meanRMSEnergy(clip); ok {
			energy := roundTo(rms, 6)
			report.Energy = &energy
		}
	})

	safely("jitter", func() {
		// Jitter needs a pitch and at least two surviving candidates.
		if report.PitchHz == nil || len(survivors) < 2 {
			return
		}
		mean := stat.Mean(survivors, nil)
		if mean == 0 {
			return
		}
		jitter := roundTo(stat.PopStdDev(survivors, nil)/mean, 4)
		report.Jitter = &jitter
		report.Tremble = classifyTremble(jitter)
	})

	return report
}

// AnalyzeWAV decodes a WAV buffer and analyzes it. Decoding is the only
// step that can error; callers surface it as a single-field error map.
func AnalyzeWAV(data []byte) (FeatureReport, error) {
	clip, err := audio.DecodeWAV(data)
	if err != nil {
		return FeatureReport{}, err
	}
	return Analyze(clip), nil
}

// safely runs one extraction step, downgrading a panic to a warning so
// remaining steps still run.
func safely(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("feature extraction step failed", "step", step, "cause", r)
		}
	}()
	fn()
}
