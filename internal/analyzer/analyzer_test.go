package analyzer_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fennwick/empath/internal/analyzer"
	"github.com/fennwick/empath/internal/audio"
)

const testSampleRate = 16000

func sineClip(freq, seconds, amplitude float64) audio.Clip {
	samples := make([]float64, int(seconds*testSampleRate))
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return audio.Clip{Samples: samples, SampleRate: testSampleRate}
}

func silentClip(seconds float64) audio.Clip {
	return audio.Clip{
		Samples:    make([]float64, int(seconds*testSampleRate)),
		SampleRate: testSampleRate,
	}
}

// burstClip gates a carrier tone on for burstSecs at every beat of the
// given tempo.
func burstClip(bpm, seconds, burstSecs float64) audio.Clip {
	period := 60.0 / bpm
	samples := make([]float64, int(seconds*testSampleRate))
	for i := range samples {
		t := float64(i) / testSampleRate
		if math.Mod(t, period) < burstSecs {
			samples[i] = 0.5 * math.Sin(2*math.Pi*440*t)
		}
	}
	return audio.Clip{Samples: samples, SampleRate: testSampleRate}
}

// twoToneClip plays one tone then another, exercising the pitch and
// jitter paths with candidates from both halves.
func twoToneClip(firstHz, secondHz, secondsEach float64) audio.Clip {
	first := sineClip(firstHz, secondsEach, 0.5)
	second := sineClip(secondHz, secondsEach, 0.5)
	return audio.Clip{
		Samples:    append(first.Samples, second.Samples...),
		SampleRate: testSampleRate,
	}
}

// vibratoClip sweeps a continuous-phase tone above and below a center
// frequency. The strongest frames land where the sweep dwells at its
// extremes, so the surviving candidates straddle the full depth.
func vibratoClip(centerHz, depthHz, rateHz, seconds float64) audio.Clip {
	samples := make([]float64, int(seconds*testSampleRate))
	phase := 0.0
	for i := range samples {
		t := float64(i) / testSampleRate
		freq := centerHz + depthHz*math.Sin(2*math.Pi*rateHz*t)
		phase += 2 * math.Pi * freq / testSampleRate
		samples[i] = 0.5 * math.Sin(phase)
	}
	return audio.Clip{Samples: samples, SampleRate: testSampleRate}
}

func TestAnalyze_Silence(t *testing.T) {
	report := analyzer.Analyze(silentClip(2))

	if report.PitchHz != nil {
		t.Errorf("expected pitch to be unavailable, got %f", *report.PitchHz)
	}
	if report.TempoBPM != nil {
		t.Errorf("expected tempo to be unavailable, got %f", *report.TempoBPM)
	}
	if report.Energy == nil {
		t.Fatal("expected energy to be reported for silence")
	}
	if *report.Energy != 0 {
		t.Errorf("expected zero energy, got %f", *report.Energy)
	}
	if report.Jitter != nil {
		t.Errorf("expected jitter to be unavailable, got %f", *report.Jitter)
	}
	if report.Tremble != analyzer.TrembleNotApplicable {
		t.Errorf("expected tremble %q, got %q", analyzer.TrembleNotApplicable, report.Tremble)
	}

	if lines := report.Interpret(); len(lines) != 0 {
		t.Errorf("expected no interpretation lines for silence, got %v", lines)
	}
}

func TestAnalyze_SteadyTone(t *testing.T) {
	report := analyzer.Analyze(sineClip(250, 2, 0.5))

	if report.PitchHz == nil {
		t.Fatal("expected a pitch for a steady tone")
	}
	if math.Abs(*report.PitchHz-250) > 2 {
		t.Errorf("expected pitch near 250 Hz, got %f", *report.PitchHz)
	}

	if report.TempoBPM != nil {
		t.Errorf("expected no tempo for a steady tone, got %f", *report.TempoBPM)
	}

	if report.Energy == nil {
		t.Fatal("expected energy to be reported")
	}
	want := 0.5 / math.Sqrt2
	if math.Abs(*report.Energy-want) > 0.01 {
		t.Errorf("expected energy near %f, got %f", want, *report.Energy)
	}

	if report.Jitter == nil {
		t.Fatal("expected jitter for a steady tone")
	}
	if *report.Jitter > analyzer.TrembleJitterThreshold {
		t.Errorf("expected steady-tone jitter below threshold, got %f", *report.Jitter)
	}
	if report.Tremble != analyzer.TrembleNo {
		t.Errorf("expected tremble %q, got %q", analyzer.TrembleNo, report.Tremble)
	}

	wantLines := []string{
		"High pitch — may indicate stress or excitement.",
		"No tremble detected.",
	}
	if diff := cmp.Diff(wantLines, report.Interpret()); diff != "" {
		t.Errorf("interpretation mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_WobblingPitchTrembles(t *testing.T) {
	report := analyzer.Analyze(vibratoClip(200, 60, 5, 2))

	if report.PitchHz == nil {
		t.Fatal("expected a pitch")
	}
	if report.Jitter == nil {
		t.Fatal("expected jitter with a spread of surviving candidates")
	}
	if *report.Jitter <= analyzer.TrembleJitterThreshold {
		t.Errorf("expected jitter above %f, got %f", analyzer.TrembleJitterThreshold, *report.Jitter)
	}
	if report.Tremble != analyzer.TrembleYes {
		t.Errorf("expected tremble %q, got %q", analyzer.TrembleYes, report.Tremble)
	}
}

func TestAnalyze_BurstTempo(t *testing.T) {
	report := analyzer.Analyze(burstClip(120, 4, 0.1))

	if report.TempoBPM == nil {
		t.Fatal("expected a tempo for a rhythmic clip")
	}
	if math.Abs(*report.TempoBPM-120) > 0.5 {
		t.Errorf("expected tempo near 120 BPM, got %f", *report.TempoBPM)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	clip := twoToneClip(150, 250, 1)

	first := analyzer.Analyze(clip)
	second := analyzer.Analyze(clip)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reports differ between identical runs (-want +got):\n%s", diff)
	}
}

func TestAnalyze_ReportShape(t *testing.T) {
	data, err := json.Marshal(analyzer.Analyze(silentClip(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"pitch_hz", "tempo_bpm", "energy", "jitter", "tremble"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in serialized report", key)
		}
	}
	if len(decoded) != 5 {
		t.Errorf("expected exactly 5 keys, got %d: %v", len(decoded), decoded)
	}
}

func TestAnalyzeWAV_DecodeFailure(t *testing.T) {
	_, err := analyzer.AnalyzeWAV([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("expected a decode error")
	}
	var decodeErr *audio.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("expected a DecodeError, got %T: %v", err, err)
	}
}
