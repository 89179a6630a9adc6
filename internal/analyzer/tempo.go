package analyzer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fennwick/empath/internal/audio"
)

// Envelope framing and tempo search band.
const (
	tempoFrameSecs = 0.05
	tempoHopSecs   = 0.025
	minTempoBPM    = 30.0
	maxTempoBPM    = 300.0

	// envelopeVarianceFloor marks an envelope as rhythmically flat.
	// Steady tones and silence fall below it.
	envelopeVarianceFloor = 1e-10
	// peakCorrelationFloor is the weakest normalized autocorrelation
	// peak still trusted as a beat period.
	peakCorrelationFloor = 0.1
)

// estimateTempo estimates an aggregate tempo from the autocorrelation
// of the clip's RMS envelope. The second return value is false when no
// rhythmic structure can be isolated.
func estimateTempo(clip audio.Clip) (float64, bool) {
	if clip.SampleRate <= 0 || len(clip.Samples) == 0 {
		return 0, false
	}

	frameSize := int(tempoFrameSecs * float64(clip.SampleRate))
	hopSize := int(tempoHopSecs * float64(clip.SampleRate))
	if frameSize < 1 || hopSize < 1 || len(clip.Samples) < frameSize {
		return 0, false
	}

	var envelope []float64
	for start := 0; start+frameSize <= len(clip.Samples); start += hopSize {
		envelope = append(envelope, audio.FrameRMS(clip.Samples[start:start+frameSize]))
	}

	if stat.PopVariance(envelope, nil) < envelopeVarianceFloor {
		return 0, false
	}

	mean := stat.Mean(envelope, nil)
	centered := make([]float64, len(envelope))
	for i, v := range envelope {
		centered[i] = v - mean
	}

	var zeroLag float64
	for _, v := range centered {
		zeroLag += v * v
	}
	if zeroLag == 0 {
		return 0, false
	}

	minLag := int(60.0 / maxTempoBPM / tempoHopSecs)
	maxLag := int(60.0 / minTempoBPM / tempoHopSecs)
	if maxLag >= len(centered) {
		maxLag = len(centered) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag > maxLag {
		return 0, false
	}

	correlations := make([]float64, maxLag-minLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < len(centered); i++ {
			sum += centered[i] * centered[i+lag]
		}
		correlations[lag-minLag] = sum / zeroLag
	}

	best := floats.MaxIdx(correlations)
	if correlations[best] < peakCorrelationFloor {
		return 0, false
	}

	period := float64(best+minLag) * tempoHopSecs
	return 60.0 / period, true
}
