// Package audio holds the capture-side audio model: decoded clips,
// PCM/WAV decoding, voice activity detection, and bounded recording.
package audio

import (
	"math"
	"time"
)

// Clip is a captured audio buffer: mono samples in [-1, 1] at a native
// sample rate. A Clip is immutable once produced and owned by the
// analysis call that receives it.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playing time of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	seconds := float64(len(c.Samples)) / float64(c.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// Empty reports whether the clip holds no samples.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// FrameRMS computes the root-mean-square amplitude of one frame of samples.
func FrameRMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range frame {
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(len(frame)))
}
