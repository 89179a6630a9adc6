package analyzer

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/fennwick/empath/internal/audio"
)

// Framing and band parameters for the pitch tracker.
const (
	pitchWindowSize = 1024
	pitchHopSize    = 512
	minPitchHz      = 80.0
	maxPitchHz      = 1000.0
)

// pitchCandidate is one frame's strongest spectral peak inside the
// voice band, with its magnitude as a confidence weight.
type pitchCandidate struct {
	frequency float64
	magnitude float64
}

// trackPitch yields one candidate per Hann-windowed frame. Clips
// shorter than one window are zero padded to a single frame.
func trackPitch(clip audio.Clip) []pitchCandidate {
	if clip.SampleRate <= 0 || len(clip.Samples) == 0 {
		return nil
	}

	samples := clip.Samples
	if len(samples) < pitchWindowSize {
		padded := make([]float64, pitchWindowSize)
		copy(padded, samples)
		samples = padded
	}

	binHz := float64(clip.SampleRate) / pitchWindowSize
	loBin := int(math.Ceil(minPitchHz / binHz))
	hiBin := int(math.Floor(maxPitchHz / binHz))
	if loBin < 1 {
		loBin = 1
	}
	if hiBin > pitchWindowSize/2 {
		hiBin = pitchWindowSize / 2
	}
	if loBin > hiBin {
		return nil
	}

	window := hannWindow(pitchWindowSize)
	numFrames := (len(samples)-pitchWindowSize)/pitchHopSize + 1
	candidates := make([]pitchCandidate, 0, numFrames)

	frame := make([]float64, pitchWindowSize)
	for f := range numFrames {
		start := f * pitchHopSize
		for i := range frame {
			frame[i] = samples[start+i] * window[i]
		}

		spectrum := fft.FFTReal(frame)

		peakBin := loBin
		peakMag := 0.0
		for b := loBin; b <= hiBin; b++ {
			if mag := cmplx.Abs(spectrum[b]); mag > peakMag {
				peakMag = mag
				peakBin = b
			}
		}

		candidates = append(candidates, pitchCandidate{
			frequency: interpolatePeakHz(spectrum, peakBin, binHz),
			magnitude: peakMag,
		})
	}

	return candidates
}

// interpolatePeakHz refines the peak bin to sub-bin precision by
// fitting a parabola through the peak and its neighbors.
func interpolatePeakHz(spectrum []complex128, bin int, binHz float64) float64 {
	if bin <= 0 || bin+1 >= len(spectrum) {
		return float64(bin) * binHz
	}

	alpha := cmplx.Abs(spectrum[bin-1])
	beta := cmplx.Abs(spectrum[bin])
	gamma := cmplx.Abs(spectrum[bin+1])

	denom := alpha - 2*beta + gamma
	if math.Abs(denom) < 1e-12 {
		return float64(bin) * binHz
	}

	offset := 0.5 * (alpha - gamma) / denom
	if offset > 0.5 {
		offset = 0.5
	}
	if offset < -0.5 {
		offset = -0.5
	}
	return (float64(bin) + offset) * binHz
}

// survivingPitches applies the adaptive confidence filter: the median
// of all nonzero magnitudes is the threshold, candidates at or above
// it keep their frequencies, zero or negative frequencies are dropped.
// The median threshold adapts to the clip, so silent and noisy frames
// need no fixed calibration constant.
func survivingPitches(candidates []pitchCandidate) []float64 {
	nonzero := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if c.magnitude > 0 {
			nonzero = append(nonzero, c.magnitude)
		}
	}
	if len(nonzero) == 0 {
		return nil
	}

	threshold := median(nonzero)
	survivors := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if c.magnitude >= threshold && c.frequency > 0 {
			survivors = append(survivors, c.frequency)
		}
	}
	return survivors
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}
