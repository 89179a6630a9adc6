package analyzer

import "github.com/fennwick/empath/internal/audio"

// Energy framing parameters.
const (
	energyFrameSize = 2048
	energyHopSize   = 512
)

// meanRMSEnergy averages framewise RMS amplitude over the clip. Clips
// shorter than one frame are measured whole.
func meanRMSEnergy(clip audio.Clip) (float64, bool) {
	samples := clip.Samples
	if len(samples) == 0 {
		return 0, false
	}
	if len(samples) < energyFrameSize {
		return audio.FrameRMS(samples), true
	}

	var total float64
	var frames int
	for start := 0; start+energyFrameSize <= len(samples); start += energyHopSize {
		total += audio.FrameRMS(samples[start : start+energyFrameSize])
		frames++
	}
	return total / float64(frames), true
}
