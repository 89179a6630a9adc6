package audio

// Default VAD parameter values.
const (
	DefaultVADConfidence = 0.5
	DefaultVADStartSecs  = 0.2
	DefaultVADStopSecs   = 0.8
	DefaultVADMinVolume  = 0.01
)

// VADState represents the current voice activity state.
type VADState int

const (
	// VADStateQuiet indicates no voice activity detected.
	VADStateQuiet VADState = iota
	// VADStateStarting indicates voice is starting (within the start window).
	VADStateStarting
	// VADStateSpeaking indicates active speech.
	VADStateSpeaking
	// VADStateStopping indicates voice is stopping (within the stop window).
	VADStateStopping
)

func (s VADState) String() string {
	switch s {
	case VADStateQuiet:
		return "quiet"
	case VADStateStarting:
		return "starting"
	case VADStateSpeaking:
		return "speaking"
	case VADStateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Active reports whether the state carries speech worth capturing.
func (s VADState) Active() bool {
	return s != VADStateQuiet
}

// VADParams configures voice activity detection.
type VADParams struct {
	// Confidence threshold for voice detection (0.0-1.0).
	Confidence float64

	// StartSecs of sustained speech required before VADStateSpeaking.
	// Filters out brief noise spikes.
	StartSecs float64

	// StopSecs of silence required before returning to VADStateQuiet.
	// Allows natural pauses without ending the phrase.
	StopSecs float64

	// MinVolume is the RMS floor below which audio counts as silence.
	MinVolume float64

	// SampleRate of the frames fed to the detector, in Hz.
	SampleRate int
}

// DefaultVADParams returns the detection defaults at the given sample rate.
func DefaultVADParams(sampleRate int) VADParams {
	return VADParams{
		Confidence: DefaultVADConfidence,
		StartSecs:  DefaultVADStartSecs,
		StopSecs:   DefaultVADStopSecs,
		MinVolume:  DefaultVADMinVolume,
		SampleRate: sampleRate,
	}
}

// Validate checks that the parameters are within acceptable ranges.
func (p VADParams) Validate() error {
	if p.Confidence < 0 || p.Confidence > 1 {
		return &ValidationError{Field: "Confidence", Message: "must be between 0.0 and 1.0"}
	}
	if p.StartSecs < 0 {
		return &ValidationError{Field: "StartSecs", Message: "must be non-negative"}
	}
	if p.StopSecs < 0 {
		return &ValidationError{Field: "StopSecs", Message: "must be non-negative"}
	}
	if p.MinVolume < 0 || p.MinVolume > 1 {
		return &ValidationError{Field: "MinVolume", Message: "must be between 0.0 and 1.0"}
	}
	if p.SampleRate <= 0 {
		return &ValidationError{Field: "SampleRate", Message: "must be positive"}
	}
	return nil
}

// ValidationError reports a parameter that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

var _ error = (*ValidationError)(nil)

const (
	// smoothingAlpha is the exponential smoothing factor for frame RMS.
	smoothingAlpha = 0.3
	// maxExpectedRMS is the expected ceiling for voiced-audio RMS.
	maxExpectedRMS = 0.5
)

// SimpleVAD is an RMS-based voice activity detector. Time advances by
// the audio fed to Process, not by the wall clock, so replaying the
// same frames always walks the same state sequence.
type SimpleVAD struct {
	params VADParams

	state        VADState
	stateElapsed float64 // seconds spent in the current state
	smoothedRMS  float64
}

// NewSimpleVAD creates a detector with the given parameters.
func NewSimpleVAD(params VADParams) (*SimpleVAD, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &SimpleVAD{params: params, state: VADStateQuiet}, nil
}

// Process feeds one frame of samples and returns the resulting state.
func (v *SimpleVAD) Process(frame []float64) VADState {
	if len(frame) == 0 {
		return v.state
	}

	rms := FrameRMS(frame)
	v.smoothedRMS = smoothingAlpha*rms + (1-smoothingAlpha)*v.smoothedRMS
	probability := v.rmsToProbability(v.smoothedRMS)

	frameSecs := float64(len(frame)) / float64(v.params.SampleRate)
	next := v.computeNextState(v.state, probability, v.stateElapsed)
	if next != v.state {
		v.state = next
		v.stateElapsed = 0
	}
	v.stateElapsed += frameSecs

	return v.state
}

// State returns the current state without consuming audio.
func (v *SimpleVAD) State() VADState {
	return v.state
}

// Reset clears accumulated state for a new capture.
func (v *SimpleVAD) Reset() {
	v.state = VADStateQuiet
	v.stateElapsed = 0
	v.smoothedRMS = 0
}

func (v *SimpleVAD) rmsToProbability(rms float64) float64 {
	if rms <= v.params.MinVolume {
		return 0
	}
	probability := (rms - v.params.MinVolume) / (maxExpectedRMS - v.params.MinVolume)
	if probability < 0 {
		return 0
	}
	if probability > 1 {
		return 1
	}
	return probability
}

// computeNextState is a pure transition function over the state machine.
func (v *SimpleVAD) computeNextState(current VADState, probability, stateSecs float64) VADState {
	aboveThreshold := probability >= v.params.Confidence

	switch current {
	case VADStateQuiet:
		if aboveThreshold {
			return VADStateStarting
		}
	case VADStateStarting:
		if !aboveThreshold {
			return VADStateQuiet
		}
		if stateSecs >= v.params.StartSecs {
			return VADStateSpeaking
		}
	case VADStateSpeaking:
		if !aboveThreshold {
			return VADStateStopping
		}
	case VADStateStopping:
		if aboveThreshold {
			return VADStateSpeaking
		}
		if stateSecs >= v.params.StopSecs {
			return VADStateQuiet
		}
	}
	return current
}
