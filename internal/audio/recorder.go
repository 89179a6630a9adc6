package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNoSpeech is returned when the listen window expires without a
// single speech onset. Whether to re-record is the caller's decision.
var ErrNoSpeech = errors.New("no speech detected before listen timeout")

// FrameSource supplies successive mono PCM frames from a capture device.
// ReadFrame returns io.EOF once the source is exhausted.
type FrameSource interface {
	ReadFrame(ctx context.Context) ([]float64, error)
}

// RecorderConfig bounds a one-shot capture. All windows are measured in
// audio time so a replayed source produces an identical capture.
type RecorderConfig struct {
	SampleRate    int
	Calibration   time.Duration // ambient noise window before listening
	ListenTimeout time.Duration // max wait for a speech onset
	MaxPhrase     time.Duration // max captured phrase length
}

// DefaultRecorderConfig returns the capture bounds used by the product:
// one second of ambient calibration, a five second listen window, and
// an eight second phrase ceiling.
func DefaultRecorderConfig(sampleRate int) RecorderConfig {
	return RecorderConfig{
		SampleRate:    sampleRate,
		Calibration:   time.Second,
		ListenTimeout: 5 * time.Second,
		MaxPhrase:     8 * time.Second,
	}
}

func (c RecorderConfig) validate() error {
	if c.SampleRate <= 0 {
		return &ValidationError{Field: "SampleRate", Message: "must be positive"}
	}
	if c.Calibration < 0 {
		return &ValidationError{Field: "Calibration", Message: "must be non-negative"}
	}
	if c.ListenTimeout <= 0 {
		return &ValidationError{Field: "ListenTimeout", Message: "must be positive"}
	}
	if c.MaxPhrase <= 0 {
		return &ValidationError{Field: "MaxPhrase", Message: "must be positive"}
	}
	return nil
}

// ambientMultiplier lifts the VAD volume floor above the measured
// ambient noise so room hum does not read as speech.
const ambientMultiplier = 1.5

// Recorder performs a single blocking, bounded capture: calibrate
// against ambient noise, wait for speech, record until the speaker
// stops or the phrase ceiling is reached.
type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Recorder{cfg: cfg}, nil
}

// Record captures one phrase from the source. It returns ErrNoSpeech
// when the listen window passes without voice activity, and io.EOF
// surfaced as ErrNoSpeech when the source dries up before speech.
func (r *Recorder) Record(ctx context.Context, src FrameSource) (Clip, error) {
	ambient, err := r.calibrate(ctx, src)
	if err != nil {
		return Clip{}, err
	}

	params := DefaultVADParams(r.cfg.SampleRate)
	if floor := ambient * ambientMultiplier; floor > params.MinVolume {
		params.MinVolume = floor
	}
	vad, err := NewSimpleVAD(params)
	if err != nil {
		return Clip{}, err
	}

	return r.capture(ctx, src, vad)
}

// calibrate consumes the ambient window and returns its mean frame RMS.
func (r *Recorder) calibrate(ctx context.Context, src FrameSource) (float64, error) {
	var (
		consumed time.Duration
		total    float64
		frames   int
	)
	for consumed < r.cfg.Calibration {
		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("failed to read calibration frame: %w", err)
		}
		if len(frame) == 0 {
			continue
		}
		total += FrameRMS(frame)
		frames++
		consumed += r.frameDuration(len(frame))
	}
	if frames == 0 {
		return 0, nil
	}
	return total / float64(frames), nil
}

func (r *Recorder) capture(ctx context.Context, src FrameSource, vad *SimpleVAD) (Clip, error) {
	var (
		captured []float64
		listened time.Duration
		speaking bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return Clip{}, err
		}

		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Clip{}, fmt.Errorf("failed to read frame: %w", err)
		}
		if len(frame) == 0 {
			continue
		}

		state := vad.Process(frame)

		if !speaking {
			listened += r.frameDuration(len(frame))
			if state.Active() {
				speaking = true
				captured = append(captured, frame...)
				continue
			}
			if listened >= r.cfg.ListenTimeout {
				return Clip{}, ErrNoSpeech
			}
			continue
		}

		if !state.Active() {
			break
		}
		captured = append(captured, frame...)
		if r.frameDuration(len(captured)) >= r.cfg.MaxPhrase {
			break
		}
	}

	if !speaking || len(captured) == 0 {
		return Clip{}, ErrNoSpeech
	}
	return Clip{Samples: captured, SampleRate: r.cfg.SampleRate}, nil
}

func (r *Recorder) frameDuration(samples int) time.Duration {
	seconds := float64(samples) / float64(r.cfg.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}
