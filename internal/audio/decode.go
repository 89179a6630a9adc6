package audio

import (
	"encoding/binary"
	"fmt"
)

// DecodeError indicates that a buffer could not be parsed into samples.
// It is the only hard failure in the capture pipeline; everything
// downstream degrades per-feature instead of erroring.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode audio: %s", e.Reason)
}

var _ error = (*DecodeError)(nil)

const (
	pcmBytesPerSample = 2
	pcmMaxAmplitude   = 32768.0

	wavHeaderSize = 12
	wavFormatPCM  = 1
)

// DecodePCM16 converts little-endian signed 16-bit PCM bytes to samples
// in [-1, 1). The buffer must hold a whole number of samples.
func DecodePCM16(data []byte) ([]float64, error) {
	if len(data) < pcmBytesPerSample {
		return nil, &DecodeError{Reason: "buffer too short for a single sample"}
	}
	if len(data)%pcmBytesPerSample != 0 {
		return nil, &DecodeError{Reason: "buffer length is not sample aligned"}
	}

	samples := make([]float64, len(data)/pcmBytesPerSample)
	for i := range samples {
		raw := int16(binary.LittleEndian.Uint16(data[i*pcmBytesPerSample:]))
		samples[i] = float64(raw) / pcmMaxAmplitude
	}
	return samples, nil
}

// DecodeWAV parses a RIFF/WAVE buffer holding 16-bit PCM audio and
// returns a mono clip. Stereo input is downmixed by averaging channels.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) < wavHeaderSize {
		return Clip{}, &DecodeError{Reason: "buffer too short for a RIFF header"}
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, &DecodeError{Reason: "not a RIFF/WAVE buffer"}
	}

	var (
		sampleRate uint32
		channels   uint16
		haveFormat bool
		pcm        []byte
	)

	offset := wavHeaderSize
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body+chunkSize > len(data) {
			return Clip{}, &DecodeError{Reason: fmt.Sprintf("truncated %q chunk", chunkID)}
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Clip{}, &DecodeError{Reason: "format chunk too short"}
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != wavFormatPCM {
				return Clip{}, &DecodeError{Reason: fmt.Sprintf("unsupported audio format %d, want PCM", format)}
			}
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			if channels != 1 && channels != 2 {
				return Clip{}, &DecodeError{Reason: fmt.Sprintf("unsupported channel count %d", channels)}
			}
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			if sampleRate == 0 {
				return Clip{}, &DecodeError{Reason: "sample rate is zero"}
			}
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != 16 {
				return Clip{}, &DecodeError{Reason: fmt.Sprintf("unsupported bit depth %d, want 16", bits)}
			}
			haveFormat = true
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word aligned; odd sizes carry a pad byte.
		offset = body + chunkSize + chunkSize%2
	}

	if !haveFormat {
		return Clip{}, &DecodeError{Reason: "missing format chunk"}
	}
	if pcm == nil {
		return Clip{}, &DecodeError{Reason: "missing data chunk"}
	}

	samples, err := DecodePCM16(pcm)
	if err != nil {
		return Clip{}, err
	}

	if channels == 2 {
		if len(samples)%2 != 0 {
			return Clip{}, &DecodeError{Reason: "stereo data chunk has a dangling sample"}
		}
		mono := make([]float64, len(samples)/2)
		for i := range mono {
			mono[i] = (samples[2*i] + samples[2*i+1]) / 2
		}
		samples = mono
	}

	return Clip{Samples: samples, SampleRate: int(sampleRate)}, nil
}
