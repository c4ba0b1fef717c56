package audio

import "time"

// Origin identifies which side of the relay produced a frame.
type Origin int

const (
	// OriginClient marks audio captured from the browser microphone.
	OriginClient Origin = iota

	// OriginService marks audio synthesised by the AI service.
	OriginService
)

// String returns the human-readable name of the origin.
func (o Origin) String() string {
	switch o {
	case OriginClient:
		return "client"
	case OriginService:
		return "service"
	default:
		return "unknown"
	}
}

// Frame represents a single chunk of audio flowing through the relay.
// Frames are the atomic unit of transport — decoded from client messages,
// inspected by the speech gate, resampled at the egress boundary, and
// transmitted to the AI service.
//
// A Frame is immutable once dispatched: gating and resampling return new
// frames rather than modifying Data in place.
type Frame struct {
	// Data is raw little-endian 16-bit signed PCM, mono.
	Data []byte

	// SampleRate in Hz (e.g., 44100 for browser capture, 16000 for the
	// classifier, 24000 for the AI service input).
	SampleRate int

	// Origin records which side produced the frame.
	Origin Origin
}

// NumSamples returns the number of int16 samples in the frame.
func (f Frame) NumSamples() int { return len(f.Data) / 2 }

// Duration returns the playback duration of the frame at its sample rate.
// Returns zero for frames with a non-positive sample rate.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.NumSamples()) * time.Second / time.Duration(f.SampleRate)
}
