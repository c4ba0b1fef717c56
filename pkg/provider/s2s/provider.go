// Package s2s defines the Provider interface for speech-to-speech (S2S)
// backends.
//
// An S2S provider wraps a real-time conversational voice service that accepts
// raw audio input and returns synthesised audio and text in a single,
// stateful session. The service is an opaque bidirectional message channel:
// its wire protocol and model behaviour are the implementation's concern.
//
// The central abstraction is SessionHandle: a duplex handle whose inbound
// side is a single ordered stream of typed [Event] values — audio chunks,
// text, and turn boundaries — and whose outbound side accepts one audio chunk
// per call. Sessions are long-lived (seconds to minutes).
//
// All implementations must be safe for concurrent use.
package s2s

import "context"

// VoiceProfile identifies a synthesised voice offered by a provider.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier sent on the wire.
	ID string

	// Name is the human-readable voice name shown to clients.
	Name string

	// Provider names the backend this voice belongs to.
	Provider string
}

// SessionConfig is the initial configuration for a new S2S session. It is
// captured once at session start and never mutated afterwards.
type SessionConfig struct {
	// Voice defines the voice the model uses for synthesised speech output.
	Voice VoiceProfile

	// Instructions is the system-level persona prompt for the session.
	Instructions string

	// InputSampleRate is the PCM sample rate in Hz the service expects for
	// inbound audio. Implementations fall back to their native default when
	// zero.
	InputSampleRate int
}

// EventType discriminates the payload of an [Event].
type EventType int

const (
	// EventSetupComplete signals that the service acknowledged the setup
	// handshake and the session is ready for steady-state audio.
	EventSetupComplete EventType = iota

	// EventAudio carries one chunk of synthesised audio.
	EventAudio

	// EventText carries one text part of the model's response.
	EventText

	// EventTurnComplete signals the end of the assistant's current turn.
	EventTurnComplete
)

// String returns the human-readable name of the event type.
func (t EventType) String() string {
	switch t {
	case EventSetupComplete:
		return "setup_complete"
	case EventAudio:
		return "audio"
	case EventText:
		return "text"
	case EventTurnComplete:
		return "turn_complete"
	default:
		return "unknown"
	}
}

// Event is one inbound item from the service. A single service message may
// fan out into several events (its audio parts, its text parts, then a turn
// boundary), delivered in wire order.
type Event struct {
	// Type discriminates which payload fields are set.
	Type EventType

	// Audio is the raw synthesised audio chunk for [EventAudio].
	Audio []byte

	// MIMEType declares the encoding of Audio (e.g. "audio/pcm;rate=24000").
	MIMEType string

	// Text is the text payload for [EventText].
	Text string
}

// SessionHandle represents an open S2S session. It is an interface so that
// test code can supply mock implementations without a live connection.
//
// The session is the hot path of the relay — every method must return
// quickly. Inbound traffic is channel-based so the consumer controls pacing.
// Callers must call Close when the session is no longer needed.
type SessionHandle interface {
	// SendAudio delivers one chunk of little-endian int16 mono PCM at the
	// given sample rate to the service as a single outbound message.
	// Returns an error if the session is closed or the write fails.
	SendAudio(chunk []byte, sampleRate int) error

	// Events returns the stream of inbound service events in the order they
	// arrived on the wire. The channel is closed when the session ends; call
	// [SessionHandle.Err] afterwards to learn whether it ended cleanly.
	// Consumers must drain promptly so the receive loop is not stalled.
	Events() <-chan Event

	// Err returns the error that terminated the session, or nil if it ended
	// cleanly (or is still running).
	Err() error

	// Close terminates the session and releases all resources, closing the
	// Events channel. Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any S2S backend.
//
// Implementations must be safe for concurrent use; the relay opens one
// session per connected client.
type Provider interface {
	// Connect establishes a new session with the given configuration and
	// transmits the setup handshake. The returned handle accepts audio
	// immediately; [EventSetupComplete] on its event stream marks the
	// service's acknowledgment.
	//
	// The caller owns the SessionHandle and is responsible for Close.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)

	// Capabilities returns static metadata about the provider's model,
	// assumed constant for the lifetime of the Provider instance.
	Capabilities() Capabilities
}

// Capabilities describes static properties of an S2S provider.
type Capabilities struct {
	// InputSampleRate is the PCM rate in Hz the service expects for inbound
	// audio.
	InputSampleRate int

	// MaxSessionDurationMs is the provider's hard session lifetime limit in
	// milliseconds. Zero means no documented limit.
	MaxSessionDurationMs int

	// Voices lists the voice profiles available for this provider.
	Voices []VoiceProfile

	// DefaultVoice is the voice used when the session config names none.
	DefaultVoice string
}
