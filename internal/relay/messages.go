package relay

// Wire types for the client WebSocket protocol. Inbound messages are tagged
// "config" (first message of a session) or "audio"; outbound messages are
// tagged "audio", "text", "status", or "error".

// Inbound message types.
const (
	TypeConfig = "config"
	TypeAudio  = "audio"
)

// Outbound message types.
const (
	TypeText   = "text"
	TypeStatus = "status"
	TypeError  = "error"
)

// Status values sent to the client.
const (
	// StatusConfigReceived acknowledges the session configuration message.
	StatusConfigReceived = "config_received"

	// StatusConnected signals that the AI-service channel is open.
	StatusConnected = "connected"

	// StatusListening signals that the assistant finished its turn and the
	// session is ready to listen again.
	StatusListening = "listening"

	// StatusSetupTimeout warns that the AI service never acknowledged the
	// setup handshake; the session continues optimistically.
	StatusSetupTimeout = "setup_timeout"
)

// InboundMessage is one message received from the client.
type InboundMessage struct {
	// Type tags the message: "config" or "audio".
	Type string `json:"type"`

	// Data is base64-encoded s16le mono PCM for audio messages.
	Data string `json:"data,omitempty"`

	// SampleRate declares the PCM rate of Data in Hz. Defaults to
	// [DefaultClientRate] when omitted.
	SampleRate int `json:"sampleRate,omitempty"`

	// Config carries the session configuration for config messages.
	Config *ClientConfig `json:"config,omitempty"`
}

// ClientConfig is the configuration payload of the session's first message.
type ClientConfig struct {
	// Mode selects a configured agent mode (persona). The mode's system
	// prompt becomes the session's instructions.
	Mode string `json:"mode,omitempty"`

	// Voice selects the synthesised voice by provider voice ID.
	Voice string `json:"voice,omitempty"`

	// AllowInterruptions permits client audio to be forwarded while the
	// assistant is speaking (barge-in).
	AllowInterruptions bool `json:"allow_interruptions,omitempty"`

	// GateEnabled toggles the speech gate for this session. Nil means
	// enabled (the server default).
	GateEnabled *bool `json:"vad_enabled,omitempty"`
}

// OutboundMessage is one message sent to the client.
type OutboundMessage struct {
	// Type tags the message: "audio", "text", "status", or "error".
	Type string `json:"type"`

	// Data is the base64-encoded audio payload for audio messages.
	Data string `json:"data,omitempty"`

	// MIMEType declares the encoding of Data (e.g. "audio/pcm;rate=24000").
	MIMEType string `json:"mimeType,omitempty"`

	// Text is the payload of text messages and the human-readable detail of
	// status and error messages.
	Text string `json:"text,omitempty"`

	// Status carries the status value for status messages.
	Status string `json:"status,omitempty"`
}
