// Package config provides the configuration schema and loader for the Awaaz
// voice relay server.
package config

// LogLevel controls log verbosity for the Awaaz server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Awaaz.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server ServerConfig `yaml:"server"`
	Gemini GeminiConfig `yaml:"gemini"`
	Gate   GateConfig   `yaml:"gate"`
	Relay  RelayConfig  `yaml:"relay"`
	Modes  []ModeConfig `yaml:"modes"`
}

// ServerConfig holds network and logging settings for the Awaaz server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// StaticDir is the directory of browser client assets served at the
	// site root. Empty disables static serving.
	StaticDir string `yaml:"static_dir"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// GeminiConfig holds settings for the Gemini Live speech-to-speech backend.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. When empty, the loader
	// falls back to the GEMINI_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Model overrides the default Gemini Live model ID.
	Model string `yaml:"model"`

	// BaseURL overrides the default Gemini Live WebSocket endpoint.
	// Leave empty to use the built-in default.
	BaseURL string `yaml:"base_url"`
}

// GateConfig tunes the speech gate applied to inbound client audio.
type GateConfig struct {
	// Enabled runs every client frame through the gate unless the client's
	// session config opts out. Defaults to true.
	Enabled *bool `yaml:"enabled"`

	// EnergyCutoff is the RMS level separating quiet from loud frames for
	// threshold selection. Zero means the built-in default.
	EnergyCutoff float64 `yaml:"energy_cutoff"`

	// LowThreshold is the speech probability threshold for loud frames.
	LowThreshold float64 `yaml:"low_threshold"`

	// HighThreshold is the speech probability threshold for quiet frames.
	HighThreshold float64 `yaml:"high_threshold"`
}

// RelayConfig tunes the audio relay pipeline.
type RelayConfig struct {
	// ServiceRate is the PCM rate in Hz sent to the AI service. Zero means
	// the provider's preferred input rate.
	ServiceRate int `yaml:"service_rate"`

	// DefaultVoice is the voice used when a client does not pick one.
	DefaultVoice string `yaml:"default_voice"`

	// AllowInterruptions is the server default for sessions whose config
	// message does not set it.
	AllowInterruptions bool `yaml:"allow_interruptions"`
}

// ModeConfig describes a selectable conversation mode (persona). Clients
// pick a mode by name in their session config message.
type ModeConfig struct {
	// Name is the unique mode identifier (e.g., "wellness").
	Name string `yaml:"name"`

	// DisplayName is shown to users in the client UI.
	DisplayName string `yaml:"display_name"`

	// Description is a short blurb shown under the display name.
	Description string `yaml:"description"`

	// Icon names the client-side icon for the mode picker.
	Icon string `yaml:"icon"`

	// Color is the accent colour for the mode picker, as a CSS value.
	Color string `yaml:"color"`

	// SystemPrompt is the system instruction sent to the AI service for
	// sessions in this mode.
	SystemPrompt string `yaml:"system_prompt"`

	// Voice overrides the relay default voice for this mode.
	Voice string `yaml:"voice"`
}

// DefaultModes returns the built-in conversation modes used when the config
// file declares none.
func DefaultModes() []ModeConfig {
	return []ModeConfig{
		{
			Name:        "wellness",
			DisplayName: "Wellness Check-in",
			Description: "Talk through your day with a gentle journalling companion.",
			Icon:        "heart",
			Color:       "#7c9885",
			SystemPrompt: "You are a warm, compassionate journalling companion. " +
				"Invite the user to talk through their day and how they are feeling. " +
				"Listen more than you speak, reflect feelings back gently, and ask one " +
				"open question at a time. Never give medical advice; suggest professional " +
				"help if the user describes being in crisis. Keep responses short and spoken-word natural.",
		},
		{
			Name:        "study",
			DisplayName: "Study Partner",
			Description: "Rehearse and consolidate what you are learning out loud.",
			Icon:        "book",
			Color:       "#5b7fa6",
			SystemPrompt: "You are an encouraging study partner. Help the user rehearse " +
				"and consolidate what they are learning: ask them to explain concepts in " +
				"their own words, probe with follow-up questions, and correct mistakes " +
				"kindly with brief explanations. Keep responses short and spoken-word natural.",
		},
	}
}

// Mode returns the mode with the given name, or false if no such mode is
// configured.
func (c *Config) Mode(name string) (ModeConfig, bool) {
	for _, m := range c.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return ModeConfig{}, false
}

// GateEnabled reports the server-side gate default, treating an unset value
// as enabled.
func (c *Config) GateEnabled() bool {
	return c.Gate.Enabled == nil || *c.Gate.Enabled
}
