package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// apiKeyEnv is the environment variable consulted when gemini.api_key is not
// set in the config file. Keeping the key out of the file is the recommended
// deployment shape.
const apiKeyEnv = "GEMINI_API_KEY"

// defaultListenAddr is used when server.listen_addr is empty.
const defaultListenAddr = ":8080"

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with their defaults: the listen address,
// the info log level, the built-in conversation modes, and the API key from
// the environment.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv(apiKeyEnv)
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = DefaultModes()
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Gemini
	if cfg.Gemini.APIKey == "" {
		slog.Warn("gemini.api_key is empty and " + apiKeyEnv + " is not set; sessions will fail to connect")
	}

	// Gate thresholds
	if cfg.Gate.EnergyCutoff < 0 {
		errs = append(errs, fmt.Errorf("gate.energy_cutoff %.4f must not be negative", cfg.Gate.EnergyCutoff))
	}
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"gate.low_threshold", cfg.Gate.LowThreshold},
		{"gate.high_threshold", cfg.Gate.HighThreshold},
	} {
		if th.value < 0 || th.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.4f is out of range [0, 1]", th.name, th.value))
		}
	}
	if cfg.Gate.LowThreshold != 0 && cfg.Gate.HighThreshold != 0 &&
		cfg.Gate.LowThreshold > cfg.Gate.HighThreshold {
		errs = append(errs, fmt.Errorf("gate.low_threshold %.4f must not exceed gate.high_threshold %.4f",
			cfg.Gate.LowThreshold, cfg.Gate.HighThreshold))
	}

	// Relay
	if cfg.Relay.ServiceRate < 0 {
		errs = append(errs, fmt.Errorf("relay.service_rate %d must not be negative", cfg.Relay.ServiceRate))
	}

	// Mode duplicate name detection
	modeNamesSeen := make(map[string]int, len(cfg.Modes))
	for i, mode := range cfg.Modes {
		prefix := fmt.Sprintf("modes[%d]", i)
		if mode.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := modeNamesSeen[mode.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of modes[%d]", prefix, mode.Name, prev))
			}
			modeNamesSeen[mode.Name] = i
		}
		if mode.SystemPrompt == "" {
			errs = append(errs, fmt.Errorf("%s.system_prompt is required", prefix))
		}
	}

	return errors.Join(errs...)
}
