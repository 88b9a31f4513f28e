package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidSpeechProviders lists known speech provider names. [Validate] warns
// about unrecognised ones; a typo here otherwise only surfaces at startup.
var ValidSpeechProviders = []string{"deepgram", "mock"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
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

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Store
	if cfg.Store.PostgresDSN == "" {
		errs = append(errs, errors.New("store.postgres_dsn is required"))
	}

	// Speech
	sp := cfg.Speech
	if sp.Provider != "" && !slices.Contains(ValidSpeechProviders, sp.Provider) {
		slog.Warn("unknown speech provider name — may be a typo or third-party provider",
			"name", sp.Provider,
			"known", ValidSpeechProviders,
		)
	}
	if sp.Provider == "deepgram" && sp.APIKey == "" {
		errs = append(errs, errors.New("speech.api_key is required when speech.provider is deepgram"))
	}
	if sp.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("speech.sample_rate %d must not be negative", sp.SampleRate))
	}
	if sp.Channels < 0 || sp.Channels > 2 {
		errs = append(errs, fmt.Errorf("speech.channels %d is out of range [0, 2]", sp.Channels))
	}
	if sp.Provider == "" {
		slog.Warn("speech.provider is empty; recording sessions cannot be started")
	}

	return errors.Join(errs...)
}

// SlogLevel maps the configured level to a [slog.Level]. The empty value
// maps to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
