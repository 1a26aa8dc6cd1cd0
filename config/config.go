// Package config handles loading and managing application configuration
// from .env files, YAML files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

// HistoryConfig selects where generated codes are remembered.
type HistoryConfig struct {
	Backend string `yaml:"backend"`
	Max     int    `yaml:"max"`
}

// BatchConfig bounds batch runs.
type BatchConfig struct {
	Workers   int `yaml:"workers"`
	MaxValues int `yaml:"max_values"`
}

// DefaultsConfig holds the options used when a request leaves them out.
type DefaultsConfig struct {
	QR          qrgen.Options `yaml:"qr"`
	LogoPercent int           `yaml:"logo_percent"`
}

// Config holds all application configuration values.
type Config struct {
	Port           int            `yaml:"port"`
	DataDir        string         `yaml:"data_dir"`
	LogLevel       string         `yaml:"log_level"`
	RequestTimeout Duration       `yaml:"request_timeout"`
	MaxUploadBytes int64          `yaml:"max_upload_bytes"`
	History        HistoryConfig  `yaml:"history"`
	Batch          BatchConfig    `yaml:"batch"`
	Defaults       DefaultsConfig `yaml:"defaults"`
}

// Logo size limits, in percent of the QR width.
const (
	MinLogoPercent = 10
	MaxLogoPercent = 30
)

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a Config populated with sensible default values.
func Default() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		Port:           8555,
		DataDir:        filepath.Join(homeDir, ".instant-qr"),
		LogLevel:       "info",
		RequestTimeout: Duration{60 * time.Second},
		MaxUploadBytes: 10 << 20,
		History: HistoryConfig{
			Backend: store.BackendMemory,
			Max:     100,
		},
		Batch: BatchConfig{
			Workers:   4,
			MaxValues: 1000,
		},
		Defaults: DefaultsConfig{
			QR:          qrgen.DefaultOptions(),
			LogoPercent: 20,
		},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. A .env file in the working directory
// is loaded first; variables already set in the environment win over it.
// Environment variables with the IQR_ prefix override any file or default
// values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies IQR_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"IQR_PORT", &cfg.Port},
		{"IQR_HISTORY_MAX", &cfg.History.Max},
		{"IQR_BATCH_WORKERS", &cfg.Batch.Workers},
	}
	for _, o := range ints {
		v := os.Getenv(o.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", o.name, v, err)
		}
		*o.dst = n
	}

	if v := os.Getenv("IQR_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("IQR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("IQR_HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("IQR_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid IQR_REQUEST_TIMEOUT %q: %w", v, err)
		}
		cfg.RequestTimeout = Duration{d}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("config: port %d out of range", c.Port)
	case c.History.Backend != store.BackendMemory && c.History.Backend != store.BackendSQLite:
		return fmt.Errorf("config: unknown history backend %q", c.History.Backend)
	case c.History.Max < 1:
		return fmt.Errorf("config: history max must be positive, got %d", c.History.Max)
	case c.Batch.Workers < 1:
		return fmt.Errorf("config: batch workers must be positive, got %d", c.Batch.Workers)
	case c.Batch.MaxValues < 0:
		return fmt.Errorf("config: batch max_values must not be negative, got %d", c.Batch.MaxValues)
	case c.MaxUploadBytes < 1:
		return fmt.Errorf("config: max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	case c.RequestTimeout.Duration <= 0:
		return fmt.Errorf("config: request_timeout must be positive, got %s", c.RequestTimeout)
	case c.Defaults.LogoPercent < MinLogoPercent || c.Defaults.LogoPercent > MaxLogoPercent:
		return fmt.Errorf("config: logo_percent must be between %d and %d, got %d",
			MinLogoPercent, MaxLogoPercent, c.Defaults.LogoPercent)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if err := c.Defaults.QR.Validate(); err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	return nil
}

// EnsureDataDir creates the DataDir if the history lives on disk.
func (c *Config) EnsureDataDir() error {
	if c.History.Backend != store.BackendSQLite {
		return nil
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}
