package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"staticstore/internal/persist"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Save variants.
const (
	VariantImmediate = "immediate"
	VariantDebounced = "debounced"
)

// Config holds all staticstore configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects the slot file and how saves reach it.
type StorageConfig struct {
	// ProjectRoot anchors a relative SaveDir (default: working directory).
	ProjectRoot string `yaml:"project_root"`
	SaveDir     string `yaml:"save_dir"`
	FilePrefix  string `yaml:"file_prefix"`
	Slot        int    `yaml:"slot"`

	// Variant is "immediate" or "debounced".
	Variant          string `yaml:"variant"`
	DebounceInterval string `yaml:"debounce_interval"`

	// AsyncIO performs directory creation and writes on a background worker.
	AsyncIO bool `yaml:"async_io"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			ProjectRoot:      ".",
			SaveDir:          "save",
			FilePrefix:       "static_storage_",
			Slot:             0,
			Variant:          VariantDebounced,
			DebounceInterval: "500ms",
			AsyncIO:          true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// envOverrides lists the STATICSTORE_* variables. Unset variables stay nil.
type envOverrides struct {
	ProjectRoot *string `env:"PROJECT_ROOT"`
	SaveDir     *string `env:"SAVE_DIR"`
	Slot        *int    `env:"SLOT"`
	Variant     *string `env:"VARIANT"`
	Debounce    *string `env:"DEBOUNCE"`
	AsyncIO     *bool   `env:"ASYNC_IO"`
	Debug       *bool   `env:"DEBUG"`
	LogLevel    *string `env:"LOG_LEVEL"`
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: "STATICSTORE_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.ProjectRoot != nil {
		c.Storage.ProjectRoot = *o.ProjectRoot
	}
	if o.SaveDir != nil {
		c.Storage.SaveDir = *o.SaveDir
	}
	if o.Slot != nil {
		c.Storage.Slot = *o.Slot
	}
	if o.Variant != nil {
		c.Storage.Variant = *o.Variant
	}
	if o.Debounce != nil {
		c.Storage.DebounceInterval = *o.Debounce
	}
	if o.AsyncIO != nil {
		c.Storage.AsyncIO = *o.AsyncIO
	}
	if o.Debug != nil {
		c.Logging.DebugMode = *o.Debug
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	return nil
}

// Validate checks the configuration for values the store cannot work with.
func (c *Config) Validate() error {
	s := c.Storage
	if s.SaveDir == "" {
		return fmt.Errorf("storage.save_dir is required")
	}
	if s.FilePrefix == "" {
		return fmt.Errorf("storage.file_prefix is required")
	}
	if filepath.Base(s.FilePrefix) != s.FilePrefix {
		return fmt.Errorf("storage.file_prefix %q must not contain a path separator", s.FilePrefix)
	}
	if s.Slot < 0 {
		return fmt.Errorf("storage.slot must be >= 0, got %d", s.Slot)
	}
	switch s.Variant {
	case VariantImmediate, VariantDebounced:
	default:
		return fmt.Errorf("storage.variant must be %q or %q, got %q", VariantImmediate, VariantDebounced, s.Variant)
	}
	if s.Variant == VariantDebounced && s.DebounceInterval != "" {
		if _, err := time.ParseDuration(s.DebounceInterval); err != nil {
			return fmt.Errorf("storage.debounce_interval: %w", err)
		}
	}
	return nil
}

// SaveDirPath returns the save directory, resolved against ProjectRoot.
func (c *Config) SaveDirPath() string {
	if filepath.IsAbs(c.Storage.SaveDir) {
		return c.Storage.SaveDir
	}
	root := c.Storage.ProjectRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, c.Storage.SaveDir)
}

// Location returns the slot file location passed to the I/O controller.
func (c *Config) Location() persist.Location {
	return persist.Location{
		Dir:    c.SaveDirPath(),
		Prefix: c.Storage.FilePrefix,
		Slot:   c.Storage.Slot,
	}
}

// GetDebounceInterval returns the quiet interval, clamped to the supported
// range. It is zero for the immediate variant.
func (c *Config) GetDebounceInterval() time.Duration {
	if c.Storage.Variant == VariantImmediate {
		return 0
	}
	d, err := time.ParseDuration(c.Storage.DebounceInterval)
	if err != nil {
		d = 500 * time.Millisecond
	}
	return persist.ClampDebounce(d)
}
