// Package config loads and persists the clipstream CLI's configuration
// file. The library itself is configured purely through clipstream.Options;
// this file only seeds the CLI's flag defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of the clipstream CLI.
type Config struct {
	// InstanceID identifies this installation in logs. Generated on first
	// run and persisted.
	InstanceID string `json:"instance_id" yaml:"instance_id"`

	// Log selects the CLI logger's verbosity and encoding.
	Log LogConfig `json:"log" yaml:"log"`

	// Watch carries the observation options the CLI passes to the library.
	Watch WatchConfig `json:"watch" yaml:"watch"`
}

// LogConfig holds logging-related configuration.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // zap level string
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

// WatchConfig holds clipboard observation options.
type WatchConfig struct {
	IntervalMS    int64    `json:"interval_ms" yaml:"interval_ms"`
	MaxSize       int64    `json:"max_size" yaml:"max_size"`
	MaxImageSize  int64    `json:"max_image_size" yaml:"max_image_size"`
	CustomFormats []string `json:"custom_formats" yaml:"custom_formats"`
}

// Dir returns the configuration directory, honoring CLIPSTREAM_CONFIG_DIR.
func Dir() (string, error) {
	if dir := os.Getenv("CLIPSTREAM_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "clipstream"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns a Config with default values and a fresh instance id.
func DefaultConfig() *Config {
	return &Config{
		InstanceID: uuid.New().String(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Watch: WatchConfig{
			IntervalMS: 200,
		},
	}
}

// Load reads the configuration from the specified file, creating it with
// defaults when it does not exist. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.Save(path); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Files written by hand may lack an instance id; generate and persist.
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.New().String()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to persist instance id: %w", err)
		}
	}

	return &cfg, nil
}

// Save saves the configuration to the specified file, creating its
// directory first.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
