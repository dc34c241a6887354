// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default CLI configuration values.
const (
	DefaultFormat     = "text"
	DefaultTimeFormat = "2006-01-02 15:04"
)

// Config is the msgcenter CLI configuration.
type Config struct {
	Output OutputConfig `toml:"output"`
}

// OutputConfig controls how the CLI prints notifications.
type OutputConfig struct {
	Format       string `toml:"format"`        // text, dmenu, ids, json, yaml
	RelativeTime bool   `toml:"relative_time"` // "3 minutes ago" instead of TimeFormat
	TimeFormat   string `toml:"time_format"`   // Go reference time layout

	// DmenuTemplate is a text/template for dmenu lines, see internal/output.
	DmenuTemplate string `toml:"dmenu_template"`
}

// ValidFormats returns the output formats the CLI understands.
func ValidFormats() []string {
	return []string{"text", "dmenu", "ids", "json", "yaml"}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:       DefaultFormat,
			RelativeTime: true,
			TimeFormat:   DefaultTimeFormat,
		},
	}
}

// ConfigDir returns the msgcenter config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "msgcenter")
}

// ConfigPath returns the path to the CLI config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, f := range ValidFormats() {
		if c.Output.Format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %v", c.Output.Format, ValidFormats())
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
