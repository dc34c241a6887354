package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/msgcenter/internal/blocker"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "10s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for msgcenterd.
// Loaded from ~/.config/msgcenter/msgcenterd.toml
type DaemonConfig struct {
	Popups    PopupConfig     `toml:"popups"`
	Timeouts  TimeoutConfig   `toml:"timeouts"`
	Queue     QueueConfig     `toml:"queue"`
	QuietMode QuietModeConfig `toml:"quiet_mode"`
	Lock      LockConfig      `toml:"lock"`
	Filters   FilterConfig    `toml:"filters"`
	Notify    NotifyConfig    `toml:"notify"`
	Log       LogConfig       `toml:"log"`
}

// PopupConfig contains popup settings.
type PopupConfig struct {
	MaxVisible int `toml:"max_visible"` // DEFAULT priority popups shown at once
}

// TimeoutConfig contains popup timeouts.
// Durations can be specified as "5s", "10s", "1m", etc. or as integer milliseconds.
type TimeoutConfig struct {
	Default Duration `toml:"default"`
	High    Duration `toml:"high"`     // priority above default
	WebPage Duration `toml:"web_page"` // notifications carrying an origin url
}

// QueueConfig controls change deferral.
type QueueConfig struct {
	DeferWhileOpen bool `toml:"defer_while_open"` // hold changes while the archive is open
}

// QuietModeConfig contains quiet mode settings.
type QuietModeConfig struct {
	Enabled bool `toml:"enabled"` // Initial state when no saved state exists
}

// LockConfig contains screen lock settings.
type LockConfig struct {
	SystemBypass bool `toml:"system_bypass"` // SYSTEM priority pops up while locked
}

// FilterConfig contains notifier glob patterns.
type FilterConfig struct {
	Hide []string `toml:"hide"` // hidden everywhere
	Mute []string `toml:"mute"` // archived, never popped up
}

// NotifyConfig controls notifications about the daemon itself.
type NotifyConfig struct {
	Internal bool `toml:"internal"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Popups: PopupConfig{
			MaxVisible: 2,
		},
		Timeouts: TimeoutConfig{
			Default: Duration(8 * time.Second),
			High:    Duration(25 * time.Second),
			WebPage: Duration(20 * time.Second),
		},
		Queue: QueueConfig{
			DeferWhileOpen: true,
		},
		Lock: LockConfig{
			SystemBypass: true,
		},
		Notify: NotifyConfig{
			Internal: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() string {
	return filepath.Join(ConfigDir(), "msgcenterd.toml")
}

// LoadDaemonConfig loads the daemon configuration from path, or from
// DaemonConfigPath when path is empty. If the file doesn't exist, returns
// the default configuration.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		path = DaemonConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig writes config to path atomically.
func SaveDaemonConfig(path string, config *DaemonConfig) error {
	if path == "" {
		path = DaemonConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Popups.MaxVisible < 1 || c.Popups.MaxVisible > 20 {
		return fmt.Errorf("max_visible must be between 1 and 20, got %d", c.Popups.MaxVisible)
	}

	for name, d := range map[string]Duration{
		"default":  c.Timeouts.Default,
		"high":     c.Timeouts.High,
		"web_page": c.Timeouts.WebPage,
	} {
		if d <= 0 {
			return fmt.Errorf("timeout %s must be positive, got %s", name, d.Duration())
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if err := blocker.ValidatePatterns(c.Filters.Hide); err != nil {
		return fmt.Errorf("filters.hide: %w", err)
	}
	if err := blocker.ValidatePatterns(c.Filters.Mute); err != nil {
		return fmt.Errorf("filters.mute: %w", err)
	}

	return nil
}

// SlogLevel parses the configured log level.
func (c *DaemonConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be debug, info, warn or error", c.Log.Level)
	}
}
