package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// DataDir returns the msgcenter data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/msgcenter.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "msgcenter"), nil
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// QuietTrigger represents what triggered a quiet mode change.
type QuietTrigger string

const (
	// QuietTriggerUser is a change requested over the control interface.
	QuietTriggerUser QuietTrigger = "user"
	// QuietTriggerConfig is a change made by loading the config.
	QuietTriggerConfig QuietTrigger = "config"
	// QuietTriggerExpiry is a timed quiet mode running out.
	QuietTriggerExpiry QuietTrigger = "expiry"
)

// QuietTransition records details about a quiet mode change.
type QuietTransition struct {
	Trigger   QuietTrigger `json:"trigger"`
	Reason    string       `json:"reason"`
	Source    string       `json:"source,omitempty"` // e.g. "cli", "msgcenterd"
	Timestamp int64        `json:"timestamp"`
}

// SharedState is the daemon state that outlives a restart. It is
// persisted to ~/.local/share/msgcenter/state.json.
type SharedState struct {
	QuietMode bool `json:"quiet_mode"`
	// QuietModeUntil is a unix timestamp, zero when quiet mode has no expiry.
	QuietModeUntil int64 `json:"quiet_mode_until,omitempty"`

	QuietLastTransition *QuietTransition `json:"quiet_last_transition,omitempty"`

	// DisabledNotifiers holds NotifierID keys.
	DisabledNotifiers []string `json:"disabled_notifiers,omitempty"`

	LastNotificationAt int64 `json:"last_notification_at,omitempty"`

	SchemaVersion int `json:"schema_version"`
}

// CurrentSchemaVersion is the current version of the state schema.
const CurrentSchemaVersion = 1

// stateFileMutex protects concurrent access to state files.
var stateFileMutex sync.RWMutex

// DefaultSharedState returns a new SharedState with default values.
func DefaultSharedState() *SharedState {
	return &SharedState{SchemaVersion: CurrentSchemaVersion}
}

// LoadSharedState loads the state at path. A missing or corrupt file
// yields the default state.
func LoadSharedState(path string) (*SharedState, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSharedState(), nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultSharedState(), nil
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}
	return &state, nil
}

// SaveSharedState writes state to path atomically.
func SaveSharedState(path string, state *SharedState) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// SetQuietMode records a quiet mode change. until is the zero time for an
// open-ended quiet mode.
func (s *SharedState) SetQuietMode(enabled bool, until time.Time, trigger QuietTrigger, reason, source string) {
	s.QuietMode = enabled
	s.QuietModeUntil = 0
	if enabled && !until.IsZero() {
		s.QuietModeUntil = until.Unix()
	}
	s.QuietLastTransition = &QuietTransition{
		Trigger:   trigger,
		Reason:    reason,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}
}

// QuietRemaining returns how long a timed quiet mode has left at now. ok
// is false when quiet mode is off, open-ended, or already expired.
func (s *SharedState) QuietRemaining(now time.Time) (time.Duration, bool) {
	if !s.QuietMode || s.QuietModeUntil == 0 {
		return 0, false
	}
	d := time.Unix(s.QuietModeUntil, 0).Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// SetDisabledNotifiers replaces the disabled notifier keys, sorted.
func (s *SharedState) SetDisabledNotifiers(keys []string) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	s.DisabledNotifiers = slices.Compact(keys)
}

// UpdateLastNotification updates the last notification timestamp.
func (s *SharedState) UpdateLastNotification() {
	s.LastNotificationAt = time.Now().Unix()
}
