package blocker

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Filter blocks notifiers matching glob patterns. Patterns are matched
// against the notifier key ("app:firefox") and the bare id or url.
// Hide patterns remove notifications from view, mute patterns only keep
// them from popping up.
type Filter struct {
	Base

	logger *slog.Logger
	hide   []string
	mute   []string
}

// NewFilter creates a Filter. Invalid patterns are rejected.
func NewFilter(hide, mute []string, logger *slog.Logger) (*Filter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Filter{logger: logger}
	if err := f.setPatterns(hide, mute); err != nil {
		return nil, err
	}
	return f, nil
}

// ValidatePatterns checks that every pattern is well formed.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid filter pattern %q", p)
		}
	}
	return nil
}

func (f *Filter) setPatterns(hide, mute []string) error {
	if err := ValidatePatterns(hide); err != nil {
		return err
	}
	if err := ValidatePatterns(mute); err != nil {
		return err
	}
	f.hide = slices.Clone(hide)
	f.mute = slices.Clone(mute)
	return nil
}

// SetPatterns replaces both pattern lists and notifies observers when they
// changed.
func (f *Filter) SetPatterns(hide, mute []string) error {
	if slices.Equal(f.hide, hide) && slices.Equal(f.mute, mute) {
		return nil
	}
	if err := f.setPatterns(hide, mute); err != nil {
		return err
	}
	f.logger.Debug("filter patterns updated", "hide", len(hide), "mute", len(mute))
	f.NotifyBlockingStateChanged(f)
	return nil
}

func matchAny(patterns []string, id model.NotifierID) bool {
	key := id.Key()
	subject := id.ID
	if id.Type == model.NotifierWebPage {
		subject = id.URL
	}
	for _, p := range patterns {
		// Patterns are validated up front, so errors cannot occur here.
		if ok, _ := doublestar.Match(p, key); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, subject); ok {
			return true
		}
	}
	return false
}

// ShouldShowNotification hides notifiers matching a hide pattern.
func (f *Filter) ShouldShowNotification(n *model.Notification) bool {
	return !matchAny(f.hide, n.NotifierID)
}

// ShouldShowNotificationAsPopup mutes notifiers matching either list.
func (f *Filter) ShouldShowNotificationAsPopup(n *model.Notification) bool {
	return !matchAny(f.hide, n.NotifierID) && !matchAny(f.mute, n.NotifierID)
}
