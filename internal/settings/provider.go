// Package settings keeps per-notifier preferences for the message center
// and the daemon state that survives restarts.
package settings

import (
	"log/slog"
	"slices"

	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/model"
)

// DefaultGroup is the only notifier group; msgcenter has no profiles.
var DefaultGroup = model.NotifierGroup{Name: "default", Index: 0}

// Provider is an in-process center.SettingsProvider. Notifiers are
// registered as they are first seen; disabled flags are persisted through
// the save hook.
//
// Provider is not safe for concurrent use.
type Provider struct {
	logger    *slog.Logger
	notifiers map[string]*model.Notifier
	disabled  map[string]bool
	observers []center.SettingsObserver

	// save is called with the sorted disabled keys after every change.
	save func(disabled []string) error
	// advanced opens per-notifier settings; nil when none exist.
	advanced func(id model.NotifierID, notificationID string)
}

// NewProvider creates a Provider with the given notifier keys disabled.
func NewProvider(disabled []string, save func([]string) error, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{
		logger:    logger,
		notifiers: make(map[string]*model.Notifier),
		disabled:  make(map[string]bool),
		save:      save,
	}
	for _, key := range disabled {
		p.disabled[key] = true
	}
	return p
}

// SetAdvancedSettingsHandler installs the handler behind
// OnNotifierAdvancedSettingsRequested.
func (p *Provider) SetAdvancedSettingsHandler(fn func(id model.NotifierID, notificationID string)) {
	p.advanced = fn
}

// RegisterNotifier records a notifier the first time it is seen and
// returns whether it is enabled. A non-empty name or icon refreshes the
// stored ones.
func (p *Provider) RegisterNotifier(id model.NotifierID, name string, icon model.Image) bool {
	key := id.Key()
	n, ok := p.notifiers[key]
	if !ok {
		n = &model.Notifier{ID: id, Name: name, Enabled: !p.disabled[key]}
		p.notifiers[key] = n
		p.logger.Debug("notifier registered", "notifier", key, "enabled", n.Enabled)
	}
	if name != "" {
		n.Name = name
	}
	if !icon.IsEmpty() && !icon.Equal(n.Icon) {
		n.Icon = icon
		for _, o := range slices.Clone(p.observers) {
			o.UpdateIconImage(id, icon)
		}
	}
	return n.Enabled
}

// IsEnabled reports whether notifications from id are accepted.
func (p *Provider) IsEnabled(id model.NotifierID) bool {
	return !p.disabled[id.Key()]
}

// DisabledKeys returns the disabled notifier keys, sorted.
func (p *Provider) DisabledKeys() []string {
	keys := make([]string, 0, len(p.disabled))
	for key := range p.disabled {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// NotifierGroups implements center.SettingsProvider.
func (p *Provider) NotifierGroups() []model.NotifierGroup {
	return []model.NotifierGroup{DefaultGroup}
}

// ActiveNotifierGroup implements center.SettingsProvider.
func (p *Provider) ActiveNotifierGroup() model.NotifierGroup { return DefaultGroup }

// SwitchToNotifierGroup implements center.SettingsProvider.
func (p *Provider) SwitchToNotifierGroup(index int) {
	if index != DefaultGroup.Index {
		p.logger.Warn("unknown notifier group", "index", index)
	}
}

// Notifiers returns the registered notifiers ordered by id.
func (p *Provider) Notifiers() []model.Notifier {
	out := make([]model.Notifier, 0, len(p.notifiers))
	for _, n := range p.notifiers {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b model.Notifier) int { return a.ID.Compare(b.ID) })
	return out
}

// SetNotifierEnabled changes the enabled flag of notifier and tells the
// observers, even when the flag did not change.
func (p *Provider) SetNotifierEnabled(notifier model.Notifier, enabled bool) {
	key := notifier.ID.Key()
	n, ok := p.notifiers[key]
	if !ok {
		n = &model.Notifier{ID: notifier.ID, Name: notifier.Name, Icon: notifier.Icon}
		p.notifiers[key] = n
	}
	n.Enabled = enabled

	changed := p.disabled[key] == enabled
	if enabled {
		delete(p.disabled, key)
	} else {
		p.disabled[key] = true
	}
	if changed {
		p.logger.Info("notifier setting changed", "notifier", key, "enabled", enabled)
		if p.save != nil {
			if err := p.save(p.DisabledKeys()); err != nil {
				p.logger.Error("failed to save notifier settings", "error", err)
			}
		}
	}

	for _, o := range slices.Clone(p.observers) {
		o.NotifierEnabledChanged(notifier.ID, enabled)
	}
}

// NotifierHasAdvancedSettings implements center.SettingsProvider.
func (p *Provider) NotifierHasAdvancedSettings(id model.NotifierID) bool {
	_, ok := p.notifiers[id.Key()]
	return ok && p.advanced != nil
}

// OnNotifierAdvancedSettingsRequested implements center.SettingsProvider.
func (p *Provider) OnNotifierAdvancedSettingsRequested(id model.NotifierID, notificationID string) {
	if p.advanced != nil {
		p.advanced(id, notificationID)
	}
}

// AddObserver implements center.SettingsProvider.
func (p *Provider) AddObserver(o center.SettingsObserver) {
	if slices.Contains(p.observers, o) {
		return
	}
	p.observers = append(p.observers, o)
}

// RemoveObserver implements center.SettingsProvider.
func (p *Provider) RemoveObserver(o center.SettingsObserver) {
	p.observers = slices.DeleteFunc(p.observers, func(x center.SettingsObserver) bool { return x == o })
}
