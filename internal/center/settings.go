package center

import "github.com/jmylchreest/msgcenter/internal/model"

// SettingsObserver is told about notifier setting changes.
type SettingsObserver interface {
	UpdateIconImage(id model.NotifierID, icon model.Image)
	NotifierGroupChanged()
	NotifierEnabledChanged(id model.NotifierID, enabled bool)
}

// SettingsProvider owns per-notifier enable flags. Disabling a notifier
// through it is expected to call NotifierEnabledChanged on its observers.
type SettingsProvider interface {
	NotifierGroups() []model.NotifierGroup
	ActiveNotifierGroup() model.NotifierGroup
	SwitchToNotifierGroup(index int)
	Notifiers() []model.Notifier
	SetNotifierEnabled(notifier model.Notifier, enabled bool)
	NotifierHasAdvancedSettings(id model.NotifierID) bool
	OnNotifierAdvancedSettingsRequested(id model.NotifierID, notificationID string)
	AddObserver(o SettingsObserver)
	RemoveObserver(o SettingsObserver)
}
