package center

import (
	"fmt"

	"github.com/jmylchreest/msgcenter/internal/blocker"
)

// Visibility is the state of the tray surface.
type Visibility int

const (
	// VisibilityTransient means the archive is closed; only popups show.
	VisibilityTransient Visibility = iota
	// VisibilityMessageCenter means the archive is open.
	VisibilityMessageCenter
	// VisibilitySettings means the notifier settings are open.
	VisibilitySettings
)

// String returns the name of the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityTransient:
		return "transient"
	case VisibilityMessageCenter:
		return "message_center"
	case VisibilitySettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ParseVisibility parses the output of Visibility.String.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "transient":
		return VisibilityTransient, nil
	case "message_center":
		return VisibilityMessageCenter, nil
	case "settings":
		return VisibilitySettings, nil
	default:
		return 0, fmt.Errorf("invalid visibility %q, must be transient, message_center or settings", s)
	}
}

// DisplaySource says where a notification was displayed.
type DisplaySource int

const (
	DisplaySourcePopup DisplaySource = iota
	DisplaySourceMessageCenter
)

// String returns the name of the source.
func (s DisplaySource) String() string {
	if s == DisplaySourceMessageCenter {
		return "message_center"
	}
	return "popup"
}

// Observer receives message center events. Callbacks run synchronously
// after the mutation and cache rebuild, before the triggering call returns.
type Observer interface {
	OnNotificationAdded(id string)
	OnNotificationRemoved(id string, byUser bool)
	OnNotificationUpdated(id string)
	OnNotificationClicked(id string)
	OnNotificationButtonClicked(id string, index int)
	OnNotificationDisplayed(id string, source DisplaySource)
	OnCenterVisibilityChanged(v Visibility)
	OnQuietModeChanged(inQuietMode bool)
	OnLockedStateChanged(locked bool)
	OnBlockingStateChanged(b blocker.Blocker)
}

// NopObserver implements Observer with no-ops, for embedding.
type NopObserver struct{}

func (NopObserver) OnNotificationAdded(string) {}
func (NopObserver) OnNotificationRemoved(string, bool) {}
func (NopObserver) OnNotificationUpdated(string) {}
func (NopObserver) OnNotificationClicked(string) {}
func (NopObserver) OnNotificationButtonClicked(string, int) {}
func (NopObserver) OnNotificationDisplayed(string, DisplaySource) {}
func (NopObserver) OnCenterVisibilityChanged(Visibility) {}
func (NopObserver) OnQuietModeChanged(bool) {}
func (NopObserver) OnLockedStateChanged(bool) {}
func (NopObserver) OnBlockingStateChanged(blocker.Blocker) {}
