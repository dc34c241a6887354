package dbus

import (
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org Desktop Notifications protocol.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Priority maps the urgency onto a message center priority.
func (u Urgency) Priority() model.Priority {
	switch u {
	case UrgencyLow:
		return model.PriorityLow
	case UrgencyCritical:
		return model.PriorityMax
	default:
		return model.PriorityDefault
	}
}

// String returns the name of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// DefaultActionKey is the action invoked by clicking the notification body.
const DefaultActionKey = "default"

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (n *DBusNotification) ParsedActions() []Action {
	actions := make([]Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

// hint returns the hint value when it is present and of type T.
func hint[T any](n *DBusNotification, key string) (T, bool) {
	var zero T
	v, ok := n.Hints[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

func stringHint(n *DBusNotification, key string) string {
	s, _ := hint[string](n, key)
	return s
}

func boolHint(n *DBusNotification, key string) bool {
	b, _ := hint[bool](n, key)
	return b
}

// Urgency extracts the urgency hint, defaulting to normal.
func (n *DBusNotification) Urgency() Urgency {
	if b, ok := hint[byte](n, "urgency"); ok && b <= byte(UrgencyCritical) {
		return Urgency(b)
	}
	return UrgencyNormal
}

// Category extracts the category hint.
func (n *DBusNotification) Category() string { return stringHint(n, "category") }

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string { return stringHint(n, "desktop-entry") }

// ImagePath extracts the image-path hint, falling back to the deprecated
// image_path spelling.
func (n *DBusNotification) ImagePath() string {
	if s := stringHint(n, "image-path"); s != "" {
		return s
	}
	return stringHint(n, "image_path")
}

// ImageData extracts the raw image-data hint if it was sent as bytes.
// Structured (iiibiiay) payloads are left to the consumer.
func (n *DBusNotification) ImageData() []byte {
	data, _ := hint[[]byte](n, "image-data")
	return data
}

// OriginURL extracts the x-origin-url hint browsers attach to web
// notifications.
func (n *DBusNotification) OriginURL() string { return stringHint(n, "x-origin-url") }

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool { return boolHint(n, "transient") }

// Resident returns true if the resident hint is set.
// Resident notifications should not be auto-removed after an action is invoked.
func (n *DBusNotification) Resident() bool { return boolHint(n, "resident") }

// Progress extracts the progress value hint.
// Returns -1 if not present, otherwise the value clamped to 0-100.
// This is used by dunstify with the -h int:value:N option.
func (n *DBusNotification) Progress() int {
	v, ok := n.Hints["value"]
	if !ok {
		return -1
	}
	var p int
	switch val := v.Value().(type) {
	case int32:
		p = int(val)
	case uint32:
		p = int(val)
	case int:
		p = val
	case byte:
		p = int(val)
	default:
		return -1
	}
	return min(max(p, 0), 100)
}

// StackTag extracts the stack-tag hint for notification grouping.
// Notifications with the same stack-tag replace each other.
func (n *DBusNotification) StackTag() string {
	if s := stringHint(n, "x-dunst-stack-tag"); s != "" {
		return s
	}
	return stringHint(n, "stack-tag")
}

// ServerCapabilities lists the capabilities advertised by msgcenterd.
var ServerCapabilities = []string{
	"actions",
	"body",
	"icon-static",
	"persistence",
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "msgcenterd",
		Vendor:      "msgcenter",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}
