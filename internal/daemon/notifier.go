package daemon

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/model"
)

// NotifierID identifies notifications msgcenterd posts about itself.
var NotifierID = model.SystemNotifier("msgcenterd")

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo pops up with default priority.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning pops up with high priority.
	NotificationLevelWarning
	// NotificationLevelError keeps popping up until it is read.
	NotificationLevelError
)

// Priority maps the level onto a notification priority.
func (l NotificationLevel) Priority() model.Priority {
	switch l {
	case NotificationLevelWarning:
		return model.PriorityHigh
	case NotificationLevelError:
		return model.PrioritySystem
	default:
		return model.PriorityDefault
	}
}

// Icon returns the themed icon name for the level.
func (l NotificationLevel) Icon() string {
	switch l {
	case NotificationLevelWarning:
		return "dialog-warning"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}

// InternalNotifier posts notifications about msgcenterd's own events into
// the message center. The same key is not repeated within minInterval.
// It must be used from the loop goroutine.
type InternalNotifier struct {
	logger *slog.Logger
	clock  center.Clock

	handler func(n *model.Notification)

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(clock center.Clock, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		clock:          clock,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetHandler sets the function that receives the notifications, normally
// MessageCenter.AddNotification.
func (n *InternalNotifier) SetHandler(handler func(n *model.Notification)) {
	n.handler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.minInterval = interval
}

// Notify posts an internal notification unless it is rate limited.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	if !n.enabled {
		return
	}
	if n.handler == nil {
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	now := n.clock.Now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return
	}

	id, err := model.NewID()
	if err != nil {
		n.logger.Warn("failed to create internal notification id", "error", err)
		return
	}
	notification, err := model.New(model.TypeSimple, id, summary, body, NotifierID)
	if err != nil {
		n.logger.Warn("failed to create internal notification", "error", err)
		return
	}
	notification.Priority = level.Priority()
	notification.Icon = model.Image{Path: level.Icon()}
	notification.Timestamp = now
	notification.Clickable = false

	n.lastNotifyTime[key] = now
	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	n.handler(notification)
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"msgcenterd configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError reports a config that failed to load.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyStateError reports that shared state could not be saved.
func (n *InternalNotifier) NotifyStateError(err error) {
	n.Notify(
		"state-error",
		"State Error",
		"Failed to save msgcenter state: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyStartup reports that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"msgcenterd Started",
		"Message center v"+version+" is now running.",
		NotificationLevelInfo,
	)
}
