package daemon

import (
	"log/slog"
	"strconv"

	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/dbus"
	"github.com/jmylchreest/msgcenter/internal/model"
	"github.com/jmylchreest/msgcenter/internal/settings"
)

// Bridge turns freedesktop Notify and CloseNotification calls into message
// center changes. HandleNotify and HandleClose may be called from any
// goroutine; everything else runs on the loop.
type Bridge struct {
	center.NopObserver

	mc       *center.MessageCenter
	provider *settings.Provider
	signaler dbus.Signaler
	post     func(func()) bool
	clock    center.Clock
	logger   *slog.Logger

	// live holds the ids the center knows about, applied or queued.
	live       map[string]bool
	onReceived func(n *model.Notification)
}

// NewBridge creates a bridge and registers it as an observer of mc.
func NewBridge(mc *center.MessageCenter, provider *settings.Provider, signaler dbus.Signaler,
	post func(func()) bool, clock center.Clock, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{
		mc:       mc,
		provider: provider,
		signaler: signaler,
		post:     post,
		clock:    clock,
		logger:   logger,
		live:     make(map[string]bool),
	}
	mc.AddObserver(b)
	return b
}

// SetReceivedCallback sets a hook run for every accepted notification.
func (b *Bridge) SetReceivedCallback(fn func(n *model.Notification)) {
	b.onReceived = fn
}

// HandleNotify is a dbus.NotificationHandler.
func (b *Bridge) HandleNotify(n *dbus.DBusNotification, id uint32) {
	if !b.post(func() { b.Notify(n, id) }) {
		b.logger.Warn("notification dropped, loop stopped", "id", id)
	}
}

// HandleClose is a dbus.CloseHandler.
func (b *Bridge) HandleClose(id uint32) {
	b.post(func() { b.Close(id) })
}

// Key returns the message center id of D-Bus notification id.
func Key(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Notify adds or replaces the notification for a Notify call.
func (b *Bridge) Notify(n *dbus.DBusNotification, id uint32) {
	key := Key(id)
	notifier := n.NotifierID()

	name := n.AppName
	if name == "" {
		name = notifier.Key()
	}
	if !b.provider.RegisterNotifier(notifier, name, model.Image{Path: n.AppIcon}) {
		b.logger.Debug("notification from disabled notifier dropped", "id", key, "notifier", notifier.Key())
		if err := b.signaler.CloseWithReason(id, dbus.CloseReasonUndefined); err != nil {
			b.logger.Debug("failed to report dropped notification", "id", key, "error", err)
		}
		return
	}

	delegate := dbus.NewDelegate(b.signaler, id, n, b.logger)
	delegate.AfterAction = func() {
		b.post(func() { b.mc.RemoveNotification(key, true) })
	}

	notification, err := n.ToNotification(key, delegate)
	if err != nil {
		b.logger.Warn("invalid notification rejected", "id", key, "app_name", n.AppName, "error", err)
		return
	}
	notification.Timestamp = b.clock.Now()

	if b.onReceived != nil {
		b.onReceived(notification)
	}

	if n.ReplacesID != 0 && b.live[key] {
		b.mc.UpdateNotification(key, notification)
		return
	}
	b.live[key] = true
	b.mc.AddNotification(notification)
}

// Close removes the notification for a CloseNotification call.
func (b *Bridge) Close(id uint32) {
	key := Key(id)
	delete(b.live, key)
	b.mc.RemoveNotification(key, false)
}

// OnNotificationRemoved forgets ids the center dropped.
func (b *Bridge) OnNotificationRemoved(id string, _ bool) {
	delete(b.live, id)
}
