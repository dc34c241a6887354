package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/dbus"
	"github.com/jmylchreest/msgcenter/internal/model"
	"github.com/jmylchreest/msgcenter/internal/settings"
)

// ErrNotFound is returned for control calls naming an unknown notification.
var ErrNotFound = errors.New("notification not found")

const (
	callTimeout = 5 * time.Second
	stateSource = "msgcenterd"
)

// Controller serves control requests by running them on the loop. It also
// observes quiet mode so changes, including expiry, are persisted.
type Controller struct {
	center.NopObserver

	loop     *Loop
	mc       *center.MessageCenter
	state    *settings.SharedState
	save     func(*settings.SharedState) error
	notifier *InternalNotifier
	logger   *slog.Logger

	callTimeout time.Duration

	// applying is set while the controller itself changes quiet mode.
	applying bool
}

var _ dbus.Controller = (*Controller)(nil)

// NewController creates a controller and registers it as an observer of
// mc. save persists state and may be nil.
func NewController(loop *Loop, mc *center.MessageCenter, state *settings.SharedState,
	save func(*settings.SharedState) error, notifier *InternalNotifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		loop:     loop,
		mc:       mc,
		state:    state,
		save:     save,
		notifier: notifier,
		logger:   logger,

		callTimeout: callTimeout,
	}
	mc.AddObserver(c)
	return c
}

type callResult[T any] struct {
	value T
	err   error
}

// call runs fn on the loop and hands its result back over a channel. A
// call that times out has no effect on the center.
func call[T any](c *Controller, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()

	results := make(chan callResult[T], 1)
	if err := c.loop.Call(ctx, func() {
		v, err := fn()
		results <- callResult[T]{value: v, err: err}
	}); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to reach message center: %w", err)
	}
	r := <-results
	return r.value, r.err
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(fn func() error) error {
	_, err := call(c, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (c *Controller) run(name string, fn func()) {
	if err := c.do(func() error { fn(); return nil }); err != nil {
		c.logger.Warn("control call failed", "call", name, "error", err)
	}
}

// Status implements dbus.Controller.
func (c *Controller) Status() dbus.Status {
	status, err := call(c, func() (dbus.Status, error) {
		s := dbus.Status{
			Count:      c.mc.NotificationCount(),
			Unread:     c.mc.UnreadNotificationCount(),
			Popups:     len(c.mc.PopupNotifications()),
			Pending:    c.mc.PendingChanges(),
			QuietMode:  c.mc.IsQuietMode(),
			Visibility: c.mc.Visibility().String(),
			Locked:     c.mc.IsLocked(),
		}
		if until, ok := c.mc.QuietModeExpiry(); ok {
			s.QuietUntil = until.Unix()
		}
		return s, nil
	})
	if err != nil {
		c.logger.Warn("control call failed", "call", "status", "error", err)
	}
	return status
}

// List implements dbus.Controller.
func (c *Controller) List() []model.Snapshot {
	snapshots, err := call(c, func() ([]model.Snapshot, error) {
		var out []model.Snapshot
		for _, n := range c.mc.VisibleNotifications() {
			out = append(out, n.Snapshot())
		}
		return out, nil
	})
	if err != nil {
		c.logger.Warn("control call failed", "call", "list", "error", err)
	}
	return snapshots
}

// SetQuietMode implements dbus.Controller.
func (c *Controller) SetQuietMode(enabled bool) {
	c.run("set_quiet_mode", func() {
		c.applying = true
		c.mc.SetQuietMode(enabled)
		c.applying = false
		c.persistQuiet(settings.QuietTriggerUser, "set by user")
	})
}

// QuietModeFor implements dbus.Controller.
func (c *Controller) QuietModeFor(d time.Duration) {
	c.run("quiet_mode_for", func() {
		c.applying = true
		c.mc.EnterQuietModeWithExpire(d)
		c.applying = false
		c.persistQuiet(settings.QuietTriggerUser, "quiet for "+d.String())
	})
}

// SetVisibility implements dbus.Controller.
func (c *Controller) SetVisibility(visibility string) error {
	v, err := center.ParseVisibility(visibility)
	if err != nil {
		return err
	}
	return c.do(func() error {
		c.mc.SetVisibility(v)
		return nil
	})
}

// Dismiss implements dbus.Controller.
func (c *Controller) Dismiss(id string) error {
	return c.do(func() error {
		if c.mc.FindVisibleNotificationByID(id) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		c.mc.RemoveNotification(id, true)
		return nil
	})
}

// DismissAll implements dbus.Controller.
func (c *Controller) DismissAll() {
	c.run("dismiss_all", func() { c.mc.RemoveAllVisibleNotifications(true) })
}

// Click implements dbus.Controller.
func (c *Controller) Click(id string) error {
	return c.do(func() error {
		if c.mc.FindVisibleNotificationByID(id) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		c.mc.ClickOnNotification(id)
		return nil
	})
}

// Flush implements dbus.Controller.
func (c *Controller) Flush(id string) {
	c.run("flush", func() { c.mc.ForceNotificationFlush(id) })
}

// DisableNotifier implements dbus.Controller.
func (c *Controller) DisableNotifier(key string) error {
	id, err := model.ParseNotifierKey(key)
	if err != nil {
		return err
	}
	return c.do(func() error {
		c.mc.DisableNotificationsByNotifier(id)
		return nil
	})
}

// RestoreQuietMode applies persisted quiet mode at startup. A timed quiet
// mode resumes with its remaining time; an expired one is cleared.
func (c *Controller) RestoreQuietMode(configDefault bool) {
	c.applying = true
	defer func() { c.applying = false }()

	if remaining, ok := c.state.QuietRemaining(c.loop.Now()); ok {
		c.mc.EnterQuietModeWithExpire(remaining)
		return
	}
	if c.state.QuietLastTransition != nil {
		enabled := c.state.QuietMode && c.state.QuietModeUntil == 0
		c.mc.SetQuietMode(enabled)
		if c.state.QuietMode != enabled {
			c.persistQuiet(settings.QuietTriggerExpiry, "expired while stopped")
		}
		return
	}
	c.mc.SetQuietMode(configDefault)
	c.persistQuiet(settings.QuietTriggerConfig, "initial state")
}

// OnQuietModeChanged persists changes the controller did not make itself,
// which is a timed quiet mode running out.
func (c *Controller) OnQuietModeChanged(quiet bool) {
	if c.applying {
		return
	}
	trigger, reason := settings.QuietTriggerExpiry, "timer expired"
	if quiet {
		trigger, reason = settings.QuietTriggerConfig, "enabled"
	}
	c.persistQuiet(trigger, reason)
}

func (c *Controller) persistQuiet(trigger settings.QuietTrigger, reason string) {
	until, _ := c.mc.QuietModeExpiry()
	c.state.SetQuietMode(c.mc.IsQuietMode(), until, trigger, reason, stateSource)
	_ = c.saveState()
}

// SaveDisabledNotifiers records the disabled notifier keys. It is the
// save hook of the settings provider.
func (c *Controller) SaveDisabledNotifiers(keys []string) error {
	c.state.SetDisabledNotifiers(keys)
	return c.saveState()
}

// RecordNotification stamps the last notification time.
func (c *Controller) RecordNotification(*model.Notification) {
	c.state.UpdateLastNotification()
}

func (c *Controller) saveState() error {
	if c.save == nil {
		return nil
	}
	if err := c.save(c.state); err != nil {
		c.logger.Warn("failed to save state", "error", err)
		if c.notifier != nil {
			c.notifier.NotifyStateError(err)
		}
		return err
	}
	return nil
}
