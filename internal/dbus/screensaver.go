package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverInterface = "org.freedesktop.ScreenSaver"
	screenSaverPath      = "/org/freedesktop/ScreenSaver"
)

// ScreenSaverWatcher follows org.freedesktop.ScreenSaver.ActiveChanged so
// popups can be held back while the session is locked.
type ScreenSaverWatcher struct {
	conn     *dbus.Conn
	logger   *slog.Logger
	onChange func(active bool)
	signals  chan *dbus.Signal
	done     chan struct{}
}

// NewScreenSaverWatcher creates a watcher on conn.
func NewScreenSaverWatcher(conn *dbus.Conn, logger *slog.Logger) *ScreenSaverWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenSaverWatcher{conn: conn, logger: logger}
}

// SetChangeCallback sets the callback for lock state changes. It runs on
// the watcher goroutine.
func (w *ScreenSaverWatcher) SetChangeCallback(fn func(active bool)) {
	w.onChange = fn
}

// Active queries the current screensaver state.
func (w *ScreenSaverWatcher) Active() (bool, error) {
	var active bool
	obj := w.conn.Object(screenSaverInterface, screenSaverPath)
	if err := obj.Call(screenSaverInterface+".GetActive", 0).Store(&active); err != nil {
		return false, fmt.Errorf("failed to query screensaver: %w", err)
	}
	return active, nil
}

// Start subscribes to ActiveChanged.
func (w *ScreenSaverWatcher) Start() error {
	if err := w.conn.AddMatchSignal(
		dbus.WithMatchInterface(screenSaverInterface),
		dbus.WithMatchMember("ActiveChanged"),
	); err != nil {
		return fmt.Errorf("failed to add screensaver match rule: %w", err)
	}

	w.signals = make(chan *dbus.Signal, 16)
	w.done = make(chan struct{})
	w.conn.Signal(w.signals)
	go w.process()

	w.logger.Debug("screensaver watcher started")
	return nil
}

func (w *ScreenSaverWatcher) process() {
	for {
		select {
		case sig, ok := <-w.signals:
			if !ok {
				return
			}
			if sig.Name != screenSaverInterface+".ActiveChanged" || len(sig.Body) < 1 {
				continue
			}
			active, ok := sig.Body[0].(bool)
			if !ok {
				w.logger.Warn("invalid ActiveChanged payload", "body", sig.Body)
				continue
			}
			w.logger.Debug("screensaver state changed", "active", active)
			if w.onChange != nil {
				w.onChange(active)
			}
		case <-w.done:
			return
		}
	}
}

// Stop unsubscribes and stops the watcher goroutine.
func (w *ScreenSaverWatcher) Stop() {
	if w.done == nil {
		return
	}
	w.conn.RemoveSignal(w.signals)
	_ = w.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(screenSaverInterface),
		dbus.WithMatchMember("ActiveChanged"),
	)
	close(w.done)
	w.done = nil
}
