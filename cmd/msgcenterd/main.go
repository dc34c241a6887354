// Package main is the entry point for the msgcenterd notification daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/config"
	"github.com/jmylchreest/msgcenter/internal/daemon"
	"github.com/jmylchreest/msgcenter/internal/dbus"
	"github.com/jmylchreest/msgcenter/internal/model"
	"github.com/jmylchreest/msgcenter/internal/settings"
)

const appName = "msgcenterd"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to the daemon config file (default: ~/.config/msgcenter/msgcenterd.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging regardless of the configured level")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.DaemonConfigPath()
	}

	cfg, err := config.LoadDaemonConfig(path)
	if err != nil {
		slog.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	var logLevel slog.LevelVar
	logLevel.Set(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, path, &logLevel, *verbose, logger); err != nil {
		logger.Error("msgcenterd failed", "error", err)
		os.Exit(1)
	}
}

func timeoutsFrom(cfg *config.DaemonConfig) center.Timeouts {
	return center.Timeouts{
		Default: cfg.Timeouts.Default.Duration(),
		High:    cfg.Timeouts.High.Duration(),
		WebPage: cfg.Timeouts.WebPage.Duration(),
	}
}

func run(cfg *config.DaemonConfig, configPath string, logLevel *slog.LevelVar, verbose bool, logger *slog.Logger) error {
	logger.Info("starting msgcenterd", "version", version)

	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	loop := daemon.NewLoop(logger)

	timeouts := timeoutsFrom(cfg)
	mc := center.New(center.Options{
		Logger:           logger,
		Clock:            loop,
		Timeouts:         &timeouts,
		MaxVisiblePopups: cfg.Popups.MaxVisible,
		DeferChanges:     cfg.Queue.DeferWhileOpen,
	})

	// Blockers
	filter, err := blocker.NewFilter(cfg.Filters.Hide, cfg.Filters.Mute, logger)
	if err != nil {
		return fmt.Errorf("invalid filters: %w", err)
	}
	screenSaver := dbus.NewScreenSaverWatcher(conn, logger)
	screenLock := blocker.NewScreenLock(screenSaver.Active, cfg.Lock.SystemBypass, logger)
	mc.AddNotificationBlocker(filter)
	mc.AddNotificationBlocker(screenLock)
	daemon.TrackScreenLock(mc, screenLock)

	// Shared state and notifier settings
	statePath, err := settings.StateFilePath()
	if err != nil {
		return fmt.Errorf("failed to get state path: %w", err)
	}
	state, err := settings.LoadSharedState(statePath)
	if err != nil {
		logger.Warn("failed to load shared state", "error", err)
		state = settings.DefaultSharedState()
	}
	logger.Info("shared state loaded", "path", statePath, "quiet_mode", state.QuietMode,
		"disabled_notifiers", len(state.DisabledNotifiers))

	notifier := daemon.NewInternalNotifier(loop, logger)
	notifier.SetEnabled(cfg.Notify.Internal)
	notifier.SetHandler(func(n *model.Notification) {
		// Internal notifications are raised from inside center callbacks.
		loop.Post(func() { mc.AddNotification(n) })
	})

	controller := daemon.NewController(loop, mc, state, func(s *settings.SharedState) error {
		return settings.SaveSharedState(statePath, s)
	}, notifier, logger)

	provider := settings.NewProvider(state.DisabledNotifiers, controller.SaveDisabledNotifiers, logger)
	mc.SetSettingsProvider(provider)

	presenter := daemon.NewPresenter(mc, loop.Post, loop, logger)
	mc.AddObserver(presenter)

	// D-Bus services
	server := dbus.NewNotificationServer(logger)
	info := dbus.DefaultServerInfo()
	info.Version = version
	server.SetServerInfo(info)

	bridge := daemon.NewBridge(mc, provider, server, loop.Post, loop, logger)
	bridge.SetReceivedCallback(controller.RecordNotification)
	server.SetNotifyHandler(bridge.HandleNotify)
	server.SetCloseHandler(bridge.HandleClose)

	control := dbus.NewControlServer(controller, logger)
	provider.SetAdvancedSettingsHandler(func(id model.NotifierID, notificationID string) {
		if err := control.EmitSettingsRequested(id, notificationID); err != nil {
			logger.Warn("failed to emit settings request", "notifier", id.Key(), "error", err)
		}
	})

	if err := server.Start(conn); err != nil {
		return fmt.Errorf("failed to start notification server: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("error stopping notification server", "error", err)
		}
	}()

	if err := control.Start(conn); err != nil {
		return fmt.Errorf("failed to start control server: %w", err)
	}
	defer func() {
		if err := control.Stop(); err != nil {
			logger.Warn("error stopping control server", "error", err)
		}
	}()

	// Screen lock
	screenSaver.SetChangeCallback(func(active bool) {
		loop.Post(func() {
			screenLock.SetLocked(active)
		})
	})
	if err := screenSaver.Start(); err != nil {
		logger.Warn("screen lock tracking disabled", "error", err)
	} else {
		defer screenSaver.Stop()
	}

	// Config hot reload
	watcher, err := config.NewWatcher(configPath, cfg, logger)
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		watcher.SetReloadCallback(func(next *config.DaemonConfig) {
			loop.Post(func() { applyConfig(next, mc, filter, screenLock, notifier, logLevel, verbose, logger) })
		})
		watcher.SetErrorCallback(func(err error) {
			loop.Post(func() { notifier.NotifyConfigError(err) })
		})
		if err := watcher.Start(); err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.Warn("error stopping config watcher", "error", err)
			}
		}()
	}

	loop.Post(func() {
		screenLock.CheckState()
		controller.RestoreQuietMode(cfg.QuietMode.Enabled)
		notifier.NotifyStartup(version)
	})

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	logger.Info("msgcenterd ready", "bus_name", dbus.DBusBusName, "control", dbus.ControlBusName)

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	mc.Shutdown()
	logger.Info("msgcenterd stopped")
	return nil
}

// applyConfig pushes a reloaded config into the running daemon. It runs
// on the loop.
func applyConfig(cfg *config.DaemonConfig, mc *center.MessageCenter, filter *blocker.Filter,
	screenLock *blocker.ScreenLock, notifier *daemon.InternalNotifier, logLevel *slog.LevelVar,
	verbose bool, logger *slog.Logger) {
	mc.SetTimeouts(timeoutsFrom(cfg))
	mc.SetMaxVisiblePopups(cfg.Popups.MaxVisible)
	mc.SetDeferChanges(cfg.Queue.DeferWhileOpen)

	if err := filter.SetPatterns(cfg.Filters.Hide, cfg.Filters.Mute); err != nil {
		logger.Warn("filters not applied", "error", err)
	}
	screenLock.SetSystemBypass(cfg.Lock.SystemBypass)

	if level, err := cfg.SlogLevel(); err == nil && !verbose {
		logLevel.Set(level)
	}

	notifier.SetEnabled(cfg.Notify.Internal)
	notifier.NotifyConfigReloaded()
}
