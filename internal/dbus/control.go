package dbus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/msgcenter/internal/model"
)

const (
	// ControlInterface is the msgcenterd control interface name.
	ControlInterface = "io.github.jmylchreest.MessageCenter1"
	// ControlPath is the control object path.
	ControlPath = "/io/github/jmylchreest/MessageCenter1"
	// ControlBusName is the bus name msgcenterd claims for control calls.
	ControlBusName = "io.github.jmylchreest.MessageCenter"
)

// Status is a summary of the message center state.
type Status struct {
	Count      int    `json:"count" yaml:"count"`
	Unread     int    `json:"unread" yaml:"unread"`
	Popups     int    `json:"popups" yaml:"popups"`
	Pending    int    `json:"pending_changes" yaml:"pending_changes"`
	QuietMode  bool   `json:"quiet_mode" yaml:"quiet_mode"`
	QuietUntil int64  `json:"quiet_until,omitempty" yaml:"quiet_until,omitempty"` // unix seconds, 0 = open ended
	Visibility string `json:"visibility" yaml:"visibility"`
	Locked     bool   `json:"locked" yaml:"locked"`
}

// Controller performs control requests against the message center.
type Controller interface {
	Status() Status
	List() []model.Snapshot
	SetQuietMode(enabled bool)
	QuietModeFor(d time.Duration)
	SetVisibility(visibility string) error
	Dismiss(id string) error
	DismissAll()
	Click(id string) error
	Flush(id string)
	DisableNotifier(key string) error
}

// ControlServer exports a Controller on the session bus.
type ControlServer struct {
	conn       *dbus.Conn
	logger     *slog.Logger
	controller Controller
}

// NewControlServer creates a ControlServer for controller.
func NewControlServer(controller Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{controller: controller, logger: logger}
}

// Start exports the control object on conn and claims ControlBusName.
func (c *ControlServer) Start(conn *dbus.Conn) error {
	if err := conn.Export(c, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: introspect.Methods(c),
				Signals: []introspect.Signal{
					{
						Name: "SettingsRequested",
						Args: []introspect.Arg{
							{Name: "notifier", Type: "s"},
							{Name: "id", Type: "s"},
						},
					},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ControlBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", ControlBusName)
	}

	c.conn = conn
	c.logger.Info("D-Bus control interface started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// Stop releases the control bus name.
func (c *ControlServer) Stop() error {
	if c.conn == nil {
		return nil
	}
	_, err := c.conn.ReleaseName(ControlBusName)
	c.conn = nil
	return err
}

// EmitSettingsRequested tells settings surfaces that the user asked for
// the settings of a notifier, from the notification with the given id.
func (c *ControlServer) EmitSettingsRequested(notifier model.NotifierID, notificationID string) error {
	if c.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	if err := c.conn.Emit(ControlPath, ControlInterface+".SettingsRequested", notifier.Key(), notificationID); err != nil {
		return fmt.Errorf("failed to emit SettingsRequested signal: %w", err)
	}
	return nil
}

func failed(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.MakeFailedError(err)
}

// Status returns the JSON encoded Status.
// D-Bus method: Status() -> s
func (c *ControlServer) Status() (string, *dbus.Error) {
	data, err := json.Marshal(c.controller.Status())
	if err != nil {
		return "", failed(err)
	}
	return string(data), nil
}

// List returns the JSON encoded visible notifications in archive order.
// D-Bus method: List() -> s
func (c *ControlServer) List() (string, *dbus.Error) {
	snapshots := c.controller.List()
	if snapshots == nil {
		snapshots = []model.Snapshot{}
	}
	data, err := json.Marshal(snapshots)
	if err != nil {
		return "", failed(err)
	}
	return string(data), nil
}

// SetQuietMode turns quiet mode on or off.
// D-Bus method: SetQuietMode(b)
func (c *ControlServer) SetQuietMode(enabled bool) *dbus.Error {
	c.logger.Debug("SetQuietMode called", "enabled", enabled)
	c.controller.SetQuietMode(enabled)
	return nil
}

// QuietModeFor enters quiet mode for the given number of seconds.
// D-Bus method: QuietModeFor(u)
func (c *ControlServer) QuietModeFor(seconds uint32) *dbus.Error {
	if seconds == 0 {
		return failed(fmt.Errorf("duration must be positive"))
	}
	c.logger.Debug("QuietModeFor called", "seconds", seconds)
	c.controller.QuietModeFor(time.Duration(seconds) * time.Second)
	return nil
}

// SetVisibility opens or closes the message center.
// D-Bus method: SetVisibility(s)
func (c *ControlServer) SetVisibility(visibility string) *dbus.Error {
	return failed(c.controller.SetVisibility(visibility))
}

// Dismiss removes a notification on behalf of the user.
// D-Bus method: Dismiss(s)
func (c *ControlServer) Dismiss(id string) *dbus.Error {
	return failed(c.controller.Dismiss(id))
}

// DismissAll removes every visible notification on behalf of the user.
// D-Bus method: DismissAll()
func (c *ControlServer) DismissAll() *dbus.Error {
	c.controller.DismissAll()
	return nil
}

// Click clicks a notification body.
// D-Bus method: Click(s)
func (c *ControlServer) Click(id string) *dbus.Error {
	return failed(c.controller.Click(id))
}

// Flush applies queued changes for one notification immediately.
// D-Bus method: Flush(s)
func (c *ControlServer) Flush(id string) *dbus.Error {
	c.controller.Flush(id)
	return nil
}

// DisableNotifier disables the notifier with the given key.
// D-Bus method: DisableNotifier(s)
func (c *ControlServer) DisableNotifier(key string) *dbus.Error {
	return failed(c.controller.DisableNotifier(key))
}
