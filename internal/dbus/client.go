package dbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Client calls the msgcenterd control interface.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(ControlBusName, ControlPath),
	}, nil
}

func (c *Client) call(method string, args ...any) *dbus.Call {
	return c.obj.Call(ControlInterface+"."+method, 0, args...)
}

func (c *Client) do(method string, args ...any) error {
	if err := c.call(method, args...).Err; err != nil {
		return fmt.Errorf("%s failed (is msgcenterd running?): %w", method, err)
	}
	return nil
}

func (c *Client) decode(method string, v any) error {
	var data string
	if err := c.call(method).Store(&data); err != nil {
		return fmt.Errorf("%s failed (is msgcenterd running?): %w", method, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	return nil
}

// Status fetches the message center status.
func (c *Client) Status() (*Status, error) {
	var status Status
	if err := c.decode("Status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// List fetches the visible notifications in archive order.
func (c *Client) List() ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	if err := c.decode("List", &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// SetQuietMode turns quiet mode on or off.
func (c *Client) SetQuietMode(enabled bool) error {
	return c.do("SetQuietMode", enabled)
}

// QuietModeFor enters quiet mode for d, rounded up to whole seconds.
func (c *Client) QuietModeFor(d time.Duration) error {
	seconds := uint32((d + time.Second - 1) / time.Second)
	return c.do("QuietModeFor", seconds)
}

// SetVisibility opens or closes the message center.
func (c *Client) SetVisibility(visibility string) error {
	return c.do("SetVisibility", visibility)
}

// Dismiss removes a notification.
func (c *Client) Dismiss(id string) error {
	return c.do("Dismiss", id)
}

// DismissAll removes all visible notifications.
func (c *Client) DismissAll() error {
	return c.do("DismissAll")
}

// Click clicks a notification body.
func (c *Client) Click(id string) error {
	return c.do("Click", id)
}

// Flush applies queued changes for a notification.
func (c *Client) Flush(id string) error {
	return c.do("Flush", id)
}

// DisableNotifier disables a notifier by key.
func (c *Client) DisableNotifier(key string) error {
	return c.do("DisableNotifier", key)
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
