package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/msgcenter/internal/dbus"
)

var statusOpts struct {
	format string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the message center status",
	Long: `Show the message center status.

The default waybar format is designed for Waybar's custom module:

  "custom/notifications": {
    "exec": "msgcenter status",
    "interval": 5,
    "return-type": "json",
    "on-click": "msgcenter visibility toggle"
  }

The waybar output includes:
  - text: Number of unread notifications
  - alt: quiet, popup, unread or empty
  - tooltip: Breakdown of the counts
  - class: Same as alt, for CSS`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "waybar",
		"Output format (waybar, text, json, yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	var status *dbus.Status
	err := withClient(func(c *dbus.Client) error {
		var err error
		status, err = c.Status()
		return err
	})

	if statusOpts.format == "waybar" {
		if err != nil {
			logger.Debug("status unavailable", "error", err)
			return writeJSON(os.Stdout, WaybarStatus{Text: "", Alt: "error", Class: "error", Tooltip: "msgcenterd is not running"})
		}
		return writeJSON(os.Stdout, generateWaybarStatus(status))
	}
	if err != nil {
		return err
	}
	return writeStatus(os.Stdout, status, statusOpts.format, time.Now())
}

// generateWaybarStatus creates a WaybarStatus from the daemon status.
func generateWaybarStatus(status *dbus.Status) WaybarStatus {
	class := "empty"
	switch {
	case status.QuietMode:
		class = "quiet"
	case status.Popups > 0:
		class = "popup"
	case status.Unread > 0:
		class = "unread"
	}

	if status.Count == 0 {
		return WaybarStatus{Text: "", Alt: class, Class: class, Tooltip: "No notifications"}
	}

	text := ""
	if status.Unread > 0 {
		text = fmt.Sprintf("%d", status.Unread)
	}

	return WaybarStatus{
		Text:       text,
		Alt:        class,
		Tooltip:    buildStatusTooltip(status),
		Class:      class,
		Percentage: min(status.Count, 100),
	}
}

// buildStatusTooltip creates a tooltip showing the notification breakdown.
func buildStatusTooltip(status *dbus.Status) string {
	lines := []string{fmt.Sprintf("%d notifications", status.Count)}

	if status.Unread > 0 {
		lines = append(lines, fmt.Sprintf("Unread: %d", status.Unread))
	}
	if status.Popups > 0 {
		lines = append(lines, fmt.Sprintf("Popups: %d", status.Popups))
	}
	if status.Pending > 0 {
		lines = append(lines, fmt.Sprintf("Pending changes: %d", status.Pending))
	}
	if status.QuietMode {
		lines = append(lines, "Quiet mode on")
	}

	return strings.Join(lines, "\n")
}

func writeStatus(w io.Writer, status *dbus.Status, format string, now time.Time) error {
	switch format {
	case "json":
		return writeJSON(w, status)
	case "yaml":
		return yaml.NewEncoder(w).Encode(status)
	case "text":
	default:
		return fmt.Errorf("invalid format %q, must be waybar, text, json or yaml", format)
	}

	quiet := "off"
	if status.QuietMode {
		quiet = "on"
		if status.QuietUntil > 0 {
			quiet = "on until " + humanize.RelTime(time.Unix(status.QuietUntil, 0), now, "ago", "from now")
		}
	}

	_, err := fmt.Fprintf(w, `Notifications:   %d
Unread:          %d
Popups:          %d
Pending changes: %d
Quiet mode:      %s
Visibility:      %s
Locked:          %t
`, status.Count, status.Unread, status.Popups, status.Pending, quiet, status.Visibility, status.Locked)
	return err
}

// writeJSON writes v as a single line of JSON.
func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
