package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/msgcenter/internal/core"
	"github.com/jmylchreest/msgcenter/internal/dbus"
	"github.com/jmylchreest/msgcenter/internal/settings"
)

var quietOpts struct {
	quiet bool // Suppress output, return exit code only
}

// quietCmd represents the quiet command group.
var quietCmd = &cobra.Command{
	Use:     "quiet",
	Aliases: []string{"dnd"},
	Short:   "Manage quiet mode",
	Long: `Manage quiet mode of msgcenterd.

While quiet mode is on, notifications go straight to the message center
without popping up.

Use 'msgcenter quiet status' to check the current state.
Use 'msgcenter quiet on' to enable quiet mode.
Use 'msgcenter quiet off' to disable quiet mode.
Use 'msgcenter quiet toggle' to toggle quiet mode.
Use 'msgcenter quiet for 1h' to enable quiet mode for a while.

With --quiet the exit code reports the state (0=off, 1=on).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to showing status
		return quietStatusRun(cmd, args)
	},
}

var quietOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable quiet mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setQuiet(true)
	},
}

var quietOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable quiet mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setQuiet(false)
	},
}

var quietToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle quiet mode",
	Args:  cobra.NoArgs,
	RunE:  quietToggleRun,
}

var quietForCmd = &cobra.Command{
	Use:   "for <duration>",
	Short: "Enable quiet mode for a duration (e.g. 30m, 2h, 1d)",
	Args:  cobra.ExactArgs(1),
	RunE:  quietForRun,
}

var quietStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quiet mode status",
	Args:  cobra.NoArgs,
	RunE:  quietStatusRun,
}

func init() {
	quietCmd.AddCommand(quietOnCmd)
	quietCmd.AddCommand(quietOffCmd)
	quietCmd.AddCommand(quietToggleCmd)
	quietCmd.AddCommand(quietForCmd)
	quietCmd.AddCommand(quietStatusCmd)

	quietCmd.PersistentFlags().BoolVarP(&quietOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only (0=off, 1=on)")

	rootCmd.AddCommand(quietCmd)
}

func setQuiet(enabled bool) error {
	if err := withClient(func(c *dbus.Client) error {
		return c.SetQuietMode(enabled)
	}); err != nil {
		return err
	}
	return reportQuiet(enabled, 0)
}

func quietToggleRun(cmd *cobra.Command, args []string) error {
	var enabled bool
	if err := withClient(func(c *dbus.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		enabled = !status.QuietMode
		return c.SetQuietMode(enabled)
	}); err != nil {
		return err
	}
	return reportQuiet(enabled, 0)
}

func quietForRun(cmd *cobra.Command, args []string) error {
	d, err := core.ParseDuration(args[0])
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive: %s", args[0])
	}

	var until int64
	if err := withClient(func(c *dbus.Client) error {
		if err := c.QuietModeFor(d); err != nil {
			return err
		}
		status, err := c.Status()
		if err != nil {
			return err
		}
		until = status.QuietUntil
		return nil
	}); err != nil {
		return err
	}
	return reportQuiet(true, until)
}

func quietStatusRun(cmd *cobra.Command, args []string) error {
	var status *dbus.Status
	if err := withClient(func(c *dbus.Client) error {
		var err error
		status, err = c.Status()
		return err
	}); err != nil {
		return err
	}

	if err := reportQuiet(status.QuietMode, status.QuietUntil); err != nil {
		return err
	}
	if quietOpts.quiet {
		return nil
	}

	// The daemon persists the last transition next to its state.
	path, err := settings.StateFilePath()
	if err != nil {
		return nil
	}
	state, err := settings.LoadSharedState(path)
	if err != nil || state.QuietLastTransition == nil {
		return nil
	}
	t := state.QuietLastTransition
	fmt.Printf("  Last change: %s\n", formatTransitionTime(t.Timestamp))
	fmt.Printf("  Trigger: %s\n", t.Trigger)
	if t.Reason != "" {
		fmt.Printf("  Reason: %s\n", t.Reason)
	}
	if t.Source != "" {
		fmt.Printf("  Source: %s\n", t.Source)
	}
	return nil
}

// reportQuiet prints the state, or with --quiet exits 1 when it is on.
func reportQuiet(enabled bool, until int64) error {
	if quietOpts.quiet {
		if enabled {
			os.Exit(1)
		}
		return nil
	}
	fmt.Println(quietLine(enabled, until, time.Now()))
	return nil
}

func quietLine(enabled bool, until int64, now time.Time) string {
	if !enabled {
		return "Quiet mode: disabled"
	}
	if until > 0 {
		return "Quiet mode: enabled until " + time.Unix(until, 0).Local().Format("15:04") +
			" (" + humanize.RelTime(time.Unix(until, 0), now, "ago", "from now") + ")"
	}
	return "Quiet mode: enabled"
}

// formatTransitionTime formats a unix timestamp as a human-readable relative time.
func formatTransitionTime(timestamp int64) string {
	return humanize.Time(time.Unix(timestamp, 0))
}
