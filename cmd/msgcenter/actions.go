package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/msgcenter/internal/dbus"
)

var dismissOpts struct {
	all   bool
	stdin bool
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [id...]",
	Short: "Dismiss notifications",
	Long: `Dismiss notifications by id, as if the user closed them.

IDs can be provided as positional arguments or via stdin (--stdin), one
per line. The first field of each line is used, so dmenu output works.

Examples:
  # Dismiss a specific notification
  msgcenter dismiss 42

  # Dismiss everything
  msgcenter dismiss --all

  # Dismiss every unread notification
  msgcenter list --unread -f ids | msgcenter dismiss --stdin`,
	RunE: runDismiss,
}

var clickCmd = &cobra.Command{
	Use:   "click <id>",
	Short: "Click a notification",
	Long: `Click the body of a notification. The sender is told the default
action was invoked; notifications that are not resident are then removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *dbus.Client) error {
			return c.Click(args[0])
		})
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush <id>",
	Short: "Apply the queued changes of a notification",
	Long: `Apply the changes queued for a notification while the message center
was open, without waiting for it to close.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *dbus.Client) error {
			return c.Flush(args[0])
		})
	},
}

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Manage notifiers",
}

var notifierDisableCmd = &cobra.Command{
	Use:   "disable <key>",
	Short: "Stop accepting notifications from a notifier",
	Long: `Disable a notifier by key, for example app:firefox or
web:https://example.org. Its notifications are removed and new ones are
dropped. Keys are shown by 'msgcenter list'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := withClient(func(c *dbus.Client) error {
			return c.DisableNotifier(args[0])
		}); err != nil {
			return err
		}
		fmt.Printf("disabled %s\n", args[0])
		return nil
	},
}

var visibilityCmd = &cobra.Command{
	Use:   "visibility <open|close|toggle|transient|message_center|settings>",
	Short: "Open or close the message center",
	Long: `Open or close the message center. Opening it marks everything it shows
as read and retires the popups; closing it applies the changes queued
while it was open.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"open", "close", "toggle", "transient", "message_center", "settings"},
	RunE:      runVisibility,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the message center",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVisibility(cmd, []string{"open"})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the message center",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVisibility(cmd, []string{"close"})
	},
}

func init() {
	dismissCmd.Flags().BoolVarP(&dismissOpts.all, "all", "a", false,
		"Dismiss all visible notifications")
	dismissCmd.Flags().BoolVar(&dismissOpts.stdin, "stdin", false,
		"Read IDs from stdin (one per line)")

	notifierCmd.AddCommand(notifierDisableCmd)

	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(notifierCmd)
	rootCmd.AddCommand(visibilityCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(closeCmd)
}

func runDismiss(cmd *cobra.Command, args []string) error {
	if dismissOpts.all {
		if len(args) > 0 || dismissOpts.stdin {
			return fmt.Errorf("--all cannot be combined with ids")
		}
		return withClient(func(c *dbus.Client) error {
			return c.DismissAll()
		})
	}

	ids := args
	if dismissOpts.stdin {
		stdinIDs, err := readIDs(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		ids = append(ids, stdinIDs...)
	}
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return fmt.Errorf("no notification IDs provided")
	}

	var successCount, failCount int
	err := withClient(func(c *dbus.Client) error {
		for _, id := range ids {
			if err := c.Dismiss(id); err != nil {
				logger.Warn("failed to dismiss notification", "id", id, "error", err)
				failCount++
				continue
			}
			successCount++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if failCount > 0 {
		return fmt.Errorf("dismissed %d notifications, %d failed", successCount, failCount)
	}
	fmt.Printf("dismissed %d notifications\n", successCount)
	return nil
}

func runVisibility(cmd *cobra.Command, args []string) error {
	return withClient(func(c *dbus.Client) error {
		target, err := resolveVisibility(args[0], func() (string, error) {
			status, err := c.Status()
			if err != nil {
				return "", err
			}
			return status.Visibility, nil
		})
		if err != nil {
			return err
		}
		return c.SetVisibility(target)
	})
}

// resolveVisibility maps the CLI aliases onto visibility names. current is
// only consulted for toggle.
func resolveVisibility(arg string, current func() (string, error)) (string, error) {
	switch arg {
	case "open":
		return "message_center", nil
	case "close":
		return "transient", nil
	case "toggle":
		v, err := current()
		if err != nil {
			return "", err
		}
		if v == "transient" {
			return "message_center", nil
		}
		return "transient", nil
	default:
		return arg, nil
	}
}

// readIDs reads one id per line, taking the first field of each line.
func readIDs(r io.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		ids = append(ids, fields[0])
	}
	return ids, scanner.Err()
}

// uniqueStrings removes duplicates from a string slice.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(input))
	for _, s := range input {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			result = append(result, s)
		}
	}
	return result
}
