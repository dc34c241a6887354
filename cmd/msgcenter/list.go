package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/msgcenter/internal/core"
	"github.com/jmylchreest/msgcenter/internal/dbus"
	"github.com/jmylchreest/msgcenter/internal/model"
	"github.com/jmylchreest/msgcenter/internal/output"
)

var listOpts struct {
	format   string
	field    string
	template string
	limit    int
	unread   bool
	since    string
	notifier string
	priority string
	filter   string
	search   string
	sort     string
	order    string
}

var listCmd = &cobra.Command{
	Use:     "list [index|id]",
	Aliases: []string{"ls"},
	Short:   "List the notifications in the message center",
	Long: `List the notifications in the message center, most important first.

With an index (1-based) or id argument, outputs that notification only.

Examples:
  # List everything
  msgcenter list

  # Output as JSON
  msgcenter list --format json

  # Pick one with fuzzel and click it
  msgcenter list -f dmenu | fuzzel -d | cut -d' ' -f1 | xargs msgcenter list -f ids | xargs msgcenter click

  # Print the message of the newest notification
  msgcenter list 1 --field message

  # Unread firefox notifications from the last hour, oldest first
  msgcenter list --unread --notifier app:firefox --since 1h --sort time --order asc

  # Filter expressions (comma-separated, ANDed)
  msgcenter list --filter "priority>=high,title~build"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "",
		"Output format (text, dmenu, ids, json, yaml; default from config)")
	listCmd.Flags().StringVar(&listOpts.field, "field", "",
		"Output a single field of one notification (id, notifier, title, message, all)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Custom Go template for dmenu output")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", 0,
		"Maximum number of notifications to show (0=unlimited)")
	listCmd.Flags().BoolVar(&listOpts.unread, "unread", false,
		"Only show unread notifications")
	listCmd.Flags().StringVar(&listOpts.since, "since", "",
		"Only show notifications newer than this (e.g. 30m, 2h, 7d)")
	listCmd.Flags().StringVar(&listOpts.notifier, "notifier", "",
		"Only show notifications from this notifier key (e.g. app:firefox)")
	listCmd.Flags().StringVar(&listOpts.priority, "priority", "",
		"Minimum priority (min, low, default, high, max, system)")
	listCmd.Flags().StringVar(&listOpts.filter, "filter", "",
		"Filter expression, e.g. \"notifier=app:slack,title~deploy\"")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "",
		"Case-insensitive search in title and message")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", "center",
		"Sort by center, timestamp, notifier or priority")
	listCmd.Flags().StringVar(&listOpts.order, "order", "desc",
		"Sort order (asc, desc)")
}

func runList(cmd *cobra.Command, args []string) error {
	var snapshots []model.Snapshot
	if err := withClient(func(c *dbus.Client) error {
		var err error
		snapshots, err = c.List()
		return err
	}); err != nil {
		return err
	}
	logger.Debug("fetched notifications", "count", len(snapshots))

	formatter, err := createFormatter()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		n := output.Find(snapshots, args[0])
		if n == nil {
			return fmt.Errorf("notification %s not found", args[0])
		}
		if listOpts.field != "" {
			fmt.Println(output.FormatField(n, listOpts.field))
			return nil
		}
		return formatter.Format(os.Stdout, []model.Snapshot{*n})
	}

	snapshots, err = selectSnapshots(snapshots, time.Now())
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, snapshots)
}

// selectSnapshots applies the list flags: filters, search, sort and limit.
func selectSnapshots(snapshots []model.Snapshot, now time.Time) ([]model.Snapshot, error) {
	opts := core.FilterOptions{
		Notifier:   listOpts.notifier,
		UnreadOnly: listOpts.unread,
	}
	since, err := core.ParseDuration(listOpts.since)
	if err != nil {
		return nil, err
	}
	opts.Since = since
	if listOpts.priority != "" {
		p, err := core.ParsePriority(listOpts.priority)
		if err != nil {
			return nil, err
		}
		opts.Priority = &p
	}

	expr, err := core.ParseFilter(listOpts.filter, now)
	if err != nil {
		return nil, err
	}

	field, err := core.ParseSortField(listOpts.sort)
	if err != nil {
		return nil, err
	}
	order, err := core.ParseSortOrder(listOpts.order)
	if err != nil {
		return nil, err
	}

	snapshots = core.Filter(snapshots, opts, now)
	snapshots = core.FilterWithExpr(snapshots, expr)
	snapshots = core.Search(snapshots, listOpts.search)
	core.Sort(snapshots, core.SortOptions{Field: field, Order: order})

	if listOpts.limit > 0 && len(snapshots) > listOpts.limit {
		snapshots = snapshots[:listOpts.limit]
	}
	return snapshots, nil
}

// createFormatter creates the output formatter from flags and config.
func createFormatter() (output.Formatter, error) {
	name := listOpts.format
	if name == "" && cfg != nil {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	opts := output.DefaultOptions()
	opts.Template = listOpts.template
	if cfg != nil {
		opts.RelativeTime = cfg.Output.RelativeTime
		opts.TimeFormat = cfg.Output.TimeFormat
		if opts.Template == "" {
			opts.Template = cfg.Output.DmenuTemplate
		}
	}

	return output.NewFormatter(format, opts), nil
}
