// Package output provides output formatters for notification snapshots.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Formatter formats notifications for output.
type Formatter interface {
	// Format writes formatted notifications to the writer.
	Format(w io.Writer, notifications []model.Snapshot) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatText  FormatType = "text"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (FormatType, error) {
	switch f := FormatType(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatDmenu, FormatIDs, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q, must be text, dmenu, ids, json or yaml", s)
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts Options) Formatter {
	switch format {
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatJSON:
		return NewJSONFormatter()
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatText:
		fallthrough
	default:
		return NewTextFormatter(opts)
	}
}

// Options configures formatter behavior.
type Options struct {
	Template       string // Custom template for dmenu format
	ShowIndex      bool   // Show 1-based index prefix
	ShowTime       bool   // Show the notification time
	ShowNotifier   bool   // Show the notifier key
	RelativeTime   bool   // "3 minutes ago" instead of TimeFormat (text)
	TimeFormat     string // Go reference layout used without RelativeTime
	BodyMaxLen     int    // Maximum message length (0 = unlimited)
	Separator      string // Field separator for dmenu format
	IncludeNewline bool   // Include newlines in message (default: replace with space)
}

// DefaultOptions returns sensible defaults for terminal output.
func DefaultOptions() Options {
	return Options{
		ShowIndex:    true,
		ShowTime:     true,
		ShowNotifier: true,
		RelativeTime: true,
		TimeFormat:   "2006-01-02 15:04",
		BodyMaxLen:   80,
		Separator:    " | ",
	}
}

// FormatField outputs a specific field from a notification.
func FormatField(n *model.Snapshot, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return n.ID
	case "notifier", "app":
		return n.Notifier
	case "title", "summary":
		return n.Title
	case "message", "body":
		return n.Message
	case "icon":
		return n.Icon
	case "priority":
		return n.Priority
	case "type":
		return n.Type
	case "all", "full":
		return fmt.Sprintf("%s\n%s", n.Title, n.Message)
	default:
		return n.Title
	}
}

// Find returns the notification with id, or the one at a 1-based index
// when ref is a number that matches no id.
func Find(notifications []model.Snapshot, ref string) *model.Snapshot {
	for i := range notifications {
		if notifications[i].ID == ref {
			return &notifications[i]
		}
	}
	if index, err := strconv.Atoi(ref); err == nil && index >= 1 && index <= len(notifications) {
		return &notifications[index-1]
	}
	return nil
}
