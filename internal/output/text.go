package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// TextFormatter formats notifications as readable text.
type TextFormatter struct {
	opts Options
	now  func() time.Time
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts Options) *TextFormatter {
	return &TextFormatter{opts: opts, now: time.Now}
}

// Format writes notifications as text, one block per notification.
func (f *TextFormatter) Format(w io.Writer, notifications []model.Snapshot) error {
	if len(notifications) == 0 {
		_, err := fmt.Fprintln(w, "No notifications")
		return err
	}
	for i := range notifications {
		if err := f.formatNotification(w, i+1, &notifications[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatNotification(w io.Writer, index int, n *model.Snapshot) error {
	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	if f.opts.ShowNotifier && n.Notifier != "" {
		fmt.Fprintf(&sb, "<%s> ", n.Notifier)
	}

	sb.WriteString(n.Title)

	if n.Type == "progress" {
		fmt.Fprintf(&sb, " [%d%%]", n.Progress)
	}

	var flags []string
	if !n.Read {
		flags = append(flags, "unread")
	}
	if !n.ShownAsPopup {
		flags = append(flags, "popup")
	}
	if n.Priority != "default" {
		flags = append(flags, n.Priority)
	}
	if len(flags) > 0 {
		fmt.Fprintf(&sb, " {%s}", strings.Join(flags, ","))
	}

	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s)", f.formatTime(n.Timestamp))
	}

	sb.WriteString("\n")

	if n.Message != "" {
		sb.WriteString("    " + sanitizeBody(n.Message, f.opts.BodyMaxLen, f.opts.IncludeNewline) + "\n")
	}
	if len(n.Buttons) > 0 {
		sb.WriteString("    buttons: " + strings.Join(n.Buttons, ", ") + "\n")
	}
	sb.WriteString("    id: " + n.ID + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TextFormatter) formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if f.opts.RelativeTime {
		return humanize.RelTime(t, f.now(), "ago", "from now")
	}
	layout := f.opts.TimeFormat
	if layout == "" {
		layout = time.DateTime
	}
	return t.Local().Format(layout)
}
