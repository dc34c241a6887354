package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// DmenuFormatter formats notifications for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     Options
	template *template.Template
	now      func() time.Time
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts Options) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts, now: time.Now}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(f.templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes notifications in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, notifications []model.Snapshot) error {
	for i := range notifications {
		line := f.formatLine(i+1, &notifications[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single notification line.
func (f *DmenuFormatter) formatLine(index int, n *model.Snapshot) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		data := templateData{
			Index:        index,
			Notification: n,
			RelativeTime: relativeTime(n.Timestamp, f.now()),
		}
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	// Default format: [index] [time] [notifier] title: message
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	if f.opts.ShowTime {
		parts = append(parts, relativeTime(n.Timestamp, f.now()))
	}

	if f.opts.ShowNotifier && n.Notifier != "" {
		parts = append(parts, n.Notifier)
	}

	content := n.Title
	if n.Message != "" {
		body := sanitizeBody(n.Message, f.opts.BodyMaxLen, f.opts.IncludeNewline)
		if body != "" {
			content += ": " + body
		}
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Notification *model.Snapshot
	RelativeTime string
}

// templateFuncs returns template helper functions.
func (f *DmenuFormatter) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"reltime": func(t time.Time) string {
			return relativeTime(t, f.now())
		},
		"priorityIcon": func(priority string) string {
			switch priority {
			case "min", "low":
				return "L"
			case "high", "max":
				return "!"
			case "system":
				return "S"
			default:
				return "-"
			}
		},
	}
}

// relativeTime returns a compact relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
}

// sanitizeBody cleans up message text for single-line display.
func sanitizeBody(body string, maxLen int, includeNewline bool) string {
	if !includeNewline {
		body = strings.ReplaceAll(body, "\n", " ")
		body = strings.ReplaceAll(body, "\r", "")
	}

	// Collapse multiple spaces
	for strings.Contains(body, "  ") {
		body = strings.ReplaceAll(body, "  ", " ")
	}

	body = strings.TrimSpace(body)

	if maxLen > 0 && len(body) > maxLen {
		if maxLen <= 3 {
			return body[:maxLen]
		}
		return body[:maxLen-3] + "..."
	}

	return body
}
