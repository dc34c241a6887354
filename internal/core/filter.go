// Package core provides filtering, sorting, and lookup over notification
// snapshots fetched from the daemon.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // notifier, title, message, type, priority, timestamp, read, popup
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex       *regexp.Regexp
	priorityVal model.Priority
	timestampOp time.Time
	boolVal     bool
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies criteria for filtering notifications.
type FilterOptions struct {
	Since      time.Duration   // Only notifications newer than now-since (0=all)
	Notifier   string          // Exact match on the notifier key
	Priority   *model.Priority // Minimum priority (nil=any)
	UnreadOnly bool
	Limit      int // Maximum results (0=unlimited)
}

// Filter filters notifications based on the provided options.
func Filter(notifications []model.Snapshot, opts FilterOptions, now time.Time) []model.Snapshot {
	result := make([]model.Snapshot, 0, len(notifications))

	for _, n := range notifications {
		if opts.Since > 0 && n.Timestamp.Before(now.Add(-opts.Since)) {
			continue
		}
		if opts.Notifier != "" && n.Notifier != opts.Notifier {
			continue
		}
		if opts.Priority != nil {
			p, err := ParsePriority(n.Priority)
			if err != nil || p < *opts.Priority {
				continue
			}
		}
		if opts.UnreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// ParsePriority parses a priority name or its numeric value (-2 to 3).
func ParsePriority(s string) (model.Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	for p, name := range model.PriorityNames {
		if s == name {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		p := model.Priority(n)
		if _, ok := model.PriorityNames[p]; ok {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid priority: %s (use min, low, default, high, max or system)", s)
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: notifier, title, message, type, priority, timestamp, read, popup
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "notifier=app:discord" - exact notifier match
//   - "title~error" - title contains "error"
//   - "priority>=high" - high, max and system notifications
//   - "message~=(?i)meeting" - message matches regex (case-insensitive "meeting")
//   - "timestamp>1h" - notifications from the last hour
//   - "read=false,popup=false" - unread notifications still due to pop up
func ParseFilter(expr string, now time.Time) (*FilterExpr, error) {
	filter := &FilterExpr{}
	if expr == "" {
		return filter, nil
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part, now)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "title~error".
func parseCondition(s string, now time.Time) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "=".
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(now); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init normalizes the field name and pre-parses the value.
func (c *FilterCondition) init(now time.Time) error {
	switch c.Field {
	case "notifier", "app":
		c.Field = "notifier"
	case "title", "summary":
		c.Field = "title"
	case "message", "body":
		c.Field = "message"
	case "type":
	case "priority", "urgency":
		c.Field = "priority"
		p, err := ParsePriority(c.Value)
		if err != nil {
			return err
		}
		c.priorityVal = p
	case "read", "seen":
		c.Field = "read"
		c.boolVal = parseBool(c.Value)
	case "popup", "shown":
		c.Field = "popup"
		c.boolVal = parseBool(c.Value)
	case "timestamp", "time", "ts":
		c.Field = "timestamp"
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid timestamp value: %w", err)
		}
		c.timestampOp = now.Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match tests if a notification matches every condition.
func (f *FilterExpr) Match(n model.Snapshot) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(n) {
			return false
		}
	}
	return true
}

// Match tests if a notification matches this single condition.
func (c *FilterCondition) Match(n model.Snapshot) bool {
	switch c.Field {
	case "notifier":
		return c.matchString(n.Notifier)
	case "title":
		return c.matchString(n.Title)
	case "message":
		return c.matchString(n.Message)
	case "type":
		return c.matchString(n.Type)
	case "priority":
		p, err := ParsePriority(n.Priority)
		return err == nil && c.matchPriority(p)
	case "read":
		return c.matchBool(n.Read)
	case "popup":
		// popup=true means the notification is still due to pop up.
		return c.matchBool(!n.ShownAsPopup)
	case "timestamp":
		return c.matchTimestamp(n.Timestamp)
	default:
		return false
	}
}

func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

func (c *FilterCondition) matchPriority(p model.Priority) bool {
	switch c.Operator {
	case FilterOpEqual:
		return p == c.priorityVal
	case FilterOpNotEqual:
		return p != c.priorityVal
	case FilterOpGreater:
		return p > c.priorityVal
	case FilterOpLess:
		return p < c.priorityVal
	case FilterOpGreaterEq:
		return p >= c.priorityVal
	case FilterOpLessEq:
		return p <= c.priorityVal
	default:
		return false
	}
}

func (c *FilterCondition) matchBool(fieldValue bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.boolVal
	case FilterOpNotEqual:
		return fieldValue != c.boolVal
	default:
		return false
	}
}

// matchTimestamp compares against now minus the parsed duration, so
// "timestamp>1h" means newer than an hour ago.
func (c *FilterCondition) matchTimestamp(fieldValue time.Time) bool {
	switch c.Operator {
	case FilterOpGreater:
		return fieldValue.After(c.timestampOp)
	case FilterOpLess:
		return fieldValue.Before(c.timestampOp)
	case FilterOpGreaterEq:
		return !fieldValue.Before(c.timestampOp)
	case FilterOpLessEq:
		return !fieldValue.After(c.timestampOp)
	default:
		return false
	}
}

// FilterWithExpr filters notifications using a filter expression.
func FilterWithExpr(notifications []model.Snapshot, expr *FilterExpr) []model.Snapshot {
	if expr == nil || len(expr.Conditions) == 0 {
		return notifications
	}

	result := make([]model.Snapshot, 0, len(notifications))
	for _, n := range notifications {
		if expr.Match(n) {
			result = append(result, n)
		}
	}
	return result
}
