package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	// SortByCenter keeps the order the daemon reports: the archive order
	// with the most important notifications first.
	SortByCenter    SortField = "center"
	SortByTimestamp SortField = "timestamp"
	SortByNotifier  SortField = "notifier"
	SortByPriority  SortField = "priority"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions keeps the daemon's order.
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByCenter,
		Order: SortDesc,
	}
}

// Sort sorts notifications in place. Ties keep their relative order.
func Sort(notifications []model.Snapshot, opts SortOptions) {
	if len(notifications) == 0 || opts.Field == SortByCenter {
		return
	}

	slices.SortStableFunc(notifications, func(a, b model.Snapshot) int {
		var c int
		switch opts.Field {
		case SortByNotifier:
			c = strings.Compare(strings.ToLower(a.Notifier), strings.ToLower(b.Notifier))
		case SortByPriority:
			pa, _ := ParsePriority(a.Priority)
			pb, _ := ParsePriority(b.Priority)
			c = cmp.Compare(pa, pb)
		default:
			c = a.Timestamp.Compare(b.Timestamp)
		}
		if opts.Order == SortDesc {
			return -c
		}
		return c
	})
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center", "c":
		return SortByCenter, nil
	case "timestamp", "time", "t":
		return SortByTimestamp, nil
	case "notifier", "app", "n":
		return SortByNotifier, nil
	case "priority", "p":
		return SortByPriority, nil
	default:
		return "", fmt.Errorf("invalid sort field: %s (use center, timestamp, notifier or priority)", s)
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc, nil
	case "", "desc", "descending", "d":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (use asc or desc)", s)
	}
}
