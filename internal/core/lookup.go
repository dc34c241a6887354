package core

import (
	"slices"
	"strings"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Search finds notifications matching a search term in title or message.
// Case-insensitive substring match.
func Search(notifications []model.Snapshot, term string) []model.Snapshot {
	if term == "" {
		return notifications
	}

	term = strings.ToLower(term)
	var result []model.Snapshot

	for _, n := range notifications {
		if strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(n.Message), term) {
			result = append(result, n)
		}
	}

	return result
}

// UniqueNotifiers returns the sorted notifier keys present in notifications.
func UniqueNotifiers(notifications []model.Snapshot) []string {
	seen := make(map[string]bool)
	var keys []string

	for _, n := range notifications {
		if n.Notifier != "" && !seen[n.Notifier] {
			seen[n.Notifier] = true
			keys = append(keys, n.Notifier)
		}
	}

	slices.Sort(keys)
	return keys
}
