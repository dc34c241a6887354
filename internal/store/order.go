package store

import (
	"cmp"
	"slices"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// compareRecency orders newer notifications first, breaking timestamp ties
// by the later serial number.
func compareRecency(a, b *model.Notification) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.SerialNumber(), a.SerialNumber())
}

// compareArchive orders by descending priority, then by recency.
func compareArchive(a, b *model.Notification) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return compareRecency(a, b)
}

// SortArchive sorts notifications in archive order in place.
func SortArchive(notifications []*model.Notification) {
	slices.SortFunc(notifications, compareArchive)
}

// SortPopups sorts notifications in popup order in place.
func SortPopups(notifications []*model.Notification) {
	slices.SortFunc(notifications, compareRecency)
}
