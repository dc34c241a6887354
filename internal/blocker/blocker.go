// Package blocker provides visibility policies for the message center.
//
// A blocker can hide a notification from the archive or only keep it from
// popping up. Registered blockers compose with AND semantics: a
// notification is shown only if every blocker allows it.
package blocker

import (
	"slices"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Observer is notified when a blocker changes what it blocks.
type Observer interface {
	OnBlockingStateChanged(b Blocker)
}

// Blocker is a pluggable visibility policy.
type Blocker interface {
	// CheckState refreshes any cached external state. Called before every
	// add or update.
	CheckState()
	ShouldShowNotification(n *model.Notification) bool
	ShouldShowNotificationAsPopup(n *model.Notification) bool
	AddObserver(o Observer)
	RemoveObserver(o Observer)
}

// Blockers is an ordered set of blockers.
type Blockers []Blocker

// ShouldShow reports whether no blocker hides n.
func (bs Blockers) ShouldShow(n *model.Notification) bool {
	for _, b := range bs {
		if !b.ShouldShowNotification(n) {
			return false
		}
	}
	return true
}

// ShouldShowAsPopup reports whether no blocker suppresses n's popup.
func (bs Blockers) ShouldShowAsPopup(n *model.Notification) bool {
	for _, b := range bs {
		if !b.ShouldShowNotificationAsPopup(n) {
			return false
		}
	}
	return true
}

// Base carries observer bookkeeping for Blocker implementations. Embedders
// pass themselves to NotifyBlockingStateChanged.
type Base struct {
	observers []Observer
}

// AddObserver registers o once.
func (b *Base) AddObserver(o Observer) {
	if slices.Contains(b.observers, o) {
		return
	}
	b.observers = append(b.observers, o)
}

// RemoveObserver unregisters o.
func (b *Base) RemoveObserver(o Observer) {
	b.observers = slices.DeleteFunc(b.observers, func(x Observer) bool { return x == o })
}

// CheckState does nothing by default.
func (b *Base) CheckState() {}

// ShouldShowNotification allows everything by default.
func (b *Base) ShouldShowNotification(*model.Notification) bool { return true }

// ShouldShowNotificationAsPopup allows everything by default.
func (b *Base) ShouldShowNotificationAsPopup(*model.Notification) bool { return true }

// NotifyBlockingStateChanged tells every observer that self changed.
func (b *Base) NotifyBlockingStateChanged(self Blocker) {
	for _, o := range slices.Clone(b.observers) {
		o.OnBlockingStateChanged(self)
	}
}
