// Package store holds the canonical notification collection of the message
// center and derives its archive and popup views.
package store

import (
	"maps"
	"slices"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/model"
)

// DefaultMaxVisiblePopups caps how many DEFAULT priority popups are shown
// at once. Higher priorities are never capped.
const DefaultMaxVisiblePopups = 2

// List owns every live notification, keyed by id. Ordered views are built
// on demand and never stored, so callers may hold a returned slice while
// the list is mutated underneath.
//
// List is not safe for concurrent use.
type List struct {
	notifications map[string]*model.Notification

	maxVisiblePopups     int
	quietMode            bool
	messageCenterVisible bool
}

// NewList creates an empty List.
func NewList() *List {
	return &List{
		notifications:    make(map[string]*model.Notification),
		maxVisiblePopups: DefaultMaxVisiblePopups,
	}
}

// SetMaxVisiblePopups changes the DEFAULT priority popup cap.
func (l *List) SetMaxVisiblePopups(n int) {
	if n < 1 {
		n = 1
	}
	l.maxVisiblePopups = n
}

// MaxVisiblePopups returns the DEFAULT priority popup cap.
func (l *List) MaxVisiblePopups() int { return l.maxVisiblePopups }

// QuietMode reports whether popups are suppressed.
func (l *List) QuietMode() bool { return l.quietMode }

// MessageCenterVisible reports whether the archive is open.
func (l *List) MessageCenterVisible() bool { return l.messageCenterVisible }

// Len returns the number of notifications regardless of blockers.
func (l *List) Len() int { return len(l.notifications) }

// AddNotification inserts n. An existing entry with the same id is replaced
// and its transient state inherited; otherwise n starts unread and is
// considered already popped if the archive is open or quiet mode is on.
func (l *List) AddNotification(n *model.Notification) {
	if old, ok := l.notifications[n.ID()]; ok {
		n.CopyState(old)
		delete(l.notifications, old.ID())
	} else {
		n.SetRead(false)
		n.SetShownAsPopup(l.messageCenterVisible || l.quietMode || n.ShownAsPopup())
	}
	l.notifications[n.ID()] = n
}

// UpdateNotificationMessage replaces the entry oldID with n, which may carry
// a different id. Transient state carries over, except that a priority
// increase or a web page notifier makes n announce itself again. Returns
// false if oldID does not exist.
func (l *List) UpdateNotificationMessage(oldID string, n *model.Notification) bool {
	old, ok := l.notifications[oldID]
	if !ok {
		return false
	}
	n.CopyState(old)
	if old.Priority < n.Priority || n.NotifierID.Type == model.NotifierWebPage {
		n.SetRead(false)
		n.SetShownAsPopup(false)
	}
	delete(l.notifications, oldID)
	// Ids stay unique even if the producer renamed onto a live id.
	delete(l.notifications, n.ID())
	l.notifications[n.ID()] = n
	return true
}

// RemoveNotification drops id. Returns false if it was absent.
func (l *List) RemoveNotification(id string) bool {
	if _, ok := l.notifications[id]; !ok {
		return false
	}
	delete(l.notifications, id)
	return true
}

// GetNotificationByID returns the notification or nil.
func (l *List) GetNotificationByID(id string) *model.Notification {
	return l.notifications[id]
}

// HasNotification reports whether id exists, blocked or not.
func (l *List) HasNotification(id string) bool {
	_, ok := l.notifications[id]
	return ok
}

// Delegate returns the delegate of id, or nil.
func (l *List) Delegate(id string) model.Delegate {
	if n, ok := l.notifications[id]; ok {
		return n.Delegate
	}
	return nil
}

// Notifications returns every notification in archive order.
func (l *List) Notifications() []*model.Notification {
	out := slices.Collect(maps.Values(l.notifications))
	SortArchive(out)
	return out
}

// GetNotificationsByNotifierID returns the notifications of one notifier
// in archive order.
func (l *List) GetNotificationsByNotifierID(id model.NotifierID) []*model.Notification {
	var out []*model.Notification
	for _, n := range l.Notifications() {
		if n.NotifierID.Equal(id) {
			out = append(out, n)
		}
	}
	return out
}

// SetNotificationIcon sets the icon of id.
func (l *List) SetNotificationIcon(id string, img model.Image) bool {
	n, ok := l.notifications[id]
	if !ok {
		return false
	}
	n.Icon = img
	return true
}

// SetNotificationImage sets the main image of id.
func (l *List) SetNotificationImage(id string, img model.Image) bool {
	n, ok := l.notifications[id]
	if !ok {
		return false
	}
	n.Image = img
	return true
}

// SetNotificationButtonIcon sets the icon of one button of id.
func (l *List) SetNotificationButtonIcon(id string, index int, img model.Image) bool {
	n, ok := l.notifications[id]
	if !ok {
		return false
	}
	return n.SetButtonIcon(index, img) == nil
}

// HasNotificationOfType reports whether id exists with the given type.
func (l *List) HasNotificationOfType(id string, typ model.Type) bool {
	n, ok := l.notifications[id]
	return ok && n.Type == typ
}

// HasPopupNotifications reports whether any unblocked notification is
// still waiting for its popup.
func (l *List) HasPopupNotifications(blockers blocker.Blockers) bool {
	for _, n := range l.Notifications() {
		if n.Priority < model.PriorityDefault {
			break
		}
		if !blockers.ShouldShowAsPopup(n) {
			continue
		}
		if !n.ShownAsPopup() {
			return true
		}
	}
	return false
}

// GetPopupNotifications returns the notifications that should be shown as
// popups now, newest first. The scan runs oldest first so that, when the
// DEFAULT cap is hit, the newest ones wait rather than the oldest. Ids of
// candidates vetoed by a blocker are returned in blocked.
func (l *List) GetPopupNotifications(blockers blocker.Blockers) (popups []*model.Notification, blocked []string) {
	defaultCount := 0
	archive := l.Notifications()
	for i := len(archive) - 1; i >= 0; i-- {
		n := archive[i]
		if n.ShownAsPopup() {
			continue
		}
		if n.Priority < model.PriorityDefault {
			continue
		}
		if !blockers.ShouldShowAsPopup(n) {
			blocked = append(blocked, n.ID())
			continue
		}
		if n.Priority == model.PriorityDefault {
			if defaultCount >= l.maxVisiblePopups {
				continue
			}
			defaultCount++
		}
		popups = append(popups, n)
	}
	SortPopups(popups)
	return popups, blocked
}

// MarkSinglePopupAsShown retires the popup of id. SYSTEM priority popups
// are only retired when read, so they keep coming back until the user sees
// them. Without markAsRead the read flag that display set is undone.
func (l *List) MarkSinglePopupAsShown(id string, markAsRead bool) {
	n, ok := l.notifications[id]
	if !ok || n.ShownAsPopup() {
		return
	}
	if n.Priority != model.PrioritySystem || markAsRead {
		n.SetShownAsPopup(true)
	}
	if !markAsRead {
		n.SetRead(false)
	}
}

// MarkSinglePopupAsDisplayed marks a visible popup as read.
func (l *List) MarkSinglePopupAsDisplayed(id string) {
	n, ok := l.notifications[id]
	if !ok || n.ShownAsPopup() {
		return
	}
	if !n.IsRead() {
		n.SetRead(true)
	}
}

// SetNotificationsShown marks every visible notification as read and, below
// SYSTEM priority, as popped. Returns the ids whose state changed, in
// archive order.
func (l *List) SetNotificationsShown(blockers blocker.Blockers) []string {
	var updated []string
	for _, n := range l.GetVisibleNotifications(blockers) {
		wasPopup := n.ShownAsPopup()
		wasRead := n.IsRead()
		if n.Priority < model.PrioritySystem {
			n.SetShownAsPopup(true)
		}
		n.SetRead(true)
		if !(wasPopup && wasRead) {
			updated = append(updated, n.ID())
		}
	}
	return updated
}

// SetMessageCenterVisible records whether the archive is open.
func (l *List) SetMessageCenterVisible(visible bool) {
	l.messageCenterVisible = visible
}

// SetQuietMode toggles quiet mode. Entering it retires every pending popup
// without touching read state.
func (l *List) SetQuietMode(quiet bool) {
	l.quietMode = quiet
	if !quiet {
		return
	}
	for _, n := range l.notifications {
		n.SetShownAsPopup(true)
	}
}

// GetVisibleNotifications returns the notifications no blocker hides, in
// archive order.
func (l *List) GetVisibleNotifications(blockers blocker.Blockers) []*model.Notification {
	var out []*model.Notification
	for _, n := range l.Notifications() {
		if blockers.ShouldShow(n) {
			out = append(out, n)
		}
	}
	return out
}

// NotificationCount counts visible notifications.
func (l *List) NotificationCount(blockers blocker.Blockers) int {
	return len(l.GetVisibleNotifications(blockers))
}

// UnreadCount counts visible unread notifications.
func (l *List) UnreadCount(blockers blocker.Blockers) int {
	count := 0
	for _, n := range l.GetVisibleNotifications(blockers) {
		if !n.IsRead() {
			count++
		}
	}
	return count
}
