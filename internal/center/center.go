// Package center implements the message center: the façade that owns the
// notification list, defers changes while the archive is open, applies
// blockers, runs popup timers and fans events out to observers.
//
// A MessageCenter is not safe for concurrent use. Every call, including
// timer callbacks scheduled through the Clock, must run on one goroutine.
package center

import (
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/model"
	"github.com/jmylchreest/msgcenter/internal/store"
)

// RemoveType selects what RemoveAllNotifications removes.
type RemoveType int

const (
	// RemoveNonPinned keeps pinned notifications.
	RemoveNonPinned RemoveType = iota
	// RemoveAll removes everything, pinned or blocked.
	RemoveAll
)

// Options configures a MessageCenter.
type Options struct {
	Logger *slog.Logger
	Clock  Clock
	// Timeouts defaults to DefaultTimeouts.
	Timeouts *Timeouts
	// MaxVisiblePopups defaults to store.DefaultMaxVisiblePopups.
	MaxVisiblePopups int
	// DeferChanges queues producer changes while the archive is open.
	DeferChanges bool
}

// MessageCenter is the single entry point for producers and the tray.
type MessageCenter struct {
	logger *slog.Logger
	clock  Clock

	list      *store.List
	queue     *changeQueue // nil when deferral is disabled
	timers    *PopupTimers
	blockers  blocker.Blockers
	observers []Observer
	settings  SettingsProvider

	visible []*model.Notification
	unread  int

	visibility Visibility
	locked     bool

	quietTimer Timer
	quietSeq   uint64
	quietUntil time.Time
}

// New creates a MessageCenter.
func New(opts Options) *MessageCenter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	timeouts := DefaultTimeouts()
	if opts.Timeouts != nil {
		timeouts = *opts.Timeouts
	}

	m := &MessageCenter{
		logger: logger,
		clock:  clock,
		list:   store.NewList(),
	}
	if opts.MaxVisiblePopups > 0 {
		m.list.SetMaxVisiblePopups(opts.MaxVisiblePopups)
	}
	if opts.DeferChanges {
		m.queue = &changeQueue{}
	}
	m.timers = NewPopupTimers(m, clock, timeouts, logger)
	m.AddObserver(m.timers)
	m.rebuildCache()
	return m
}

// Shutdown stops every timer and detaches from blockers, the settings
// provider and observers. The MessageCenter must not be used afterwards.
func (m *MessageCenter) Shutdown() {
	m.timers.CancelAll()
	m.stopQuietTimer()
	for _, b := range m.blockers {
		b.RemoveObserver(m)
	}
	m.blockers = nil
	if m.settings != nil {
		m.settings.RemoveObserver(m)
		m.settings = nil
	}
	m.observers = nil
}

// AddObserver registers o. Registering twice has no effect.
func (m *MessageCenter) AddObserver(o Observer) {
	if slices.Contains(m.observers, o) {
		return
	}
	m.observers = append(m.observers, o)
}

// RemoveObserver unregisters o.
func (m *MessageCenter) RemoveObserver(o Observer) {
	m.observers = slices.DeleteFunc(m.observers, func(x Observer) bool { return x == o })
}

// notify fans out over a copy so observers may (un)register themselves.
func (m *MessageCenter) notify(fn func(Observer)) {
	for _, o := range slices.Clone(m.observers) {
		fn(o)
	}
}

// AddNotificationBlocker registers b after the existing blockers.
func (m *MessageCenter) AddNotificationBlocker(b blocker.Blocker) {
	if slices.Contains(m.blockers, b) {
		return
	}
	b.AddObserver(m)
	m.blockers = append(m.blockers, b)
}

// RemoveNotificationBlocker unregisters b.
func (m *MessageCenter) RemoveNotificationBlocker(b blocker.Blocker) {
	i := slices.Index(m.blockers, b)
	if i < 0 {
		return
	}
	b.RemoveObserver(m)
	m.blockers = slices.Delete(m.blockers, i, i+1)
}

// Blockers returns the registered blockers in registration order.
func (m *MessageCenter) Blockers() blocker.Blockers {
	return slices.Clone(m.blockers)
}

// SetSettingsProvider attaches the notifier settings provider.
func (m *MessageCenter) SetSettingsProvider(p SettingsProvider) {
	if m.settings != nil {
		m.settings.RemoveObserver(m)
	}
	m.settings = p
	if p != nil {
		p.AddObserver(m)
	}
}

// SettingsProvider returns the attached provider, or nil.
func (m *MessageCenter) SettingsProvider() SettingsProvider { return m.settings }

// rebuildCache replaces the visible snapshot. Slices handed out earlier
// stay untouched.
func (m *MessageCenter) rebuildCache() {
	m.visible = m.list.GetVisibleNotifications(m.blockers)
	m.recountUnread()
}

func (m *MessageCenter) recountUnread() {
	m.unread = 0
	for _, n := range m.visible {
		if !n.IsRead() {
			m.unread++
		}
	}
}

// NotificationCount returns the number of visible notifications.
func (m *MessageCenter) NotificationCount() int { return len(m.visible) }

// UnreadNotificationCount returns the number of visible unread
// notifications.
func (m *MessageCenter) UnreadNotificationCount() int { return m.unread }

// HasPopupNotifications reports whether a popup is waiting to be shown.
// Always false while the archive is open.
func (m *MessageCenter) HasPopupNotifications() bool {
	return !m.IsMessageCenterVisible() && m.list.HasPopupNotifications(m.blockers)
}

// IsQuietMode reports whether popups are suppressed.
func (m *MessageCenter) IsQuietMode() bool { return m.list.QuietMode() }

// IsMessageCenterVisible reports whether the archive is open.
func (m *MessageCenter) IsMessageCenterVisible() bool { return m.list.MessageCenterVisible() }

// Visibility returns the last visibility set.
func (m *MessageCenter) Visibility() Visibility { return m.visibility }

// IsLocked reports the lock state set by SetLockedState.
func (m *MessageCenter) IsLocked() bool { return m.locked }

// HasClickedListener reports whether id's delegate handles clicks.
func (m *MessageCenter) HasClickedListener(id string) bool {
	d := m.list.Delegate(id)
	return d != nil && d.HasClickedListener()
}

// FindVisibleNotificationByID returns the visible notification id, or nil
// if it does not exist or a blocker hides it.
func (m *MessageCenter) FindVisibleNotificationByID(id string) *model.Notification {
	for _, n := range m.visible {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

// VisibleNotifications returns the cached archive view. The slice is
// replaced, never modified, so callers may keep it across mutations.
func (m *MessageCenter) VisibleNotifications() []*model.Notification {
	return m.visible
}

// PopupNotifications returns the popups to show now, newest first.
func (m *MessageCenter) PopupNotifications() []*model.Notification {
	popups, _ := m.list.GetPopupNotifications(m.blockers)
	return popups
}

// PendingChanges returns the number of queued changes.
func (m *MessageCenter) PendingChanges() int {
	if m.queue == nil {
		return 0
	}
	return m.queue.len()
}

// PopupTimers exposes the popup countdowns.
func (m *MessageCenter) PopupTimers() *PopupTimers { return m.timers }

func (m *MessageCenter) checkBlockers() {
	for _, b := range m.blockers {
		b.CheckState()
	}
}

func (m *MessageCenter) deferring() bool {
	return m.queue != nil && m.IsMessageCenterVisible()
}

// AddNotification adds n, or replaces the notification with the same id.
func (m *MessageCenter) AddNotification(n *model.Notification) {
	if n == nil || n.ID() == "" {
		m.logger.Error("rejected notification without id")
		return
	}
	m.checkBlockers()

	if m.deferring() {
		m.logger.Debug("queued add", "id", n.ID())
		m.queue.addNotification(n)
		return
	}
	m.addNotificationImmediately(n)
}

func (m *MessageCenter) addNotificationImmediately(n *model.Notification) {
	id := n.ID()
	existed := m.list.HasNotification(id)
	m.list.AddNotification(n)
	m.rebuildCache()

	m.logger.Debug("notification added", "id", id, "replaced", existed)
	if existed {
		m.notify(func(o Observer) { o.OnNotificationUpdated(id) })
		return
	}
	m.notify(func(o Observer) { o.OnNotificationAdded(id) })
}

// UpdateNotification replaces oldID with n. n may carry a new id.
func (m *MessageCenter) UpdateNotification(oldID string, n *model.Notification) {
	if n == nil || n.ID() == "" {
		m.logger.Error("rejected update without id", "old_id", oldID)
		return
	}
	m.checkBlockers()

	if m.deferring() {
		// Progress bars animate live unless the bar has queued changes.
		if n.Type == model.TypeProgress && !m.queue.has(oldID) &&
			m.list.HasNotificationOfType(oldID, model.TypeProgress) {
			m.updateNotificationImmediately(oldID, n)
			return
		}
		m.logger.Debug("queued update", "old_id", oldID, "id", n.ID())
		m.queue.updateNotification(oldID, n)
		return
	}
	m.updateNotificationImmediately(oldID, n)
}

func (m *MessageCenter) updateNotificationImmediately(oldID string, n *model.Notification) {
	newID := n.ID()
	if !m.list.UpdateNotificationMessage(oldID, n) {
		m.logger.Debug("update of unknown notification ignored", "old_id", oldID)
		return
	}
	m.rebuildCache()

	if oldID == newID {
		m.notify(func(o Observer) { o.OnNotificationUpdated(newID) })
		return
	}
	m.notify(func(o Observer) { o.OnNotificationRemoved(oldID, false) })
	m.notify(func(o Observer) { o.OnNotificationAdded(newID) })
}

// RemoveNotification removes id. Removals by the user are never deferred.
func (m *MessageCenter) RemoveNotification(id string, byUser bool) {
	if !byUser && m.deferring() {
		m.logger.Debug("queued remove", "id", id)
		m.queue.eraseNotification(id, byUser)
		return
	}
	m.removeNotificationImmediately(id, byUser)
}

func (m *MessageCenter) removeNotificationImmediately(id string, byUser bool) {
	n := m.list.GetNotificationByID(id)
	if n == nil {
		return
	}
	// The delegate is held across the removal.
	delegate := n.Delegate
	if delegate != nil {
		delegate.Close(byUser)
	}
	m.list.RemoveNotification(id)
	m.rebuildCache()

	m.logger.Debug("notification removed", "id", id, "by_user", byUser)
	m.notify(func(o Observer) { o.OnNotificationRemoved(id, byUser) })
}

// RemoveNotificationsForNotifierID removes every notification of notifier.
func (m *MessageCenter) RemoveNotificationsForNotifierID(notifier model.NotifierID) {
	notifications := m.list.GetNotificationsByNotifierID(notifier)
	for _, n := range notifications {
		m.RemoveNotification(n.ID(), false)
	}
	if len(notifications) > 0 {
		m.rebuildCache()
	}
}

// RemoveAllNotifications removes every notification regardless of
// blockers. With RemoveNonPinned pinned ones stay.
func (m *MessageCenter) RemoveAllNotifications(byUser bool, typ RemoveType) {
	m.removeAll(nil, byUser, typ == RemoveNonPinned)
}

// RemoveAllVisibleNotifications removes the visible, unpinned
// notifications.
func (m *MessageCenter) RemoveAllVisibleNotifications(byUser bool) {
	m.removeAll(m.blockers, byUser, true)
}

func (m *MessageCenter) removeAll(blockers blocker.Blockers, byUser, keepPinned bool) {
	var removed []string
	for _, n := range m.list.GetVisibleNotifications(blockers) {
		if keepPinned && n.Pinned {
			continue
		}
		if n.Delegate != nil {
			n.Delegate.Close(byUser)
		}
		m.list.RemoveNotification(n.ID())
		removed = append(removed, n.ID())
	}
	if len(removed) == 0 {
		return
	}
	m.rebuildCache()

	m.logger.Debug("notifications removed", "count", len(removed), "by_user", byUser)
	for _, id := range removed {
		m.notify(func(o Observer) { o.OnNotificationRemoved(id, byUser) })
	}
}

// SetNotificationIcon sets the icon of id, patching queued content first.
func (m *MessageCenter) SetNotificationIcon(id string, img model.Image) {
	m.setImage(id, func(n *model.Notification) bool {
		n.Icon = img
		return true
	}, func() bool {
		return m.list.SetNotificationIcon(id, img)
	})
}

// SetNotificationImage sets the main image of id.
func (m *MessageCenter) SetNotificationImage(id string, img model.Image) {
	m.setImage(id, func(n *model.Notification) bool {
		n.Image = img
		return true
	}, func() bool {
		return m.list.SetNotificationImage(id, img)
	})
}

// SetNotificationButtonIcon sets the icon of one button of id.
func (m *MessageCenter) SetNotificationButtonIcon(id string, index int, img model.Image) {
	m.setImage(id, func(n *model.Notification) bool {
		return n.SetButtonIcon(index, img) == nil
	}, func() bool {
		return m.list.SetNotificationButtonIcon(id, index, img)
	})
}

func (m *MessageCenter) setImage(id string, queued func(*model.Notification) bool, listed func() bool) {
	var updated bool
	if n := m.latestQueued(id); n != nil {
		updated = queued(n)
	} else {
		updated = listed()
	}
	if updated {
		m.notify(func(o Observer) { o.OnNotificationUpdated(id) })
	}
}

func (m *MessageCenter) latestQueued(id string) *model.Notification {
	if m.queue == nil {
		return nil
	}
	return m.queue.latestNotification(id)
}

// DisableNotificationsByNotifier turns notifier off. With a settings
// provider the removal happens when the provider reports the change.
func (m *MessageCenter) DisableNotificationsByNotifier(notifier model.NotifierID) {
	if m.settings != nil {
		m.settings.SetNotifierEnabled(model.Notifier{ID: notifier, Enabled: true}, false)
		return
	}
	m.RemoveNotificationsForNotifierID(notifier)
}

// NotifierEnabledChanged removes the notifications of a disabled notifier.
func (m *MessageCenter) NotifierEnabledChanged(id model.NotifierID, enabled bool) {
	if !enabled {
		m.RemoveNotificationsForNotifierID(id)
	}
}

// NotifierGroupChanged implements SettingsObserver.
func (m *MessageCenter) NotifierGroupChanged() {
	m.logger.Debug("notifier group changed")
}

// UpdateIconImage implements SettingsObserver.
func (m *MessageCenter) UpdateIconImage(id model.NotifierID, _ model.Image) {
	m.logger.Debug("notifier icon changed", "notifier", id.Key())
}

// ClickOnNotification reports a click on the body of id.
func (m *MessageCenter) ClickOnNotification(id string) {
	if m.FindVisibleNotificationByID(id) == nil {
		return
	}
	if m.HasPopupNotifications() {
		m.MarkSinglePopupAsShown(id, true)
	}
	if d := m.list.Delegate(id); d != nil {
		d.Click()
	}
	m.notify(func(o Observer) { o.OnNotificationClicked(id) })
}

// ClickOnNotificationButton reports a click on button index of id.
func (m *MessageCenter) ClickOnNotificationButton(id string, index int) {
	if m.FindVisibleNotificationByID(id) == nil {
		return
	}
	if m.HasPopupNotifications() {
		m.MarkSinglePopupAsShown(id, true)
	}
	if d := m.list.Delegate(id); d != nil {
		d.ButtonClick(index)
	}
	m.notify(func(o Observer) { o.OnNotificationButtonClicked(id, index) })
}

// ClickOnSettingsButton asks the settings provider to open the advanced
// settings of id's notifier. Returns false if nothing handled it.
func (m *MessageCenter) ClickOnSettingsButton(id string) bool {
	n := m.list.GetNotificationByID(id)
	if n == nil || m.settings == nil {
		return false
	}
	if !m.settings.NotifierHasAdvancedSettings(n.NotifierID) {
		return false
	}
	m.settings.OnNotifierAdvancedSettingsRequested(n.NotifierID, id)
	return true
}

// MarkSinglePopupAsShown retires the popup of id.
func (m *MessageCenter) MarkSinglePopupAsShown(id string, markAsRead bool) {
	if m.FindVisibleNotificationByID(id) == nil {
		return
	}
	m.list.MarkSinglePopupAsShown(id, markAsRead)
	m.recountUnread()
	m.notify(func(o Observer) { o.OnNotificationUpdated(id) })
}

// DisplayedNotification reports that id is on screen.
func (m *MessageCenter) DisplayedNotification(id string, source DisplaySource) {
	if m.FindVisibleNotificationByID(id) == nil {
		return
	}
	if m.HasPopupNotifications() {
		m.list.MarkSinglePopupAsDisplayed(id)
	}
	m.recountUnread()
	if d := m.list.Delegate(id); d != nil {
		d.Display()
	}
	m.notify(func(o Observer) { o.OnNotificationDisplayed(id, source) })
}

// SetVisibility records a tray state change. Opening the archive marks
// what it shows as read; closing it replays deferred changes.
func (m *MessageCenter) SetVisibility(v Visibility) {
	m.visibility = v
	m.list.SetMessageCenterVisible(v == VisibilityMessageCenter)

	if v == VisibilityMessageCenter && !m.locked {
		updated := m.list.SetNotificationsShown(m.blockers)
		m.recountUnread()
		for _, id := range updated {
			m.notify(func(o Observer) { o.OnNotificationUpdated(id) })
		}
	}

	if m.queue != nil && v == VisibilityTransient {
		m.queue.applyChanges(m)
	}

	m.notify(func(o Observer) { o.OnCenterVisibilityChanged(v) })
}

// SetLockedState records whether the session is locked.
func (m *MessageCenter) SetLockedState(locked bool) {
	if m.locked == locked {
		return
	}
	m.locked = locked
	m.notify(func(o Observer) { o.OnLockedStateChanged(locked) })
}

// OnBlockingStateChanged implements blocker.Observer. Popups a blocker now
// vetoes are retired as read so they do not burst out when it lifts.
func (m *MessageCenter) OnBlockingStateChanged(b blocker.Blocker) {
	_, blocked := m.list.GetPopupNotifications(m.blockers)
	for _, id := range blocked {
		m.list.MarkSinglePopupAsShown(id, true)
	}
	m.rebuildCache()

	for _, id := range blocked {
		m.notify(func(o Observer) { o.OnNotificationUpdated(id) })
	}
	m.notify(func(o Observer) { o.OnBlockingStateChanged(b) })
}

// SetQuietMode toggles quiet mode and cancels any pending expiry.
func (m *MessageCenter) SetQuietMode(quiet bool) {
	m.stopQuietTimer()
	if m.list.QuietMode() == quiet {
		return
	}
	m.list.SetQuietMode(quiet)
	m.logger.Info("quiet mode changed", "enabled", quiet)
	m.notify(func(o Observer) { o.OnQuietModeChanged(quiet) })
}

// EnterQuietModeWithExpire enables quiet mode for d. Calling it while an
// expiry is pending restarts the countdown with d.
func (m *MessageCenter) EnterQuietModeWithExpire(d time.Duration) {
	if m.quietTimer != nil {
		m.quietTimer.Stop()
		m.startQuietTimer(d)
		return
	}
	if !m.list.QuietMode() {
		m.list.SetQuietMode(true)
		m.logger.Info("quiet mode changed", "enabled", true, "expires_in", d)
		m.notify(func(o Observer) { o.OnQuietModeChanged(true) })
	}
	m.startQuietTimer(d)
}

// QuietModeExpiry returns when quiet mode ends on its own, if it does.
func (m *MessageCenter) QuietModeExpiry() (time.Time, bool) {
	if m.quietTimer == nil {
		return time.Time{}, false
	}
	return m.quietUntil, true
}

func (m *MessageCenter) startQuietTimer(d time.Duration) {
	m.quietSeq++
	seq := m.quietSeq
	m.quietUntil = m.clock.Now().Add(d)
	m.quietTimer = m.clock.AfterFunc(d, func() {
		if m.quietTimer == nil || m.quietSeq != seq {
			return
		}
		m.quietTimer = nil
		m.SetQuietMode(false)
	})
}

func (m *MessageCenter) stopQuietTimer() {
	if m.quietTimer == nil {
		return
	}
	m.quietTimer.Stop()
	m.quietTimer = nil
	m.quietSeq++
}

// PausePopupTimers pauses every popup countdown.
func (m *MessageCenter) PausePopupTimers() { m.timers.PauseAll() }

// RestartPopupTimers resumes every popup countdown.
func (m *MessageCenter) RestartPopupTimers() { m.timers.StartAll() }

// ForceNotificationFlush applies the queued changes that end in id.
func (m *MessageCenter) ForceNotificationFlush(id string) {
	if m.queue == nil {
		return
	}
	m.queue.applyChangesForID(m, id)
}

// SetDeferChanges enables or disables the change queue. Disabling applies
// whatever is queued.
func (m *MessageCenter) SetDeferChanges(enabled bool) {
	if enabled {
		if m.queue == nil {
			m.queue = &changeQueue{}
		}
		return
	}
	q := m.queue
	m.queue = nil
	if q != nil {
		q.applyChanges(m)
	}
}

// SetMaxVisiblePopups changes the DEFAULT priority popup cap.
func (m *MessageCenter) SetMaxVisiblePopups(n int) {
	m.list.SetMaxVisiblePopups(n)
}

// SetTimeouts changes the popup timeouts for timers started from now on.
func (m *MessageCenter) SetTimeouts(t Timeouts) {
	m.timers.SetTimeouts(t)
}
