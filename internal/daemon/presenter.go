package daemon

import (
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/model"
)

// DisplayStatus represents the status of a notification in the popup area.
type DisplayStatus int

const (
	// DisplayStatusPending means the notification waits for a popup slot.
	DisplayStatusPending DisplayStatus = iota
	// DisplayStatusActive means the popup is on screen.
	DisplayStatusActive
	// DisplayStatusExpired means the popup left the screen on its own.
	DisplayStatusExpired
	// DisplayStatusDismissed means the user removed the notification.
	DisplayStatusDismissed
	// DisplayStatusClosed means the notification was closed by its producer.
	DisplayStatusClosed
)

// String returns the string representation of DisplayStatus.
func (s DisplayStatus) String() string {
	switch s {
	case DisplayStatusPending:
		return "pending"
	case DisplayStatusActive:
		return "active"
	case DisplayStatusExpired:
		return "expired"
	case DisplayStatusDismissed:
		return "dismissed"
	case DisplayStatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DisplayState tracks one notification in the popup area.
type DisplayState struct {
	ID        string
	Status    DisplayStatus
	CreatedAt time.Time
	ShownAt   time.Time
	ClosedAt  time.Time
}

// popupCenter is the part of the MessageCenter the presenter drives.
type popupCenter interface {
	PopupNotifications() []*model.Notification
	DisplayedNotification(id string, source center.DisplaySource)
	IsMessageCenterVisible() bool
}

// Presenter is a headless popup surface. It puts the center's popups "on
// screen" by reporting them displayed, which starts their timers, and
// marks popups that leave the set as expired. Refreshes are posted so they
// never run inside another observer callback.
type Presenter struct {
	center.NopObserver

	mc     popupCenter
	post   func(func()) bool
	clock  center.Clock
	logger *slog.Logger

	states    map[string]*DisplayState
	scheduled bool
}

// NewPresenter creates a presenter for mc. post schedules work on the
// goroutine that owns mc.
func NewPresenter(mc popupCenter, post func(func()) bool, clock center.Clock, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		mc:     mc,
		post:   post,
		clock:  clock,
		logger: logger,
		states: make(map[string]*DisplayState),
	}
}

func (p *Presenter) schedule() {
	if p.scheduled {
		return
	}
	p.scheduled = true
	if !p.post(func() {
		p.scheduled = false
		p.Refresh()
	}) {
		p.scheduled = false
	}
}

// Refresh reconciles the tracked states with the center's popups.
func (p *Presenter) Refresh() {
	now := p.clock.Now()

	var popups []string
	if !p.mc.IsMessageCenterVisible() {
		for _, n := range p.mc.PopupNotifications() {
			popups = append(popups, n.ID())
		}
	}

	for id, state := range p.states {
		if state.Status == DisplayStatusActive && !slices.Contains(popups, id) {
			state.Status = DisplayStatusExpired
			state.ClosedAt = now
			p.logger.Debug("popup expired", "id", id)
		}
	}

	for _, id := range popups {
		state, ok := p.states[id]
		if !ok {
			state = &DisplayState{ID: id, CreatedAt: now}
			p.states[id] = state
		}
		if state.Status == DisplayStatusActive {
			continue
		}
		state.Status = DisplayStatusActive
		state.ShownAt = now
		state.ClosedAt = time.Time{}
		p.logger.Debug("popup shown", "id", id)
		p.mc.DisplayedNotification(id, center.DisplaySourcePopup)
	}
}

// State returns a copy of the display state of id.
func (p *Presenter) State(id string) (DisplayState, bool) {
	state, ok := p.states[id]
	if !ok {
		return DisplayState{}, false
	}
	return *state, true
}

// ActiveNotifications returns the ids currently on screen, sorted.
func (p *Presenter) ActiveNotifications() []string {
	var active []string
	for id, state := range p.states {
		if state.Status == DisplayStatusActive {
			active = append(active, id)
		}
	}
	slices.Sort(active)
	return active
}

// ActiveCount returns the number of popups on screen.
func (p *Presenter) ActiveCount() int {
	return len(p.ActiveNotifications())
}

// Count returns the number of tracked notifications.
func (p *Presenter) Count() int { return len(p.states) }

// OnNotificationAdded tracks id as pending until the next update shows it.
func (p *Presenter) OnNotificationAdded(id string) {
	if _, ok := p.states[id]; !ok {
		p.states[id] = &DisplayState{ID: id, Status: DisplayStatusPending, CreatedAt: p.clock.Now()}
	}
	p.schedule()
}

// OnNotificationUpdated reschedules an update.
func (p *Presenter) OnNotificationUpdated(string) { p.schedule() }

// OnNotificationRemoved drops the state. Removal is final, so the status
// is only logged.
func (p *Presenter) OnNotificationRemoved(id string, byUser bool) {
	status := DisplayStatusClosed
	if byUser {
		status = DisplayStatusDismissed
	}
	if _, ok := p.states[id]; ok {
		p.logger.Debug("popup removed", "id", id, "status", status.String())
		delete(p.states, id)
	}
	p.schedule()
}

// OnCenterVisibilityChanged reschedules an update.
func (p *Presenter) OnCenterVisibilityChanged(center.Visibility) { p.schedule() }

// OnQuietModeChanged reschedules an update.
func (p *Presenter) OnQuietModeChanged(bool) { p.schedule() }

// OnBlockingStateChanged implements blocker.Observer.
func (p *Presenter) OnBlockingStateChanged(blocker.Blocker) { p.schedule() }
