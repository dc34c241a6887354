package center

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Timeouts configures how long popups stay up before they retire on their
// own.
type Timeouts struct {
	Default time.Duration
	High    time.Duration
	WebPage time.Duration
}

// DefaultTimeouts returns the stock popup timeouts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default: 8 * time.Second,
		High:    25 * time.Second,
		WebPage: 20 * time.Second,
	}
}

// For returns the timeout for n.
func (t Timeouts) For(n *model.Notification) time.Duration {
	switch {
	case n.Priority > model.PriorityDefault:
		return t.High
	case n.NotifierID.Type == model.NotifierWebPage:
		return t.WebPage
	default:
		return t.Default
	}
}

// popupSource is what the timers need from the message center.
type popupSource interface {
	PopupNotifications() []*model.Notification
	MarkSinglePopupAsShown(id string, markAsRead bool)
}

type popupTimer struct {
	timeout   time.Duration
	passed    time.Duration
	startedAt time.Time
	timer     Timer // nil while paused
	seq       uint64
}

func (t *popupTimer) running() bool { return t.timer != nil }

// PopupTimers runs one pausable countdown per visible popup. When a
// countdown expires the popup is retired without marking it read.
type PopupTimers struct {
	NopObserver

	source   popupSource
	clock    Clock
	logger   *slog.Logger
	timeouts Timeouts
	timers   map[string]*popupTimer
	seq      uint64
}

// NewPopupTimers creates the timer collection for source.
func NewPopupTimers(source popupSource, clock Clock, timeouts Timeouts, logger *slog.Logger) *PopupTimers {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PopupTimers{
		source:   source,
		clock:    clock,
		logger:   logger,
		timeouts: timeouts,
		timers:   make(map[string]*popupTimer),
	}
}

// SetTimeouts changes the timeouts for timers started from now on.
func (p *PopupTimers) SetTimeouts(t Timeouts) { p.timeouts = t }

// Timeouts returns the current timeouts.
func (p *PopupTimers) Timeouts() Timeouts { return p.timeouts }

// Has reports whether id has a timer, running or paused.
func (p *PopupTimers) Has(id string) bool {
	_, ok := p.timers[id]
	return ok
}

// Running reports whether id has a running timer.
func (p *PopupTimers) Running(id string) bool {
	t, ok := p.timers[id]
	return ok && t.running()
}

// Remaining returns how long id has left, or false if it has no timer.
func (p *PopupTimers) Remaining(id string) (time.Duration, bool) {
	t, ok := p.timers[id]
	if !ok {
		return 0, false
	}
	passed := t.passed
	if t.running() {
		passed += p.clock.Now().Sub(t.startedAt)
	}
	return max(t.timeout-passed, 0), true
}

// StartTimer starts a countdown of timeout for id. A paused timer for id
// is resumed with its remaining time instead.
func (p *PopupTimers) StartTimer(id string, timeout time.Duration) {
	t, ok := p.timers[id]
	if !ok {
		t = &popupTimer{timeout: timeout}
		p.timers[id] = t
	}
	p.start(id, t)
}

// ResetTimer restarts id's countdown from the full timeout.
func (p *PopupTimers) ResetTimer(id string, timeout time.Duration) {
	p.CancelTimer(id)
	p.StartTimer(id, timeout)
}

// PauseTimer stops id's countdown, keeping the elapsed time.
func (p *PopupTimers) PauseTimer(id string) {
	if t, ok := p.timers[id]; ok {
		p.pause(t)
	}
}

// CancelTimer drops id's countdown.
func (p *PopupTimers) CancelTimer(id string) {
	t, ok := p.timers[id]
	if !ok {
		return
	}
	if t.running() {
		t.timer.Stop()
	}
	delete(p.timers, id)
}

// StartAll resumes every paused countdown.
func (p *PopupTimers) StartAll() {
	for id, t := range p.timers {
		p.start(id, t)
	}
}

// PauseAll pauses every countdown, e.g. while the pointer hovers a popup.
func (p *PopupTimers) PauseAll() {
	for _, t := range p.timers {
		p.pause(t)
	}
}

// CancelAll drops every countdown.
func (p *PopupTimers) CancelAll() {
	for id := range p.timers {
		p.CancelTimer(id)
	}
}

func (p *PopupTimers) start(id string, t *popupTimer) {
	if t.running() {
		return
	}
	p.seq++
	t.seq = p.seq
	t.startedAt = p.clock.Now()
	seq := t.seq
	t.timer = p.clock.AfterFunc(max(t.timeout-t.passed, 0), func() {
		p.timerFinished(id, seq)
	})
}

func (p *PopupTimers) pause(t *popupTimer) {
	if !t.running() {
		return
	}
	t.timer.Stop()
	t.timer = nil
	t.passed += p.clock.Now().Sub(t.startedAt)
}

// timerFinished ignores callbacks from timers that were paused, reset or
// cancelled after they were scheduled.
func (p *PopupTimers) timerFinished(id string, seq uint64) {
	t, ok := p.timers[id]
	if !ok || !t.running() || t.seq != seq {
		return
	}
	p.CancelTimer(id)
	p.logger.Debug("popup timed out", "id", id)
	p.source.MarkSinglePopupAsShown(id, false)
}

// OnNotificationDisplayed starts the countdown once a popup is on screen.
func (p *PopupTimers) OnNotificationDisplayed(id string, _ DisplaySource) {
	p.OnNotificationUpdated(id)
}

// OnNotificationUpdated keeps the countdowns in step with the popup set.
func (p *PopupTimers) OnNotificationUpdated(id string) {
	popups := p.source.PopupNotifications()
	if len(popups) == 0 {
		p.CancelAll()
		return
	}

	var n *model.Notification
	for _, popup := range popups {
		if popup.ID() == id {
			n = popup
			break
		}
	}
	if n == nil || n.NeverTimeout {
		p.CancelTimer(id)
		return
	}
	if !p.Has(id) {
		p.StartTimer(id, p.timeouts.For(n))
	}
}

// OnQuietModeChanged drops every countdown when quiet mode retires the
// popups.
func (p *PopupTimers) OnQuietModeChanged(quiet bool) {
	if quiet {
		p.CancelAll()
	}
}

// OnNotificationRemoved drops the countdown of a removed notification.
func (p *PopupTimers) OnNotificationRemoved(id string, _ bool) {
	p.CancelTimer(id)
}
