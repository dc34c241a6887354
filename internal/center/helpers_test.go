package center

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/model"
)

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// fakeClock fires callbacks synchronously from Advance.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	when    time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, firing due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.when.After(end) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.when
		next.stopped = true
		next.f()
	}
	c.now = end
}

// pending counts timers that have not fired or been stopped.
func (c *fakeClock) pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// recordingObserver logs every event as a short string.
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) OnNotificationAdded(id string) {
	r.events = append(r.events, "added:"+id)
}

func (r *recordingObserver) OnNotificationRemoved(id string, byUser bool) {
	r.events = append(r.events, fmt.Sprintf("removed:%s:%t", id, byUser))
}

func (r *recordingObserver) OnNotificationUpdated(id string) {
	r.events = append(r.events, "updated:"+id)
}

func (r *recordingObserver) OnNotificationClicked(id string) {
	r.events = append(r.events, "clicked:"+id)
}

func (r *recordingObserver) OnNotificationButtonClicked(id string, index int) {
	r.events = append(r.events, fmt.Sprintf("button:%s:%d", id, index))
}

func (r *recordingObserver) OnNotificationDisplayed(id string, source DisplaySource) {
	r.events = append(r.events, fmt.Sprintf("displayed:%s:%s", id, source))
}

func (r *recordingObserver) OnCenterVisibilityChanged(v Visibility) {
	r.events = append(r.events, "visibility:"+v.String())
}

func (r *recordingObserver) OnQuietModeChanged(quiet bool) {
	r.events = append(r.events, fmt.Sprintf("quiet:%t", quiet))
}

func (r *recordingObserver) OnLockedStateChanged(locked bool) {
	r.events = append(r.events, fmt.Sprintf("locked:%t", locked))
}

func (r *recordingObserver) OnBlockingStateChanged(blocker.Blocker) {
	r.events = append(r.events, "blocking")
}

func (r *recordingObserver) reset() { r.events = nil }

// count returns how many events start with prefix.
func (r *recordingObserver) count(prefix string) int {
	n := 0
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// toggleBlocker blocks popups, and optionally visibility, while enabled.
type toggleBlocker struct {
	blocker.Base
	blockPopups bool
	hide        bool
	checks      int
}

func (b *toggleBlocker) CheckState() { b.checks++ }

func (b *toggleBlocker) ShouldShowNotification(*model.Notification) bool { return !b.hide }

func (b *toggleBlocker) ShouldShowNotificationAsPopup(*model.Notification) bool {
	return !b.blockPopups && !b.hide
}

func (b *toggleBlocker) set(blockPopups, hide bool) {
	b.blockPopups = blockPopups
	b.hide = hide
	b.NotifyBlockingStateChanged(b)
}

// fakeSettings records calls and reports enable changes synchronously.
type fakeSettings struct {
	observers []SettingsObserver
	disabled  []model.NotifierID
	advanced  bool
	requested []string
}

func (s *fakeSettings) NotifierGroups() []model.NotifierGroup {
	return []model.NotifierGroup{{Name: "default"}}
}

func (s *fakeSettings) ActiveNotifierGroup() model.NotifierGroup {
	return model.NotifierGroup{Name: "default"}
}

func (s *fakeSettings) SwitchToNotifierGroup(int) {}

func (s *fakeSettings) Notifiers() []model.Notifier { return nil }

func (s *fakeSettings) SetNotifierEnabled(notifier model.Notifier, enabled bool) {
	if !enabled {
		s.disabled = append(s.disabled, notifier.ID)
	}
	for _, o := range slices.Clone(s.observers) {
		o.NotifierEnabledChanged(notifier.ID, enabled)
	}
}

func (s *fakeSettings) NotifierHasAdvancedSettings(model.NotifierID) bool { return s.advanced }

func (s *fakeSettings) OnNotifierAdvancedSettingsRequested(_ model.NotifierID, notificationID string) {
	s.requested = append(s.requested, notificationID)
}

func (s *fakeSettings) AddObserver(o SettingsObserver) { s.observers = append(s.observers, o) }

func (s *fakeSettings) RemoveObserver(o SettingsObserver) {
	s.observers = slices.DeleteFunc(s.observers, func(x SettingsObserver) bool { return x == o })
}

// recordingDelegate logs delegate calls into a shared slice, so ordering
// against observer events can be checked.
type recordingDelegate struct {
	log        *[]string
	clickable  bool
	closeCalls []bool
}

func (d *recordingDelegate) Display() { *d.log = append(*d.log, "delegate:display") }
func (d *recordingDelegate) Close(byUser bool) { d.closeCalls = append(d.closeCalls, byUser) }
func (d *recordingDelegate) Click() { *d.log = append(*d.log, "delegate:click") }
func (d *recordingDelegate) ButtonClick(index int) { *d.log = append(*d.log, fmt.Sprintf("delegate:button:%d", index)) }
func (d *recordingDelegate) HasClickedListener() bool { return d.clickable }

type centerFixture struct {
	clock    *fakeClock
	center   *MessageCenter
	observer *recordingObserver
	seq      int
}

func newCenterFixture(deferChanges bool) *centerFixture {
	clock := newFakeClock()
	m := New(Options{Clock: clock, DeferChanges: deferChanges})
	obs := &recordingObserver{}
	m.AddObserver(obs)
	return &centerFixture{clock: clock, center: m, observer: obs}
}

// make builds a notification whose timestamp grows with every call.
func (f *centerFixture) make(typ model.Type, id string) *model.Notification {
	f.seq++
	n := model.MustNew(typ, id, "title "+id, "message "+id, model.AppNotifier("app"))
	n.Timestamp = baseTime.Add(time.Duration(f.seq) * time.Second)
	return n
}

func (f *centerFixture) add(id string) *model.Notification {
	n := f.make(model.TypeSimple, id)
	f.center.AddNotification(n)
	return n
}

func visibleIDs(m *MessageCenter) []string {
	var out []string
	for _, n := range m.VisibleNotifications() {
		out = append(out, n.ID())
	}
	slices.Sort(out)
	return out
}

func idsOf(notifications []*model.Notification) []string {
	out := make([]string, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, n.ID())
	}
	return out
}
