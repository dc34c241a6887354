package daemon

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/dbus"
)

type fakeTimer struct {
	when    time.Time
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) center.Timer {
	t := &fakeTimer{when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.stopped = true
		c.now = next.when
		next.f()
	}
	c.now = target
}

// postQueue stands in for Loop.Post in tests that drive the loop by hand.
type postQueue struct {
	fns    []func()
	closed bool
}

func (q *postQueue) post(fn func()) bool {
	if q.closed {
		return false
	}
	q.fns = append(q.fns, fn)
	return true
}

func (q *postQueue) drain() {
	for len(q.fns) > 0 {
		fn := q.fns[0]
		q.fns = q.fns[1:]
		fn()
	}
}

type recordingSignaler struct {
	log []string
}

func (r *recordingSignaler) InvokeAction(id uint32, key string) error {
	r.log = append(r.log, fmt.Sprintf("action:%d:%s", id, key))
	return nil
}

func (r *recordingSignaler) CloseWithReason(id uint32, reason dbus.CloseReason) error {
	r.log = append(r.log, fmt.Sprintf("closed:%d:%s", id, reason))
	return nil
}

func visibleIDs(mc *center.MessageCenter) []string {
	var ids []string
	for _, n := range mc.VisibleNotifications() {
		ids = append(ids, n.ID())
	}
	slices.Sort(ids)
	return ids
}

func requireVisible(t *testing.T, mc *center.MessageCenter, id string) {
	t.Helper()
	require.NotNil(t, mc.FindVisibleNotificationByID(id), "notification %s should be visible", id)
}
