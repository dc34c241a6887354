package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/model"
)

type presenterFixture struct {
	clock     *fakeClock
	queue     *postQueue
	mc        *center.MessageCenter
	presenter *Presenter
}

func newPresenterFixture(t *testing.T, maxVisible int) *presenterFixture {
	t.Helper()
	f := &presenterFixture{clock: newFakeClock(), queue: &postQueue{}}
	f.mc = center.New(center.Options{Clock: f.clock, MaxVisiblePopups: maxVisible})
	f.presenter = NewPresenter(f.mc, f.queue.post, f.clock, nil)
	f.mc.AddObserver(f.presenter)
	return f
}

func (f *presenterFixture) add(t *testing.T, id string, priority model.Priority) {
	t.Helper()
	n, err := model.New(model.TypeSimple, id, "title "+id, "", model.AppNotifier("app"))
	require.NoError(t, err)
	n.Priority = priority
	n.Timestamp = f.clock.Now()
	f.clock.now = f.clock.now.Add(time.Millisecond)
	f.mc.AddNotification(n)
}

func TestDisplayStatusString(t *testing.T) {
	tests := []struct {
		status   DisplayStatus
		expected string
	}{
		{DisplayStatusPending, "pending"},
		{DisplayStatusActive, "active"},
		{DisplayStatusExpired, "expired"},
		{DisplayStatusDismissed, "dismissed"},
		{DisplayStatusClosed, "closed"},
		{DisplayStatus(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestPresenter_ShowsAndExpires(t *testing.T) {
	f := newPresenterFixture(t, 2)

	f.add(t, "a", model.PriorityDefault)
	state, ok := f.presenter.State("a")
	require.True(t, ok)
	assert.Equal(t, DisplayStatusPending, state.Status, "refresh is deferred")

	f.queue.drain()
	state, _ = f.presenter.State("a")
	assert.Equal(t, DisplayStatusActive, state.Status)
	assert.Equal(t, []string{"a"}, f.presenter.ActiveNotifications())
	assert.True(t, f.mc.PopupTimers().Has("a"), "displaying starts the popup timer")

	f.clock.Advance(8 * time.Second)
	f.queue.drain()

	state, _ = f.presenter.State("a")
	assert.Equal(t, DisplayStatusExpired, state.Status)
	assert.Equal(t, f.clock.Now(), state.ClosedAt)
	assert.Zero(t, f.presenter.ActiveCount())
	requireVisible(t, f.mc, "a")
}

func TestPresenter_CoalescesRefreshes(t *testing.T) {
	f := newPresenterFixture(t, 2)

	f.add(t, "a", model.PriorityDefault)
	f.add(t, "b", model.PriorityDefault)
	f.add(t, "c", model.PriorityDefault)
	assert.Len(t, f.queue.fns, 1)

	f.queue.drain()
	assert.Equal(t, []string{"a", "b"}, f.presenter.ActiveNotifications(), "older popups keep their slots")
	assert.Equal(t, 3, f.presenter.Count())

	state, _ := f.presenter.State("c")
	assert.Equal(t, DisplayStatusPending, state.Status)
}

func TestPresenter_LowPriorityNeverShown(t *testing.T) {
	f := newPresenterFixture(t, 2)

	f.add(t, "quiet", model.PriorityLow)
	f.queue.drain()

	assert.Empty(t, f.presenter.ActiveNotifications())
	assert.False(t, f.mc.PopupTimers().Has("quiet"))
}

func TestPresenter_RemovedDropsState(t *testing.T) {
	f := newPresenterFixture(t, 2)

	f.add(t, "a", model.PriorityDefault)
	f.queue.drain()
	f.mc.RemoveNotification("a", true)
	f.queue.drain()

	_, ok := f.presenter.State("a")
	assert.False(t, ok)
	assert.Zero(t, f.presenter.Count())
}

func TestPresenter_OpeningCenterExpiresPopups(t *testing.T) {
	f := newPresenterFixture(t, 2)

	f.add(t, "a", model.PriorityDefault)
	f.queue.drain()
	require.Equal(t, []string{"a"}, f.presenter.ActiveNotifications())

	f.mc.SetVisibility(center.VisibilityMessageCenter)
	f.queue.drain()
	assert.Empty(t, f.presenter.ActiveNotifications())

	f.mc.SetVisibility(center.VisibilityTransient)
	f.queue.drain()
	assert.Empty(t, f.presenter.ActiveNotifications(), "popups seen in the archive stay retired")
}

func TestPresenter_QuietMode(t *testing.T) {
	f := newPresenterFixture(t, 2)
	f.mc.SetQuietMode(true)

	f.add(t, "a", model.PriorityDefault)
	f.queue.drain()
	assert.Empty(t, f.presenter.ActiveNotifications())

	f.add(t, "sys", model.PrioritySystem)
	f.queue.drain()
	assert.Empty(t, f.presenter.ActiveNotifications(), "quiet mode holds back every popup")
}

func TestPresenter_StoppedLoop(t *testing.T) {
	f := newPresenterFixture(t, 2)
	f.queue.closed = true

	f.add(t, "a", model.PriorityDefault)
	f.queue.closed = false
	f.add(t, "b", model.PriorityDefault)

	assert.Len(t, f.queue.fns, 1, "a failed post does not wedge scheduling")
}
