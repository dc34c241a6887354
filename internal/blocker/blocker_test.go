package blocker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/model"
)

type recordingObserver struct {
	calls []Blocker
}

func (r *recordingObserver) OnBlockingStateChanged(b Blocker) {
	r.calls = append(r.calls, b)
}

// toggle blocks everything while on.
type toggle struct {
	Base
	hide, mute bool
}

func (t *toggle) ShouldShowNotification(*model.Notification) bool { return !t.hide }
func (t *toggle) ShouldShowNotificationAsPopup(*model.Notification) bool { return !t.mute }

func newNotification(t *testing.T, notifier model.NotifierID, priority model.Priority) *model.Notification {
	t.Helper()
	n, err := model.New(model.TypeSimple, "id", "title", "", notifier)
	require.NoError(t, err)
	n.Priority = priority
	return n
}

func TestBlockers_ANDSemantics(t *testing.T) {
	n := newNotification(t, model.AppNotifier("app"), model.PriorityDefault)
	a, b := &toggle{}, &toggle{}
	bs := Blockers{a, b}

	assert.True(t, bs.ShouldShow(n))
	assert.True(t, bs.ShouldShowAsPopup(n))

	a.mute = true
	assert.True(t, bs.ShouldShow(n))
	assert.False(t, bs.ShouldShowAsPopup(n))

	b.mute = true
	a.mute = false
	assert.False(t, bs.ShouldShowAsPopup(n), "one veto is enough")

	b.hide = true
	assert.False(t, bs.ShouldShow(n))

	assert.True(t, Blockers(nil).ShouldShow(n))
}

func TestBase_Observers(t *testing.T) {
	tg := &toggle{}
	obs := &recordingObserver{}

	tg.AddObserver(obs)
	tg.AddObserver(obs)
	tg.NotifyBlockingStateChanged(tg)
	require.Len(t, obs.calls, 1)
	assert.Same(t, tg, obs.calls[0])

	tg.RemoveObserver(obs)
	tg.NotifyBlockingStateChanged(tg)
	assert.Len(t, obs.calls, 1)
}

func TestScreenLock(t *testing.T) {
	obs := &recordingObserver{}
	s := NewScreenLock(nil, true, nil)
	s.AddObserver(obs)

	normal := newNotification(t, model.AppNotifier("app"), model.PriorityMax)
	system := newNotification(t, model.SystemNotifier("battery"), model.PrioritySystem)

	assert.True(t, s.ShouldShowNotificationAsPopup(normal))

	s.SetLocked(true)
	s.SetLocked(true)
	assert.Len(t, obs.calls, 1, "unchanged state does not notify")
	assert.False(t, s.ShouldShowNotificationAsPopup(normal))
	assert.True(t, s.ShouldShowNotificationAsPopup(system))
	assert.True(t, s.ShouldShowNotification(normal), "archive is unaffected")

	s.SetSystemBypass(false)
	assert.Len(t, obs.calls, 2)
	assert.False(t, s.ShouldShowNotificationAsPopup(system))

	s.SetLocked(false)
	assert.Len(t, obs.calls, 3)
	assert.True(t, s.ShouldShowNotificationAsPopup(system))
}

func TestScreenLock_CheckState(t *testing.T) {
	locked := false
	var queryErr error
	s := NewScreenLock(func() (bool, error) { return locked, queryErr }, false, nil)
	obs := &recordingObserver{}
	s.AddObserver(obs)

	s.CheckState()
	assert.Empty(t, obs.calls)

	locked = true
	s.CheckState()
	assert.True(t, s.Locked())
	assert.Len(t, obs.calls, 1)

	locked = false
	queryErr = errors.New("no screensaver")
	s.CheckState()
	assert.True(t, s.Locked(), "query errors keep the last known state")
}

func TestFilter(t *testing.T) {
	f, err := NewFilter([]string{"app:spam*"}, []string{"org.telegram.*", "https://chat.example.org/*"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		notifier  model.NotifierID
		wantShow  bool
		wantPopup bool
	}{
		{"unmatched", model.AppNotifier("firefox"), true, true},
		{"hidden by key", model.AppNotifier("spambot"), false, false},
		{"muted by bare id", model.AppNotifier("org.telegram.desktop"), true, false},
		{"muted web page", model.WebNotifier("https://chat.example.org/room"), true, false},
		{"system untouched", model.SystemNotifier("spam"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNotification(t, tt.notifier, model.PriorityDefault)
			assert.Equal(t, tt.wantShow, f.ShouldShowNotification(n))
			assert.Equal(t, tt.wantPopup, f.ShouldShowNotificationAsPopup(n))
		})
	}
}

func TestFilter_SetPatterns(t *testing.T) {
	f, err := NewFilter(nil, nil, nil)
	require.NoError(t, err)
	obs := &recordingObserver{}
	f.AddObserver(obs)

	require.NoError(t, f.SetPatterns(nil, nil))
	assert.Empty(t, obs.calls)

	require.NoError(t, f.SetPatterns([]string{"app:x"}, nil))
	assert.Len(t, obs.calls, 1)
	assert.False(t, f.ShouldShowNotification(newNotification(t, model.AppNotifier("x"), model.PriorityDefault)))

	assert.Error(t, f.SetPatterns([]string{"app:["}, nil))
	assert.Len(t, obs.calls, 1)

	_, err = NewFilter(nil, []string{"["}, nil)
	assert.Error(t, err)
}
