package daemon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/center"
	"github.com/jmylchreest/msgcenter/internal/model"
)

func TestTrackScreenLock(t *testing.T) {
	locked := false
	var queryErr error
	lock := blocker.NewScreenLock(func() (bool, error) { return locked, queryErr }, false, nil)
	mc := center.New(center.Options{Clock: newFakeClock()})
	mc.AddNotificationBlocker(lock)

	TrackScreenLock(mc, lock)
	assert.False(t, mc.IsLocked())

	// A lock found by polling reaches the center too.
	locked = true
	lock.CheckState()
	require.True(t, lock.Locked())
	assert.True(t, mc.IsLocked())

	mc.AddNotification(model.MustNew(model.TypeSimple, "a", "hello", "", model.AppNotifier("chat")))
	mc.SetVisibility(center.VisibilityMessageCenter)
	assert.Equal(t, 1, mc.UnreadNotificationCount(), "opening while locked keeps notifications unread")
	mc.SetVisibility(center.VisibilityTransient)

	queryErr = errors.New("no screensaver")
	locked = false
	lock.CheckState()
	assert.True(t, mc.IsLocked(), "failed polls keep the last state")

	queryErr = nil
	lock.CheckState()
	assert.False(t, mc.IsLocked())

	lock.SetLocked(true)
	assert.True(t, mc.IsLocked())
}

func TestTrackScreenLock_AppliesCurrentState(t *testing.T) {
	lock := blocker.NewScreenLock(nil, false, nil)
	lock.SetLocked(true)
	mc := center.New(center.Options{Clock: newFakeClock()})

	TrackScreenLock(mc, lock)
	assert.True(t, mc.IsLocked())
}
