package daemon

import (
	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/center"
)

// LockTracker mirrors a ScreenLock blocker into the message center's locked
// state, whether the change came from a signal or from CheckState polling.
type LockTracker struct {
	mc   *center.MessageCenter
	lock *blocker.ScreenLock
}

// TrackScreenLock registers a LockTracker on lock and applies the current
// state. It must run on the loop.
func TrackScreenLock(mc *center.MessageCenter, lock *blocker.ScreenLock) *LockTracker {
	t := &LockTracker{mc: mc, lock: lock}
	lock.AddObserver(t)
	mc.SetLockedState(lock.Locked())
	return t
}

// OnBlockingStateChanged implements blocker.Observer.
func (t *LockTracker) OnBlockingStateChanged(blocker.Blocker) {
	t.mc.SetLockedState(t.lock.Locked())
}
