package center

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules the popup and quiet mode timers. Callbacks must run on
// the goroutine that owns the MessageCenter; hosts with an event loop
// supply a Clock that posts to it.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// systemClock fires callbacks on runtime timer goroutines. It is only safe
// when the host serializes access to the MessageCenter itself.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
