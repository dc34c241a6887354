package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/msgcenter/internal/center"
)

// ErrLoopStopped is returned for work submitted after the loop exited.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs posted functions one at a time on a single goroutine. It owns
// the MessageCenter: D-Bus handlers, watchers and timers all reach the
// center through Post or Call.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
}

var _ center.Clock = (*Loop)(nil)

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post schedules fn and returns immediately. It never blocks, so it is
// safe to call from the loop itself. Returns false once the loop stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

const (
	callPending int32 = iota
	callRunning
	callAbandoned
)

// Call runs fn on the loop and waits for it to finish. It must not be
// called from the loop goroutine. When Call returns an error fn has not
// run and never will; once fn has started Call waits for it.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	if !l.Post(func() {
		if !state.CompareAndSwap(callPending, callRunning) {
			return
		}
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(callPending, callAbandoned) {
			return ctx.Err()
		}
	case <-l.done:
		if state.CompareAndSwap(callPending, callAbandoned) {
			return ErrLoopStopped
		}
	}
	<-finished
	return nil
}

// Run processes posted work until ctx is cancelled. Work still queued at
// that point is dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return ctx.Err()
		case <-l.wake:
			l.drain(ctx)
		}
	}
}

func (l *Loop) drain(ctx context.Context) {
	for ctx.Err() == nil {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Now implements center.Clock.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc implements center.Clock. f runs on the loop, not on the timer
// goroutine.
func (l *Loop) AfterFunc(d time.Duration, f func()) center.Timer {
	return time.AfterFunc(d, func() {
		if !l.Post(f) {
			l.logger.Debug("timer fired after loop stopped")
		}
	})
}
