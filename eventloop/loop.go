// Package eventloop is a single-threaded cooperative task loop. All state
// owned by a bridge is mutated from tasks running on its loop; other
// goroutines hand work over with Post or Invoke.
package eventloop

import (
	"context"
	"errors"
	"sync"
)

var ErrStopped = errors.New("event loop stopped")

type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	idle    []*IdleHandle
	wake    chan struct{}
	stopped chan struct{}
	stop    sync.Once
}

// IdleHandle is a callback scheduled for the next idle turn.
type IdleHandle struct {
	fn       func()
	canceled bool
}

func New() *Loop {
	return &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Post queues fn to run on the loop after every task queued before it.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Idle schedules fn for the next turn in which no task is queued.
func (l *Loop) Idle(fn func()) *IdleHandle {
	handle := &IdleHandle{fn: fn}
	l.mu.Lock()
	l.idle = append(l.idle, handle)
	l.mu.Unlock()
	l.signal()
	return handle
}

// Cancel must be called from the loop.
func (h *IdleHandle) Cancel() {
	if h != nil {
		h.canceled = true
	}
}

// Invoke runs fn on the loop and waits for it to return. It must not be
// called from the loop itself.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// step runs one queued task, or the pending idle callbacks when the task
// queue is empty. It reports whether anything ran.
func (l *Loop) step() bool {
	l.mu.Lock()
	if len(l.tasks) > 0 {
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()
		task()
		return true
	}
	idle := l.idle
	l.idle = nil
	l.mu.Unlock()

	ran := false
	for _, handle := range idle {
		if handle.canceled {
			continue
		}
		handle.canceled = true
		handle.fn()
		ran = true
	}
	return ran || len(idle) > 0
}

// RunPending drains queued tasks and idle callbacks on the calling
// goroutine, which becomes the loop for the duration of the call.
func (l *Loop) RunPending() {
	for l.step() {
	}
}

// Run turns the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop.Do(func() { close(l.stopped) })
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Stopped is closed once Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
