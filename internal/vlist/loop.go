package vlist

import (
	"context"
	"sync"
)

// Loop is a minimal single goroutine event loop for hosts without one.
// Dispatch is safe from any goroutine, tasks run on the goroutine calling Run.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns a loop buffering up to size pending tasks.
func NewLoop(size int) *Loop {
	return &Loop{
		tasks: make(chan func(), max(1, size)),
		done:  make(chan struct{}),
	}
}

// Dispatch queues f. It is a no-op once the loop is stopped.
func (l *Loop) Dispatch(f func()) {
	select {
	case <-l.done:
	case l.tasks <- f:
	}
}

// Stop terminates the loop. Pending tasks are discarded.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Run processes tasks until ctx is done or the loop is stopped.
func (l *Loop) Run(ctx context.Context) error {
	return l.RunUntil(ctx, nil)
}

// RunUntil processes tasks until cond holds. cond is checked before waiting
// and after every task.
func (l *Loop) RunUntil(ctx context.Context, cond func() bool) error {
	for {
		if cond != nil && cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.tasks:
			f()
		}
	}
}
