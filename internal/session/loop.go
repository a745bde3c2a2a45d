package session

import (
	"context"
	"errors"
	"sync"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// ErrLoopClosed is returned by Do after the loop stopped.
var ErrLoopClosed = errors.New("session: loop closed")

// Loop runs closures one at a time on a single goroutine. A Controller is
// driven only from inside its Loop.
type Loop struct {
	jobs  chan func()
	done  chan struct{}
	once  sync.Once
	crash *logging.CrashHandler
}

// NewLoop returns a loop. Panics of posted closures are recorded by crash
// when it is non-nil and otherwise propagate.
func NewLoop(crash *logging.CrashHandler) *Loop {
	return &Loop{
		jobs:  make(chan func(), 64),
		done:  make(chan struct{}),
		crash: crash,
	}
}

// Run executes closures until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case fn := <-l.jobs:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	if l.crash == nil {
		fn()
		return
	}
	l.crash.Recover(map[string]any{"op": "session"}, fn)
}

// Post queues fn. It does not wait for fn to run and drops fn once the loop
// is closed. Post must not be called from the loop goroutine when the queue
// may be full.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
	case l.jobs <- fn:
	}
}

// Do runs fn on the loop and waits for it to finish. Calling Do from the
// loop goroutine deadlocks.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	job := func() {
		defer close(finished)
		fn()
	}
	select {
	case <-l.done:
		return ErrLoopClosed
	case l.jobs <- job:
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Close stops the loop. Queued closures that have not started are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
