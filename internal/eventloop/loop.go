package eventloop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Call once the loop has stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop runs posted functions sequentially in FIFO order.
type Loop struct {
	mu      sync.Mutex
	queue   []func() // Protected by mu
	stopped bool     // Protected by mu
	running bool     // Protected by mu; set once Run has started

	wake chan struct{}
	done chan struct{}
}

// New creates an idle loop. Call Run to start processing.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn for execution on the loop. It never blocks and is safe to
// call from any goroutine, including loop handlers. Posts after Stop are
// dropped.
func (l *Loop) Post(fn func()) {
	l.enqueue(fn)
}

// Call runs fn on the loop and waits for it to finish.
// It must not be called from a loop handler.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	if !l.enqueue(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
	}

	l.mu.Lock()
	ran := l.running
	l.mu.Unlock()
	if !ran {
		// Stop before Run discarded the queue
		return ErrStopped
	}
	// Run drains the queue after Stop, so a queued call still completes
	<-finished
	return nil
}

func (l *Loop) enqueue(fn func()) bool {
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

// Run processes queued functions until ctx is cancelled or Stop is called.
// Functions queued before the stop are still executed. Run returns at once
// on a loop that was stopped before it started.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-l.done:
		}
	}()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		stopped := l.stopped
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if len(batch) > 0 {
			continue
		}
		if stopped {
			return
		}

		select {
		case <-l.wake:
		case <-l.done:
		}
	}
}

// Stop stops the loop. Safe to call multiple times. Work queued on a loop
// that never ran is discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	if !l.running {
		l.queue = nil
	}
	close(l.done)
}

// Done is closed once Stop has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
