package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return l
}

func TestPostRunsInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	// Call is queued behind every post above
	require.NoError(t, l.Call(func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestPostFromHandler(t *testing.T) {
	l := startLoop(t)

	done := make(chan string, 2)
	l.Post(func() {
		l.Post(func() { done <- "second" })
		done <- "first"
	})

	assert.Equal(t, "first", <-done)
	assert.Equal(t, "second", <-done)
}

func TestCallFromManyGoroutines(t *testing.T) {
	l := startLoop(t)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Call(func() { counter++ })
		}()
	}
	wg.Wait()

	var got int
	require.NoError(t, l.Call(func() { got = counter }))
	assert.Equal(t, 50, got)
}

func TestCallAfterStop(t *testing.T) {
	l := startLoop(t)
	l.Stop()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed after Stop")
	}

	err := l.Call(func() {})
	assert.ErrorIs(t, err, ErrStopped)

	// posts after stop are dropped silently
	l.Post(func() { t.Error("should not run") })
	l.Stop()
}

func TestRunStopsOnContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run should return after context cancellation")
	}
}

func TestCallOnLoopStoppedBeforeRun(t *testing.T) {
	l := New()

	errc := make(chan error, 1)
	go func() {
		errc <- l.Call(func() { t.Error("should not run") })
	}()

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.queue) == 1
	}, time.Second, time.Millisecond)

	l.Stop()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("Call blocked on a loop that never ran")
	}

	// a late Run must not execute the discarded call
	l.Run(context.Background())
}
