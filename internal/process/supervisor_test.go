package process

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/eventloop"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
)

type harness struct {
	t      *testing.T
	loop   *eventloop.Loop
	sup    *Supervisor
	events chan Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	h := &harness{
		t:      t,
		loop:   loop,
		events: make(chan Event, 1024),
	}
	h.sup = NewSupervisor(loop, nil)
	h.sup.Handle(func(ev Event) { h.events <- ev })

	t.Cleanup(func() {
		_ = loop.Call(func() { h.sup.Kill() })
		cancel()
	})
	return h
}

func (h *harness) call(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.loop.Call(fn))
}

// next returns the first event matching match, failing after a timeout
func (h *harness) next(match func(Event) bool) Event {
	h.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if match(ev) {
				return ev
			}
		case <-timeout:
			h.t.Fatal("timed out waiting for process event")
			return nil
		}
	}
}

func isFinished(ev Event) bool {
	_, ok := ev.(Finished)
	return ok
}

func isStarted(ev Event) bool {
	_, ok := ev.(Started)
	return ok
}

func TestStartEmitsLifecycleInOrder(t *testing.T) {
	h := newHarness(t)

	var err error
	h.call(func() { err = h.sup.Start("/bin/sh", []string{"-c", "exit 3"}) })
	require.NoError(t, err)

	var seen []Event
	for {
		ev := h.next(func(Event) bool { return true })
		if _, ok := ev.(Output); ok {
			continue
		}
		if _, ok := ev.(StreamClosed); ok {
			continue
		}
		seen = append(seen, ev)
		if isFinished(ev) {
			break
		}
	}

	require.GreaterOrEqual(t, len(seen), 5)
	assert.Equal(t, PhaseChanged{Phase: PhaseStarting}, seen[0])
	assert.Equal(t, PhaseChanged{Phase: PhaseRunning}, seen[1])
	assert.IsType(t, Started{}, seen[2])
	assert.Equal(t, PhaseChanged{Phase: PhaseNotRunning}, seen[len(seen)-2])

	finished := seen[len(seen)-1].(Finished)
	assert.Equal(t, 3, finished.ExitCode)
	assert.False(t, finished.Signaled)

	h.call(func() {
		assert.Equal(t, PhaseNotRunning, h.sup.Phase())
		assert.Equal(t, 3, h.sup.ExitCode())
		assert.False(t, h.sup.Alive())
	})
}

func TestStartFailureReportsError(t *testing.T) {
	h := newHarness(t)

	var err error
	h.call(func() { err = h.sup.Start("/nonexistent/appswitch-test-binary", nil) })
	require.NoError(t, err, "exec failures are reported asynchronously")

	ev := h.next(func(ev Event) bool {
		_, ok := ev.(ErrorOccurred)
		return ok
	}).(ErrorOccurred)

	assert.Equal(t, ErrorFailedToStart, ev.Kind)
	var startErr *StartError
	require.True(t, errors.As(ev.Err, &startErr))
	assert.ErrorIs(t, ev.Err, os.ErrNotExist)

	h.next(func(ev Event) bool { return ev == PhaseChanged{Phase: PhaseNotRunning} })
	h.call(func() {
		assert.Equal(t, PhaseNotRunning, h.sup.Phase())
		kind, lastErr := h.sup.LastError()
		assert.Equal(t, ErrorFailedToStart, kind)
		assert.Error(t, lastErr)
		assert.ErrorIs(t, h.sup.DeliverSignal(syscall.SIGUSR1), ErrNotRunning)
	})
}

func TestStartWhileRunning(t *testing.T) {
	h := newHarness(t)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"})) })
	h.next(isStarted)

	h.call(func() {
		assert.ErrorIs(t, h.sup.Start("/bin/sleep", []string{"30"}), ErrAlreadyRunning)
		h.sup.Kill()
	})

	finished := h.next(isFinished).(Finished)
	assert.True(t, finished.Signaled)
	assert.Equal(t, int(syscall.SIGKILL), finished.ExitCode)
}

func TestCrashReportsErrorKind(t *testing.T) {
	h := newHarness(t)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"})) })
	h.next(isStarted)
	h.call(func() { h.sup.Terminate() })

	ev := h.next(func(ev Event) bool {
		_, ok := ev.(ErrorOccurred)
		return ok
	}).(ErrorOccurred)
	assert.Equal(t, ErrorCrashed, ev.Kind)

	finished := h.next(isFinished).(Finished)
	assert.Equal(t, int(syscall.SIGTERM), finished.ExitCode)
}

func TestSuspendAndContinue(t *testing.T) {
	h := newHarness(t)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"})) })
	h.next(isStarted)

	h.call(func() {
		require.NoError(t, h.sup.Suspend())
		assert.True(t, h.sup.Suspended())
		assert.True(t, h.sup.Stopped())
	})

	assert.Eventually(t, func() bool {
		var pid int
		h.call(func() { pid = h.sup.PID() })
		return SystemProbe{}.Stopped(pid)
	}, 2*time.Second, 20*time.Millisecond)

	h.call(func() {
		require.NoError(t, h.sup.Continue())
		assert.False(t, h.sup.Suspended())
	})

	assert.Eventually(t, func() bool {
		stopped := true
		h.call(func() { stopped = h.sup.Stopped() })
		return !stopped
	}, 2*time.Second, 20*time.Millisecond)
}

func TestTerminateSuspendedProcess(t *testing.T) {
	h := newHarness(t)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"})) })
	h.next(isStarted)

	h.call(func() {
		require.NoError(t, h.sup.Suspend())
		h.sup.Terminate()
	})

	finished := h.next(isFinished).(Finished)
	assert.Equal(t, int(syscall.SIGTERM), finished.ExitCode)
	h.call(func() { assert.False(t, h.sup.Suspended()) })
}

func TestOutputEventsCarryPID(t *testing.T) {
	h := newHarness(t)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sh", []string{"-c", "echo out; echo err >&2"})) })
	started := h.next(isStarted).(Started)

	var stdout, stderr []byte
	closed := 0
	for closed < 2 {
		switch ev := h.next(func(Event) bool { return true }).(type) {
		case Output:
			assert.Equal(t, started.PID, ev.PID)
			if ev.Stream == Stdout {
				stdout = append(stdout, ev.Data...)
			} else {
				stderr = append(stderr, ev.Data...)
			}
		case StreamClosed:
			closed++
		}
	}

	assert.Equal(t, "out\n", string(stdout))
	assert.Equal(t, "err\n", string(stderr))
}

func TestWaitUntilFinished(t *testing.T) {
	h := newHarness(t)

	// never started: returns immediately
	h.call(func() { h.sup.WaitUntilFinished() })

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sh", []string{"-c", "sleep 0.1"})) })

	done := make(chan struct{})
	go func() {
		h.sup.WaitUntilFinished()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitUntilFinished did not return")
	}
}

type fakeProbe struct {
	stopped bool
}

func (p *fakeProbe) Stopped(int) bool { return p.stopped }

func (p *fakeProbe) Usage(int) (*types.Usage, error) {
	return &types.Usage{RSSBytes: 1024, CPUPercent: 1.5}, nil
}

func TestStoppedUsesProbeForExternalStops(t *testing.T) {
	h := newHarness(t)
	probe := &fakeProbe{}
	h.sup.WithProbe(probe)

	h.call(func() {
		assert.False(t, h.sup.Stopped(), "not running yet")
		require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"}))
	})
	h.next(isStarted)

	h.call(func() {
		assert.False(t, h.sup.Stopped())
		probe.stopped = true
		assert.True(t, h.sup.Stopped())
		assert.False(t, h.sup.Suspended(), "external stops do not touch bookkeeping")

		usage, err := h.sup.Usage()
		require.NoError(t, err)
		assert.Equal(t, uint64(1024), usage.RSSBytes)
	})
}

// manualPoster queues posted work until the test runs it
type manualPoster struct {
	queue chan func()
}

func newManualPoster() *manualPoster {
	return &manualPoster{queue: make(chan func(), 1024)}
}

func (p *manualPoster) Post(fn func()) { p.queue <- fn }

func (p *manualPoster) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-p.queue:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for posted work")
	}
}

func TestExitDeliveredWithPhaseChange(t *testing.T) {
	poster := newManualPoster()
	sup := NewSupervisor(poster, nil)

	finished := false
	sup.Handle(func(ev Event) {
		if _, ok := ev.(Finished); ok {
			finished = true
		}
	})
	require.NoError(t, sup.Start("/bin/sh", []string{"-c", "exit 4"}))

	for !finished {
		poster.runNext(t)
		if sup.Phase() == PhaseNotRunning {
			assert.True(t, finished, "NotRunning must not be visible before Finished is handled")
			break
		}
	}
	assert.Equal(t, 4, sup.ExitCode())
}

func TestSignalAfterReapIsRefused(t *testing.T) {
	poster := newManualPoster()
	sup := NewSupervisor(poster, nil)
	require.NoError(t, sup.Start("/bin/sh", []string{"-c", "exit 0"}))

	// Nothing is drained, so bookkeeping still says running
	sup.WaitUntilFinished()
	require.True(t, sup.Alive())

	assert.ErrorIs(t, sup.DeliverSignal(syscall.SIGKILL), ErrNotRunning)
	assert.ErrorIs(t, sup.Suspend(), ErrNotRunning)
	sup.Kill()
}

func TestStoppedFollowsExternalContinue(t *testing.T) {
	h := newHarness(t)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"})) })
	started := h.next(isStarted).(Started)

	var err error
	stopped := false
	h.call(func() {
		err = h.sup.Suspend()
		stopped = h.sup.Stopped()
	})
	require.NoError(t, err)
	require.True(t, stopped)

	require.NoError(t, syscall.Kill(started.PID, syscall.SIGCONT))

	assert.Eventually(t, func() bool {
		stopped := true
		h.call(func() { stopped = h.sup.Stopped() })
		return !stopped
	}, 2*time.Second, 20*time.Millisecond)
	h.call(func() { assert.False(t, h.sup.Suspended()) })
}

func TestStoppedTrustsBookkeepingUntilStopSeen(t *testing.T) {
	h := newHarness(t)
	probe := &fakeProbe{}
	h.sup.WithProbe(probe)

	h.call(func() { require.NoError(t, h.sup.Start("/bin/sleep", []string{"30"})) })
	h.next(isStarted)

	h.call(func() {
		// The fake never reports the stop, so only bookkeeping knows
		require.NoError(t, h.sup.Suspend())
		assert.True(t, h.sup.Stopped())

		probe.stopped = true
		assert.True(t, h.sup.Stopped())

		// Once seen, a running report means someone continued it
		probe.stopped = false
		assert.False(t, h.sup.Stopped())
		assert.False(t, h.sup.Suspended())
	})
}
