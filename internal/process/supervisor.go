package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
)

var (
	ErrAlreadyRunning = errors.New("process already running")
	ErrNotRunning     = errors.New("process not running")
)

// StartError wraps the OS error of a failed start
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Poster queues work on the owning event loop
type Poster interface {
	Post(fn func())
}

// Handler receives process events on the event loop
type Handler func(Event)

const (
	readChunk = 4096

	// Suspend waits this long for the OS to report the stop
	stopConfirmTimeout = 200 * time.Millisecond
	stopPollInterval   = 2 * time.Millisecond
)

// Supervisor owns one child process. Apart from WaitUntilFinished, all
// methods must be called on the event loop the Supervisor posts to.
type Supervisor struct {
	poster  Poster
	handler Handler
	logger  *zap.Logger
	probe   Probe

	cmd       *exec.Cmd
	pid       int
	runID     id.RunID
	phase     Phase
	exitCode  int
	errKind   ErrorKind
	lastErr   error
	suspended bool
	// stopSeen is set once the probe has reported our own SIGSTOP
	stopSeen bool
	done     chan struct{} // closed once the child is reaped
}

// NewSupervisor creates a supervisor in the not-started phase.
func NewSupervisor(poster Poster, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		poster: poster,
		logger: logger,
		probe:  SystemProbe{},
		phase:  PhaseNotStarted,
	}
}

// Handle registers the single event handler
func (s *Supervisor) Handle(h Handler) {
	s.handler = h
}

// WithProbe replaces the OS probe
func (s *Supervisor) WithProbe(p Probe) *Supervisor {
	s.probe = p
	return s
}

// Start spawns command with args in a new process group. It only fails when
// a process is already running; exec failures are reported through an
// ErrorOccurred event followed by PhaseChanged(NotRunning).
func (s *Supervisor) Start(command string, args []string) error {
	if s.phase == PhaseStarting || s.phase == PhaseRunning {
		return ErrAlreadyRunning
	}

	s.phase = PhaseStarting
	s.cmd = nil
	s.errKind = ErrorNone
	s.lastErr = nil
	s.suspended = false
	s.stopSeen = false
	s.post(nil, PhaseChanged{Phase: PhaseStarting})

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		s.failStart(command, err)
		return nil
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		s.failStart(command, err)
		return nil
	}

	cmd := exec.Command(command, args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	// Own process group so suspend/continue reach helpers the app forks
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	err = cmd.Start()
	closeAll(stdoutW, stderrW)
	if err != nil {
		closeAll(stdoutR, stderrR)
		s.failStart(command, err)
		return nil
	}

	pid := cmd.Process.Pid
	done := make(chan struct{})
	s.cmd = cmd
	s.pid = pid
	s.runID = id.NewRunID()
	s.done = done

	s.logger.Debug("Process spawned",
		zap.String("command", command),
		zap.Int("pid", pid),
		zap.String("run", s.runID.String()),
	)

	s.post(func() { s.phase = PhaseRunning }, PhaseChanged{Phase: PhaseRunning}, Started{PID: pid})

	go s.read(pid, stdoutR, Stdout)
	go s.read(pid, stderrR, Stderr)
	go s.wait(cmd, pid, done)

	return nil
}

func (s *Supervisor) failStart(command string, err error) {
	startErr := &StartError{Command: command, Err: err}
	s.post(func() {
		s.errKind = ErrorFailedToStart
		s.lastErr = startErr
		s.phase = PhaseNotRunning
	}, ErrorOccurred{Kind: ErrorFailedToStart, Err: startErr}, PhaseChanged{Phase: PhaseNotRunning})
}

// read forwards stream bytes until EOF
func (s *Supervisor) read(pid int, r *os.File, stream Stream) {
	defer r.Close()

	buf := make([]byte, readChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.post(nil, Output{PID: pid, Stream: stream, Data: data})
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Debug("Output stream read failed",
					zap.Int("pid", pid),
					zap.Stringer("stream", stream),
					zap.Error(err),
				)
			}
			break
		}
	}
	s.post(nil, StreamClosed{PID: pid, Stream: stream})
}

// wait reaps the child and reports how it ended
func (s *Supervisor) wait(cmd *exec.Cmd, pid int, done chan struct{}) {
	err := cmd.Wait()
	code, signaled := exitStatus(cmd.ProcessState)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		s.logger.Warn("Waiting for process failed", zap.Int("pid", pid), zap.Error(err))
	}

	// Closed before posting so a loop blocked in WaitUntilFinished wakes up
	close(done)

	var crash error
	events := make([]Event, 0, 3)
	if signaled {
		crash = fmt.Errorf("process %d killed by signal %d", pid, code)
		events = append(events, ErrorOccurred{Kind: ErrorCrashed, Err: crash})
	}
	events = append(events,
		PhaseChanged{Phase: PhaseNotRunning},
		Finished{PID: pid, ExitCode: code, Signaled: signaled},
	)

	// One loop item: nothing may observe NotRunning before Finished is handled
	s.post(func() {
		if crash != nil {
			s.errKind = ErrorCrashed
			s.lastErr = crash
		}
		s.phase = PhaseNotRunning
		s.exitCode = code
		s.suspended = false
		s.stopSeen = false
	}, events...)
}

// post applies update then delivers events in order, all in one loop item
func (s *Supervisor) post(update func(), events ...Event) {
	s.poster.Post(func() {
		if update != nil {
			update()
		}
		if s.handler == nil {
			return
		}
		for _, ev := range events {
			s.handler(ev)
		}
	})
}

// Terminate asks the process group to exit (SIGTERM). Best-effort.
func (s *Supervisor) Terminate() {
	if err := s.DeliverSignal(unix.SIGTERM); err != nil {
		s.logger.Debug("Terminate skipped", zap.Error(err))
		return
	}
	// A stopped process cannot act on SIGTERM until continued
	if s.suspended {
		_ = s.Continue()
	}
}

// Kill forcibly ends the process group (SIGKILL). Best-effort.
func (s *Supervisor) Kill() {
	if err := s.DeliverSignal(unix.SIGKILL); err != nil {
		s.logger.Debug("Kill skipped", zap.Error(err))
	}
}

// DeliverSignal sends sig to the process group without touching the
// suspended bookkeeping.
func (s *Supervisor) DeliverSignal(sig syscall.Signal) error {
	// A reaped child's pid and group may already belong to someone else
	if !s.Alive() || s.reaped() {
		return ErrNotRunning
	}

	err := unix.Kill(-s.pid, sig)
	if errors.Is(err, unix.ESRCH) {
		// the child may have moved to another group
		err = unix.Kill(s.pid, sig)
	}
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			return ErrNotRunning
		}
		return fmt.Errorf("signal %d to %d: %w", sig, s.pid, err)
	}
	return nil
}

// Suspend stops the process group (SIGSTOP) and waits briefly for the OS
// to report the stop.
func (s *Supervisor) Suspend() error {
	if err := s.DeliverSignal(unix.SIGSTOP); err != nil {
		return err
	}
	s.suspended = true
	s.stopSeen = s.awaitStop()
	return nil
}

func (s *Supervisor) awaitStop() bool {
	if s.probe == nil {
		return false
	}
	deadline := time.Now().Add(stopConfirmTimeout)
	for {
		if s.probe.Stopped(s.pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(stopPollInterval)
	}
}

// Continue resumes a stopped process group (SIGCONT)
func (s *Supervisor) Continue() error {
	if err := s.DeliverSignal(unix.SIGCONT); err != nil {
		return err
	}
	s.suspended = false
	s.stopSeen = false
	return nil
}

// WaitUntilFinished blocks until the child has been reaped. It returns
// immediately if nothing was ever started. Teardown only: it blocks the
// calling goroutine, including the event loop.
func (s *Supervisor) WaitUntilFinished() {
	if s.done == nil {
		return
	}
	<-s.done
}

// Alive reports whether a child is starting or running
func (s *Supervisor) Alive() bool {
	return s.cmd != nil && (s.phase == PhaseStarting || s.phase == PhaseRunning)
}

func (s *Supervisor) reaped() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Stopped reports whether the child is currently stopped, whoever stopped
// it. The OS is authoritative; the suspend bookkeeping only covers a stop
// the probe has not reported yet. A process continued behind our back
// clears the bookkeeping.
func (s *Supervisor) Stopped() bool {
	if !s.Alive() {
		return false
	}
	if s.probe == nil {
		return s.suspended
	}
	if s.probe.Stopped(s.pid) {
		if s.suspended {
			s.stopSeen = true
		}
		return true
	}
	if s.suspended && !s.stopSeen {
		return true
	}
	s.suspended = false
	s.stopSeen = false
	return false
}

// Usage returns resource usage of the live child
func (s *Supervisor) Usage() (*types.Usage, error) {
	if !s.Alive() {
		return nil, ErrNotRunning
	}
	if s.probe == nil {
		return nil, errors.New("no process probe configured")
	}
	return s.probe.Usage(s.pid)
}

// PID returns the pid of the current or last child, 0 if never started
func (s *Supervisor) PID() int { return s.pid }

// RunID returns the id of the current or last run
func (s *Supervisor) RunID() id.RunID { return s.runID }

// Phase returns the current runtime phase
func (s *Supervisor) Phase() Phase { return s.phase }

// ExitCode returns the last exit code (signal number if killed)
func (s *Supervisor) ExitCode() int { return s.exitCode }

// LastError returns the kind and error of the last failure
func (s *Supervisor) LastError() (ErrorKind, error) { return s.errKind, s.lastErr }

// Suspended reports the suspend bookkeeping flag
func (s *Supervisor) Suspended() bool { return s.suspended }

func exitStatus(state *os.ProcessState) (code int, signaled bool) {
	if state == nil {
		return -1, false
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return int(ws.Signal()), true
	}
	return state.ExitCode(), false
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
