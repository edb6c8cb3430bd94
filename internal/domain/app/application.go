package app

import (
	"fmt"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/display"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/ipc"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/process"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// DefaultInterface is the bus interface applications are exported under
const DefaultInterface = "org.appswitch.Application1"

// Deps are the collaborators shared by every application
type Deps struct {
	Loop        process.Poster
	Registry    *ipc.Registry
	Framebuffer display.Framebuffer
	Display     display.Config
	Interface   string
	Logger      *logging.Logger
	Metrics     *monitoring.Metrics
	Probe       process.Probe
}

// Application is one switchable program
type Application struct {
	path         string
	deps         Deps
	logger       *zap.Logger
	sup          *process.Supervisor
	screen       *display.ScreenCapture
	relay        *process.Relay
	reg          types.Registration
	loaded       bool
	closed       bool
	backgrounded bool
	listeners    []func(Notification)
}

// New creates an unloaded application at path
func New(path string, deps Deps) *Application {
	if deps.Logger == nil {
		deps.Logger = &logging.Logger{Logger: zap.NewNop()}
	}
	if deps.Interface == "" {
		deps.Interface = DefaultInterface
	}

	a := &Application{
		path:   path,
		deps:   deps,
		logger: deps.Logger.With(zap.String("path", path)),
	}
	a.sup = process.NewSupervisor(deps.Loop, a.logger)
	if deps.Probe != nil {
		a.sup.WithProbe(deps.Probe)
	}
	a.sup.Handle(a.onEvent)
	a.screen = display.NewScreenCapture(deps.Framebuffer, deps.Display, a.logger, deps.Metrics)
	return a
}

// Load sets the application metadata. It may only be called once.
func (a *Application) Load(reg types.Registration) error {
	if a.loaded {
		return ErrAlreadyLoaded
	}
	a.reg = reg
	a.loaded = true
	a.logger = a.deps.Logger.ForApp(reg.Name, a.path)
	a.relay = process.NewRelay(a.logger, reg.Name, a.deps.Metrics)
	return nil
}

func (a *Application) Path() string        { return a.path }
func (a *Application) Name() string        { return a.reg.Name }
func (a *Application) Description() string { return a.reg.Description }
func (a *Application) Call() string        { return a.reg.Call }
func (a *Application) Term() string        { return a.reg.Term }
func (a *Application) Type() types.AppType { return a.reg.Type }
func (a *Application) AutoStart() bool     { return a.reg.AutoStart }
func (a *Application) SystemApp() bool     { return a.reg.SystemApp }
func (a *Application) Loaded() bool        { return a.loaded }

// PID returns the pid of the running process, 0 when inactive
func (a *Application) PID() int {
	if !a.sup.Alive() {
		return 0
	}
	return a.sup.PID()
}

// HasSnapshot reports whether a paused screen is held
func (a *Application) HasSnapshot() bool {
	return a.screen.HasSnapshot()
}

// State derives the current state from the process and bookkeeping flags
func (a *Application) State() types.State {
	switch {
	case !a.sup.Alive():
		return types.StateInactive
	case a.sup.Stopped():
		return types.StatePaused
	case a.backgrounded:
		return types.StateInBackground
	default:
		return types.StateInForeground
	}
}

// Subscribe registers fn for every notification this application emits
func (a *Application) Subscribe(fn func(Notification)) {
	a.listeners = append(a.listeners, fn)
}

// Register exports the application on the bus
func (a *Application) Register() error {
	if a.deps.Registry == nil {
		return nil
	}
	return a.deps.Registry.Register(a)
}

// Registered reports whether the application is exported on the bus
func (a *Application) Registered() bool {
	return a.deps.Registry != nil && a.deps.Registry.Registered(a.path)
}

// Launch starts the process, or brings a paused or backgrounded one forward.
// Launched is emitted once the process is actually running.
func (a *Application) Launch() error {
	if !a.loaded {
		return ErrNotLoaded
	}

	switch a.State() {
	case types.StateInForeground:
		return ErrAlreadyForeground
	case types.StatePaused, types.StateInBackground:
		return a.Resume()
	}

	argv, err := process.SplitCommand(a.reg.Call)
	if err != nil {
		return fmt.Errorf("launch %s: %w", a.reg.Name, err)
	}

	a.backgrounded = false
	a.screen.Discard()
	if err := a.sup.Start(argv[0], argv[1:]); err != nil {
		return fmt.Errorf("launch %s: %w", a.reg.Name, err)
	}

	if !a.Registered() {
		if err := a.Register(); err != nil {
			a.logger.Warn("Launched without bus registration", zap.Error(err))
		}
	}

	a.logger.Info("Launching application", zap.String("call", a.reg.Call))
	return nil
}

// Pause captures the screen and sends the application to the background.
// Backgroundable applications in the foreground are told with SIGUSR2 and
// keep running; everything else is stopped.
func (a *Application) Pause(startIfNone bool) error {
	state := a.State()
	switch state {
	case types.StateInactive:
		return ErrNotRunning
	case types.StatePaused:
		return nil
	}

	if err := a.screen.Capture(); err != nil {
		a.logger.Warn("Screen capture failed, pausing without snapshot", zap.Error(err))
	}

	if a.reg.Type == types.AppTypeBackgroundable && state == types.StateInForeground {
		if err := a.sup.DeliverSignal(unix.SIGUSR2); err != nil {
			return fmt.Errorf("pause %s: %w", a.reg.Name, err)
		}
	} else if err := a.sup.Suspend(); err != nil {
		return fmt.Errorf("pause %s: %w", a.reg.Name, err)
	}
	a.backgrounded = true

	a.logger.Info("Application paused", zap.Stringer("state", a.State()))
	a.emit(Notification{Kind: Paused, StartIfNone: startIfNone})
	return nil
}

// Resume continues the process and restores its screen
func (a *Application) Resume() error {
	switch a.State() {
	case types.StateInactive:
		return ErrNotRunning
	case types.StateInForeground:
		return nil
	}

	if a.sup.Stopped() {
		if err := a.sup.Continue(); err != nil {
			return fmt.Errorf("resume %s: %w", a.reg.Name, err)
		}
	}
	if a.reg.Type == types.AppTypeBackgroundable {
		if err := a.sup.DeliverSignal(unix.SIGUSR1); err != nil {
			return fmt.Errorf("resume %s: %w", a.reg.Name, err)
		}
	}
	a.backgrounded = false

	if err := a.screen.Restore(); err != nil {
		a.logger.Warn("Screen restore failed, application must redraw", zap.Error(err))
	}

	a.logger.Info("Application resumed")
	a.emit(Notification{Kind: Resumed})
	return nil
}

// Signal delivers n to the process without touching pause bookkeeping
func (a *Application) Signal(n int32) error {
	if err := a.sup.DeliverSignal(syscall.Signal(n)); err != nil {
		return fmt.Errorf("signal %s: %w", a.reg.Name, err)
	}
	a.emit(Notification{Kind: Signaled, Signal: n})
	return nil
}

// Unregister removes the bus object. The process is left alone.
func (a *Application) Unregister() error {
	if !a.Registered() {
		return nil
	}
	// Emitted first so bus listeners still see it
	a.emit(Notification{Kind: Unregistered})
	a.deps.Registry.Unregister(a.path)
	return nil
}

// Terminate asks the process to exit
func (a *Application) Terminate() {
	a.sup.Terminate()
}

// Kill forcibly ends the process
func (a *Application) Kill() {
	a.sup.Kill()
}

// Close destroys the application: bus object, process and snapshot
func (a *Application) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.deps.Registry != nil {
		a.deps.Registry.Unregister(a.path)
	}
	if a.sup.Alive() {
		a.sup.Kill()
	}
	a.screen.Discard()
}

// WaitUntilFinished blocks until the process has been reaped.
// Teardown only.
func (a *Application) WaitUntilFinished() {
	a.sup.WaitUntilFinished()
}

// View returns a read-only snapshot for status surfaces
func (a *Application) View() types.AppView {
	v := types.AppView{
		Path:        a.path,
		Name:        a.reg.Name,
		Description: a.reg.Description,
		Call:        a.reg.Call,
		Term:        a.reg.Term,
		Type:        a.reg.Type,
		AutoStart:   a.reg.AutoStart,
		SystemApp:   a.reg.SystemApp,
		State:       a.State(),
		PID:         a.PID(),
		Registered:  a.Registered(),
		Snapshot:    a.screen.HasSnapshot(),
	}
	if v.PID != 0 {
		if usage, err := a.sup.Usage(); err == nil {
			v.Usage = usage
		}
	}
	return v
}

func (a *Application) onEvent(ev process.Event) {
	switch e := ev.(type) {
	case process.Started:
		if e.PID != a.sup.PID() {
			return
		}
		a.deps.Metrics.RecordProcessStart(a.reg.Name, "success")
		a.logger.Info("Application launched", zap.Int("pid", e.PID))
		a.emit(Notification{Kind: Launched})

	case process.ErrorOccurred:
		switch e.Kind {
		case process.ErrorFailedToStart:
			a.backgrounded = false
			a.deps.Metrics.RecordProcessStart(a.reg.Name, "failed")
			a.logger.Error("Application failed to start",
				zap.Stringer("kind", e.Kind),
				zap.Error(e.Err))
		default:
			a.logger.Warn("Application process error",
				zap.Stringer("kind", e.Kind),
				zap.Error(e.Err))
		}

	case process.PhaseChanged:
		a.logger.Debug("Process phase changed", zap.Stringer("phase", e.Phase))

	case process.Output:
		if a.relay != nil {
			a.relay.Write(e.PID, e.Stream, e.Data)
		}

	case process.StreamClosed:
		if a.relay != nil {
			a.relay.Flush(e.PID, e.Stream)
		}

	case process.Finished:
		// A stale exit can arrive after a relaunch has already started
		if e.PID != a.sup.PID() || a.sup.Alive() {
			return
		}
		a.backgrounded = false
		a.screen.Discard()

		kind := "exit"
		if e.Signaled {
			kind = "signal"
		}
		a.deps.Metrics.RecordProcessExit(a.reg.Name, kind)
		a.logger.Info("Application exited",
			zap.Int("pid", e.PID),
			zap.Int("code", e.ExitCode),
			zap.Bool("signaled", e.Signaled))
		a.emit(Notification{Kind: Exited, ExitCode: int32(e.ExitCode)})
	}
}

func (a *Application) emit(n Notification) {
	n.Path = a.path
	n.Name = a.reg.Name

	a.deps.Metrics.RecordTransition(a.reg.Name, n.Kind.String())
	if a.deps.Registry != nil {
		_ = a.deps.Registry.Emit(a.path, n.Kind.String(), n.args()...)
	}
	for _, fn := range a.listeners {
		fn(n)
	}
}
