package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
	"go.uber.org/zap"
)

// Manager keeps the set of known applications. The map is safe for
// concurrent use; methods that read or drive application state must run on
// the event loop.
type Manager struct {
	mu      sync.RWMutex
	apps    map[string]*Application // Protected by mu
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates an empty manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		apps:   make(map[string]*Application),
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Add takes ownership of app and exports it on the bus
func (m *Manager) Add(app *Application) error {
	m.mu.Lock()
	if _, exists := m.apps[app.Path()]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicatePath, app.Path())
	}
	m.apps[app.Path()] = app
	m.mu.Unlock()

	app.Subscribe(func(Notification) { m.refreshGauge() })
	if err := app.Register(); err != nil {
		m.logger.Warn("Application added without bus registration",
			zap.String("path", app.Path()),
			zap.Error(err))
	}
	m.refreshGauge()
	return nil
}

// Get retrieves an application by path
func (m *Manager) Get(path string) (*Application, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[path]
	return app, ok
}

// FindByName returns the first application with the given name
func (m *Manager) FindByName(name string) (*Application, bool) {
	for _, app := range m.List() {
		if app.Name() == name {
			return app, true
		}
	}
	return nil, false
}

// List returns all applications ordered by path
func (m *Manager) List() []*Application {
	m.mu.RLock()
	apps := make([]*Application, 0, len(m.apps))
	for _, app := range m.apps {
		apps = append(apps, app)
	}
	m.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool { return apps[i].Path() < apps[j].Path() })
	return apps
}

// Remove closes and forgets the application at path
func (m *Manager) Remove(path string) bool {
	m.mu.Lock()
	app, ok := m.apps[path]
	delete(m.apps, path)
	m.mu.Unlock()

	if !ok {
		return false
	}
	app.Close()
	m.refreshGauge()
	return true
}

// Stats returns manager statistics
func (m *Manager) Stats() types.Stats {
	var stats types.Stats
	for _, app := range m.List() {
		stats.TotalApps++
		switch app.State() {
		case types.StateInactive:
			stats.InactiveApps++
		case types.StateInForeground:
			stats.ForegroundApps++
		case types.StateInBackground:
			stats.BackgroundApps++
		case types.StatePaused:
			stats.PausedApps++
		}
		if app.Registered() {
			stats.RegisteredApps++
		}
	}
	return stats
}

// Autostart launches every loaded autostart application that is inactive.
// It returns how many were launched.
func (m *Manager) Autostart() int {
	launched := 0
	for _, app := range m.List() {
		if !app.Loaded() || !app.AutoStart() || app.State() != types.StateInactive {
			continue
		}
		if err := app.Launch(); err != nil {
			m.logger.Error("Autostart failed", zap.String("app", app.Name()), zap.Error(err))
			continue
		}
		launched++
	}
	return launched
}

// Shutdown terminates every application, waits up to grace for them to
// exit, kills stragglers and closes everything. It blocks the calling
// goroutine; call it last.
func (m *Manager) Shutdown(grace time.Duration) {
	apps := m.List()
	for _, app := range apps {
		app.Terminate()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, app := range apps {
			app.WaitUntilFinished()
		}
	}()

	select {
	case <-done:
	case <-time.After(grace):
		m.logger.Warn("Applications did not exit in time, killing", zap.Duration("grace", grace))
		for _, app := range apps {
			app.Kill()
		}
		<-done
	}

	for _, app := range apps {
		app.Close()
	}

	m.mu.Lock()
	m.apps = make(map[string]*Application)
	m.mu.Unlock()
}

func (m *Manager) refreshGauge() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetAppsByState(m.Stats().ByState())
}
