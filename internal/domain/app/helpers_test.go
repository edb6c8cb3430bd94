package app

import (
	"context"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/display"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/eventloop"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/ipc"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testGeometry = display.Geometry{Width: 16, Height: 8}

type harness struct {
	t       *testing.T
	loop    *eventloop.Loop
	fb      *display.MemoryFramebuffer
	bus     *ipc.MemoryBus
	reg     *ipc.Registry
	metrics *monitoring.Metrics
	notes   chan Notification
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	bus := ipc.NewMemoryBus(loop)
	return &harness{
		t:       t,
		loop:    loop,
		fb:      display.NewMemoryFramebuffer(testGeometry),
		bus:     bus,
		reg:     ipc.NewRegistry(bus, nil),
		metrics: monitoring.NewMetrics(prometheus.NewRegistry()),
		notes:   make(chan Notification, 256),
	}
}

func (h *harness) deps() Deps {
	cfg := display.DefaultConfig()
	cfg.Geometry = testGeometry
	return Deps{
		Loop:        h.loop,
		Registry:    h.reg,
		Framebuffer: h.fb,
		Display:     cfg,
		Metrics:     h.metrics,
	}
}

// newApp creates and loads an application whose notifications feed h.notes
func (h *harness) newApp(reg types.Registration) *Application {
	h.t.Helper()

	var (
		a   *Application
		err error
	)
	h.call(func() {
		a = New(paths.ObjectPath(paths.DefaultPrefix, reg.Name), h.deps())
		err = a.Load(reg)
		a.Subscribe(func(n Notification) { h.notes <- n })
	})
	require.NoError(h.t, err)
	h.t.Cleanup(func() {
		_ = h.loop.Call(a.Close)
		a.WaitUntilFinished()
	})
	return a
}

func (h *harness) call(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.loop.Call(fn))
}

func (h *harness) state(a *Application) types.State {
	var s types.State
	h.call(func() { s = a.State() })
	return s
}

func (h *harness) do(fn func() error) error {
	var err error
	h.call(func() { err = fn() })
	return err
}

// next waits for the next notification of kind, skipping others
func (h *harness) next(kind Kind) Notification {
	h.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case n := <-h.notes:
			if n.Kind == kind {
				return n
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", kind)
			return Notification{}
		}
	}
}

// quiet asserts no notification of kind arrives within d
func (h *harness) quiet(kind Kind, d time.Duration) {
	h.t.Helper()
	timeout := time.After(d)
	for {
		select {
		case n := <-h.notes:
			if n.Kind == kind {
				h.t.Fatalf("unexpected %s notification", kind)
			}
		case <-timeout:
			return
		}
	}
}

func sleeper(name string) types.Registration {
	return types.Registration{
		Name:        name,
		Description: name + " test app",
		Call:        "/bin/sleep 30",
		Type:        types.AppTypeForeground,
		AutoStart:   true,
	}
}

// manualPoster queues posted work until the test runs it, so tests can
// interleave calls between loop items
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
