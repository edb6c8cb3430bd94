package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	debughttp "github.com/GriffinCanCode/AgentOS/appswitch/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/display"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/eventloop"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/ipc"
)

// MemoryDevice selects the in-memory framebuffer instead of a device node
const MemoryDevice = "memory"

// Server wires the event loop, bus, framebuffer and applications together
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *monitoring.Metrics
	loop     *eventloop.Loop
	bus      ipc.Bus
	objects  *ipc.Registry
	fb       display.Framebuffer
	manager  *app.Manager
	debug    *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing appswitch",
		zap.String("bus", cfg.Bus.Kind),
		zap.String("framebuffer", cfg.Display.Device),
		zap.String("manifests", cfg.Apps.ManifestDir),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	loop := eventloop.New()

	bus, err := connectBus(cfg.Bus, loop, logger.Logger)
	if err != nil {
		return nil, err
	}

	geometry := display.Geometry{Width: cfg.Display.Width, Height: cfg.Display.Height}
	var fb display.Framebuffer
	if cfg.Display.Device == MemoryDevice {
		fb = display.NewMemoryFramebuffer(geometry)
	} else {
		fb = display.NewGuard(
			display.NewDeviceFramebuffer(cfg.Display.Device, geometry),
			cfg.Display.FailureThreshold,
			cfg.Display.Cooldown,
			logger.Logger,
		)
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		loop:     loop,
		bus:      bus,
		objects:  ipc.NewRegistry(bus, logger.Logger),
		fb:       fb,
		manager:  app.NewManager(logger.Logger).WithMetrics(metrics),
	}

	if cfg.Debug.Enabled {
		s.debug = &http.Server{
			Addr:              cfg.Debug.Addr,
			Handler:           s.router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

func connectBus(cfg config.BusConfig, loop *eventloop.Loop, logger *zap.Logger) (ipc.Bus, error) {
	if cfg.Kind == "none" {
		logger.Warn("No message bus configured, applications are not reachable over IPC")
		return ipc.NewMemoryBus(loop), nil
	}
	bus, err := ipc.ConnectDBus(cfg.Kind, cfg.Service, loop, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s bus: %w", cfg.Kind, err)
	}
	logger.Info("Connected to message bus", zap.String("bus", cfg.Kind), zap.String("service", cfg.Service))
	return bus, nil
}

func (s *Server) router() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	rc := debughttp.RouterConfig{
		Metrics:     s.metrics,
		Gatherer:    s.registry,
		CORSOrigins: s.config.Debug.CORSOrigins,
		Logger:      s.logger.Named("debug"),
	}
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = s.config.RateLimit.RequestsPerSecond
		rl.Burst = s.config.RateLimit.Burst
		rc.RateLimit = &rl
	}

	return debughttp.NewRouter(debughttp.NewHandlers(s.loop, s.manager), rc)
}

// Manager exposes the application manager
func (s *Server) Manager() *app.Manager {
	return s.manager
}

// Run starts the event loop, loads applications and serves until ctx is
// cancelled. Applications are terminated before it returns.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.loop.Run(loopCtx)
	}()

	if err := s.loadApps(); err != nil {
		stopLoop()
		<-loopDone
		return err
	}

	if s.debug != nil {
		g.Go(func() error {
			s.logger.Info("Starting debug HTTP server", zap.String("addr", s.debug.Addr))
			if err := s.debug.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("debug server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.debug.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down applications...")
		if err := s.loop.Call(func() { s.manager.Shutdown(s.config.Apps.ShutdownGrace) }); err != nil {
			s.logger.Warn("Event loop stopped before shutdown", zap.Error(err))
		}
		stopLoop()
		<-loopDone
		return nil
	})

	return g.Wait()
}

// loadApps reads manifests, publishes every application and starts the
// autostart ones
func (s *Server) loadApps() error {
	loader := manifest.NewLoader(s.config.Apps.ManifestDir, s.config.Bus.PathPrefix, s.logger.Logger)
	manifests, err := loader.Load()
	if err != nil {
		return err
	}

	deps := app.Deps{
		Loop:        s.loop,
		Registry:    s.objects,
		Framebuffer: s.fb,
		Display: display.Config{
			Geometry:         display.Geometry{Width: s.config.Display.Width, Height: s.config.Display.Height},
			Temperature:      int32(s.config.Display.Temperature),
			CompressionLevel: s.config.Display.CompressionLevel,
		},
		Interface: s.config.Bus.Interface,
		Logger:    s.logger,
		Metrics:   s.metrics,
	}

	return s.loop.Call(func() {
		for _, m := range manifests {
			a := app.New(m.Path, deps)
			if err := a.Load(m.Registration); err != nil {
				s.logger.Error("Failed to load application", zap.String("file", m.File), zap.Error(err))
				continue
			}
			if err := s.manager.Add(a); err != nil {
				s.logger.Error("Failed to add application", zap.String("file", m.File), zap.Error(err))
				continue
			}
		}

		if s.config.Apps.Autostart {
			n := s.manager.Autostart()
			s.logger.Info("Autostart complete", zap.Int("launched", n))
		}
	})
}

// Close releases the bus connection and flushes the logger
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var err error
	if c, ok := s.bus.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			s.logger.Error("Failed to close bus connection", zap.Error(cerr))
			err = fmt.Errorf("failed to close bus connection: %w", cerr)
		}
	}

	_ = s.logger.Sync()
	return err
}
