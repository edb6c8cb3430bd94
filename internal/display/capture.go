package display

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Config controls capture geometry and refresh parameters
type Config struct {
	Geometry         Geometry
	Temperature      int32
	CompressionLevel int
}

// DefaultConfig returns the reMarkable panel settings
func DefaultConfig() Config {
	return Config{
		Geometry:         Geometry{Width: 1404, Height: 1872},
		Temperature:      TemperatureRemarkableDraw,
		CompressionLevel: 6,
	}
}

// ScreenCapture holds at most one snapshot for a single application.
// It is not safe for concurrent use; callers serialize on their event loop.
type ScreenCapture struct {
	fb       Framebuffer
	cfg      Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	snapshot *Snapshot
}

// NewScreenCapture creates a capture service over fb
func NewScreenCapture(fb Framebuffer, cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *ScreenCapture {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenCapture{
		fb:      fb,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Capture copies the panel into a compressed snapshot. It does nothing when a
// snapshot is already held.
func (s *ScreenCapture) Capture() error {
	if s.snapshot != nil {
		return nil
	}

	timer := monitoring.NewTimer(s.metrics, "capture")
	size := s.cfg.Geometry.Size()

	pixels, err := s.read(size)
	if err != nil {
		timer.Stop("unavailable")
		return err
	}

	snap, err := newSnapshot(pixels, s.cfg.CompressionLevel)
	if err != nil {
		timer.Stop("error")
		return err
	}

	s.snapshot = snap
	s.metrics.AddSnapshotBytes(len(snap.Data))
	timer.Stop("success")

	s.logger.Debug("Screen captured",
		zap.String("snapshot", snap.ID.String()),
		zap.Int("size", snap.Size),
		zap.Int("compressed", len(snap.Data)))
	return nil
}

func (s *ScreenCapture) read(size int) ([]byte, error) {
	m, err := s.open()
	if err != nil {
		return nil, err
	}
	defer s.release(m)

	mem := m.Bytes()
	if len(mem) < size {
		return nil, fmt.Errorf("%w: mapped %d bytes, need %d", ErrDeviceUnavailable, len(mem), size)
	}
	pixels := make([]byte, size)
	copy(pixels, mem[:size])
	return pixels, nil
}

// Restore writes the held snapshot back to the panel and requests a full
// refresh. The snapshot is discarded whatever the outcome.
func (s *ScreenCapture) Restore() error {
	snap := s.snapshot
	if snap == nil {
		return nil
	}
	defer s.Discard()

	timer := monitoring.NewTimer(s.metrics, "restore")

	pixels, err := snap.Pixels()
	if err != nil {
		timer.Stop("corrupt")
		s.logger.Warn("Discarding unreadable snapshot",
			zap.String("snapshot", snap.ID.String()),
			zap.Error(err))
		return err
	}

	m, err := s.open()
	if err != nil {
		timer.Stop("unavailable")
		return err
	}
	defer s.release(m)

	mem := m.Bytes()
	if len(mem) < len(pixels) {
		timer.Stop("unavailable")
		return fmt.Errorf("%w: mapped %d bytes, need %d", ErrDeviceUnavailable, len(mem), len(pixels))
	}
	copy(mem, pixels)

	if err := m.Refresh(FullRefresh(s.cfg.Geometry, s.cfg.Temperature)); err != nil {
		s.logger.Warn("Panel refresh failed after restore",
			zap.String("snapshot", snap.ID.String()),
			zap.Error(err))
		timer.Stop("refresh_failed")
		return nil
	}

	timer.Stop("success")
	s.logger.Debug("Screen restored", zap.String("snapshot", snap.ID.String()))
	return nil
}

// Discard drops the held snapshot, if any
func (s *ScreenCapture) Discard() {
	if s.snapshot == nil {
		return
	}
	s.metrics.AddSnapshotBytes(-len(s.snapshot.Data))
	s.snapshot = nil
}

// Snapshot returns the held snapshot or nil
func (s *ScreenCapture) Snapshot() *Snapshot {
	return s.snapshot
}

// HasSnapshot reports whether a snapshot is held
func (s *ScreenCapture) HasSnapshot() bool {
	return s.snapshot != nil
}

func (s *ScreenCapture) open() (Mapping, error) {
	if s.fb == nil {
		return nil, fmt.Errorf("%w: no framebuffer configured", ErrDeviceUnavailable)
	}
	m, err := s.fb.Open()
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return nil, err
	}
	return m, nil
}

func (s *ScreenCapture) release(m Mapping) {
	if err := m.Close(); err != nil {
		s.logger.Warn("Failed to release framebuffer mapping", zap.Error(err))
	}
}
