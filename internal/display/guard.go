package display

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GuardState is the state of a Guard
type GuardState int

const (
	GuardClosed GuardState = iota
	GuardHalfOpen
	GuardOpen
)

func (s GuardState) String() string {
	switch s {
	case GuardClosed:
		return "closed"
	case GuardHalfOpen:
		return "half-open"
	case GuardOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Guard wraps a Framebuffer and stops opening the device for a cooldown
// after a run of consecutive open failures. After the cooldown one probe
// open is let through; success closes the guard, failure reopens it.
type Guard struct {
	fb        Framebuffer
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    GuardState // Protected by mu
	failures int        // Protected by mu
	until    time.Time  // Protected by mu
}

// NewGuard guards fb. A threshold below one disables the guard.
func NewGuard(fb Framebuffer, threshold int, cooldown time.Duration, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		fb:        fb,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
	}
}

// State returns the current guard state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current(g.now())
}

// Open opens the underlying framebuffer unless the guard is open
func (g *Guard) Open() (Mapping, error) {
	if g.threshold < 1 {
		return g.fb.Open()
	}

	g.mu.Lock()
	now := g.now()
	if g.current(now) == GuardOpen {
		until := g.until
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: device access suspended until %s", ErrDeviceUnavailable, until.Format(time.RFC3339))
	}
	g.mu.Unlock()

	m, err := g.fb.Open()

	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		if g.state != GuardClosed {
			g.logger.Info("Framebuffer available again")
		}
		g.state = GuardClosed
		g.failures = 0
		return m, nil
	}

	g.failures++
	if g.state == GuardHalfOpen || g.failures >= g.threshold {
		g.state = GuardOpen
		g.until = now.Add(g.cooldown)
		g.failures = 0
		g.logger.Warn("Framebuffer failing, suspending device access",
			zap.Duration("cooldown", g.cooldown),
			zap.Error(err))
	}
	return nil, err
}

// current must be called with mu held
func (g *Guard) current(now time.Time) GuardState {
	if g.state == GuardOpen && !now.Before(g.until) {
		g.state = GuardHalfOpen
	}
	return g.state
}
