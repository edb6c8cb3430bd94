package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// Caller runs fn on the event loop and waits for it
type Caller interface {
	Call(fn func()) error
}

// Handlers serves the read-only debug surface. Application state is only
// read on the event loop.
type Handlers struct {
	loop    Caller
	manager *app.Manager
	started time.Time
}

// NewHandlers creates debug handlers
func NewHandlers(loop Caller, manager *app.Manager) *Handlers {
	return &Handlers{
		loop:    loop,
		manager: manager,
		started: time.Now(),
	}
}

// Health reports whether the event loop still accepts work
func (h *Handlers) Health(c *gin.Context) {
	var stats types.Stats
	if err := h.loop.Call(func() { stats = h.manager.Stats() }); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"apps":           stats.TotalApps,
	})
}

// ListApps returns every application with aggregate counts
func (h *Handlers) ListApps(c *gin.Context) {
	var (
		views []types.AppView
		stats types.Stats
	)
	err := h.loop.Call(func() {
		for _, a := range h.manager.List() {
			views = append(views, a.View())
		}
		stats = h.manager.Stats()
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if views == nil {
		views = []types.AppView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"apps":  views,
		"stats": stats,
	})
}

// GetApp returns one application, looked up by name or path element
func (h *Handlers) GetApp(c *gin.Context) {
	name := c.Param("name")

	var (
		view  types.AppView
		found bool
	)
	err := h.loop.Call(func() {
		for _, a := range h.manager.List() {
			if a.Name() == name || paths.Element(a.Name()) == name {
				view, found = a.View(), true
				return
			}
		}
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": app.ErrNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}
