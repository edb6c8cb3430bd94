package http

import (
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig selects the middleware stack
type RouterConfig struct {
	Metrics     *monitoring.Metrics
	Gatherer    prometheus.Gatherer
	RateLimit   *middleware.RateLimitConfig
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter builds the debug router
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(cfg.Logger))
	router.Use(monitoring.Middleware(cfg.Metrics))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	}
	if cfg.RateLimit != nil {
		router.Use(middleware.RateLimit(*cfg.RateLimit))
	}

	router.GET("/healthz", h.Health)
	router.GET("/apps", h.ListApps)
	router.GET("/apps/:name", h.GetApp)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}
