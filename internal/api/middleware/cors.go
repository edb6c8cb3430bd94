package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

// CORS lets browser dashboards on the listed origins read the debug
// surface. The surface is read-only, so only GET and HEAD are allowed.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 12 * time.Hour
	}
	return cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  []string{"GET", "HEAD"},
		AllowHeaders:  []string{"Accept", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        maxAge,
	})
}
