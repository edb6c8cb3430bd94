package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/id"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestLog tags every request with an id and logs it once it completes.
// A well-formed incoming X-Request-ID is kept; anything else is replaced.
func RequestLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		rid := id.RequestID(c.GetHeader(RequestIDHeader))
		if !id.IsValid(string(rid)) {
			rid = id.NewRequestID()
		}
		c.Set(requestIDKey, rid)
		c.Header(RequestIDHeader, rid.String())

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", rid.String()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			logger.Warn("Request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.Debug("Request served", fields...)
	}
}

// RequestID returns the id RequestLog assigned to c, if any
func RequestID(c *gin.Context) (id.RequestID, bool) {
	v, ok := c.Get(requestIDKey)
	if !ok {
		return "", false
	}
	rid, ok := v.(id.RequestID)
	return rid, ok
}
