package reqlog

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allyplatform/ally-config/pkg/logger"
)

// Middleware attaches the base logger to every request context and emits
// one completion line per request.
func Middleware(baseCtx context.Context) gin.HandlerFunc {
	base := logger.FromContext(baseCtx)
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := base.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		ctx := logger.ContextWithLogger(c.Request.Context(), reqLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		status := c.Writer.Status()
		fields := []any{
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			reqLogger.Error("request completed", fields...)
		case status >= 400:
			reqLogger.Warn("request completed", fields...)
		default:
			reqLogger.Debug("request completed", fields...)
		}
	}
}
