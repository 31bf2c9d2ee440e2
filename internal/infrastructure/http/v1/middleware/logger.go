package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/pkg/logger"
)

// Logger logs every HTTP request with timing and status, and makes log
// available to downstream code through logger.FromContext.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		log.WithContext(c.Request.Context()).Infow("http request", fields...)
	}
}
