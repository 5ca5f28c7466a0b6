package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logger writes one line per request. Level follows the status code.
func Logger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var e *zerolog.Event
		switch {
		case status >= 500:
			e = logger.Error()
		case status >= 400:
			e = logger.Warn()
		default:
			e = logger.Info()
		}
		if len(c.Errors) > 0 {
			e = e.Str("error", c.Errors.String())
		}
		if id := c.GetString(ContextRequestIDKey); id != "" {
			e = e.Str("request_id", id)
		}
		if userID := c.GetUint(ContextUserIDKey); userID != 0 {
			e = e.Uint("user_id", userID)
		}
		e.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
