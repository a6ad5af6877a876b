package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/faceguard/internal/observability"
)

// Liveness and readiness probes fire every few seconds and would
// drown out real traffic in the log and the latency histogram.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// LoggingMiddleware logs each request with slog and records its
// latency. Camera uploads carry a device_id form field, which is
// folded into the log line so events can be traced back to a camera.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if quietPaths[path] {
			return
		}

		duration := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", duration.String(),
			"ip", c.ClientIP(),
		}
		// The upload handler has parsed the multipart form by now, so
		// PostForm is a cheap lookup rather than a body read.
		if deviceID := c.PostForm("device_id"); deviceID != "" {
			attrs = append(attrs, "device_id", deviceID)
		}
		slog.Info("request", attrs...)

		observability.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			fmt.Sprintf("%d", status),
		).Observe(duration.Seconds())
	}
}
