package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/metrics"
)

// MetricsMiddleware records request latency by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDurationMs.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(float64(time.Since(start).Milliseconds()))
	}
}
