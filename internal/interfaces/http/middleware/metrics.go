package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minegocio/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request count and latency per route. A nil recorder
// disables the middleware.
func HTTPMetrics(recorder *telemetry.HTTPMetrics) gin.HandlerFunc {
	if recorder == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		recorder.Observe(c.Request.Context(), c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// routePattern keeps cardinality bounded: unmatched paths collapse into one
// label.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
