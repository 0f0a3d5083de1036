package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cartographai/discovery-backend/internal/observability"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// RequestLogger logs one line per request and feeds the API metrics.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.Current().ObserveAPI(c.Request.Method, route, strconv.Itoa(status), dur)

		if status >= 500 {
			log.Error("Request failed", "method", c.Request.Method, "route", route,
				"status", status, "duration_ms", dur.Milliseconds())
			return
		}
		log.Info("Request", "method", c.Request.Method, "route", route,
			"status", status, "duration_ms", dur.Milliseconds())
	}
}
