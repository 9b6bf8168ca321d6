package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"sierre/internal/logger"
)

// Logger logs each request with method, path, status, and latency.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if status >= 500 {
			log.Error("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		} else {
			log.Info("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		}
	}
}
