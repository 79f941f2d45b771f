// internal/server/middleware.go - HTTP middleware
package server

import (
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"trip-heatmap/internal/metrics"
)

// requestLogger logs each request and feeds the request counter
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

		entry := s.logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
		})
		if status >= 500 {
			entry.Error("request failed")
		} else {
			entry.Debug("request served")
		}
	}
}
