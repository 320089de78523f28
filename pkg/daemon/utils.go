package daemon

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/metrics"
)

// ginLogger logs every request through logger. Failed requests are logged
// at warn or error level, the rest at debug.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handlers may rewrite the URL.
		path := c.Request.URL.Path
		start := time.Now()

		c.Next()

		latency := time.Since(start).Round(time.Millisecond)
		status := c.Writer.Status()

		entry := logger.WithFields(logrus.Fields{
			"status":   status,
			"latency":  latency.String(),
			"method":   c.Request.Method,
			"path":     path,
			"query":    c.Request.URL.RawQuery,
			"clientIP": c.ClientIP(),
			"bytes":    max(c.Writer.Size(), 0),
		})

		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			entry.Error(errs.String())
			return
		}

		msg := fmt.Sprintf("%s %s %d (%s)", c.Request.Method, path, status, latency)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error(msg)
		case status >= http.StatusBadRequest:
			entry.Warn(msg)
		default:
			entry.Debug(msg)
		}
	}
}

// ginMetrics records request counts and latencies per route.
func ginMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Label by route template so unknown paths do not grow the series.
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}
