package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// RequestLogger logs one structured line per request and records the HTTP
// metrics.  metrics may be nil.
func RequestLogger(log logging.Logger, m *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		// FullPath keeps metric label cardinality bounded: route templates,
		// not raw URLs.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if m != nil {
			m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, statusLabel(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("request_id", GetRequestID(c)),
		}
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Recovery converts panics into 500 responses with a logged stack-free
// summary, keeping one bad request from taking the process down.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panicked",
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", GetRequestID(c)),
					logging.Any("panic", r))
				c.AbortWithStatusJSON(500, gin.H{"error": gin.H{
					"code":    errors.CodeInternal.String(),
					"message": "internal server error",
				}})
			}
		}()
		c.Next()
	}
}

// CORS allows browser dashboards on other origins to read the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
