package middleware

import (
	"time"

	"presale/pkg/logger"
	"presale/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing a sane inbound one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// AccessLog logs each request and records latency per route.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.RequestDuration(c.Request.Method, route).Update(elapsed.Seconds())
		metrics.RequestCount(c.Request.Method, route, status).Inc()

		log := logger.With(
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"route", route,
		)
		kv := []interface{}{
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Errorw("Request failed", kv...)
		case status >= 400:
			log.Warnw("Request rejected", kv...)
		default:
			log.Debugw("Request served", kv...)
		}
	}
}
