package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/fnolroute/internal/worker"
)

// ContextKeyRequestID is the gin context key holding the request id
const ContextKeyRequestID = "request_id"

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs each HTTP request with method, path, status, and latency.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestID, _ := c.Get(ContextKeyRequestID)
		logger.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client", c.ClientIP(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Recovery turns a panic in any handler into a structured 500; other requests
// are unaffected.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestID, _ := c.Get(ContextKeyRequestID)
		logger.Error("handler panic", "request_id", requestID, "panic", recovered)
		RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	})
}

// RateLimit rejects clients that exceed their token bucket with 429.
func RateLimit(limiter *worker.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			RespondError(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests; slow down")
			return
		}
		c.Next()
	}
}
