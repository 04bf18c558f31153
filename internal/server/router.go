package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/fnolroute/internal/worker"
)

// Setup configures the Gin engine with all routes and middleware. A nil limiter
// disables rate limiting.
func Setup(processH *ProcessHandler, healthH *HealthHandler, limiter *worker.Limiter, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(RequestID())
	r.Use(Recovery(logger))
	r.Use(Logger(logger))

	// Health checks
	r.GET("/healthz", healthH.Liveness)

	upload := r.Group("")
	if limiter != nil {
		upload.Use(RateLimit(limiter))
	}
	upload.POST("/process-fnol", processH.ProcessFNOL)
	upload.POST("/api/v1/process-fnol", processH.ProcessFNOL)

	return r
}
