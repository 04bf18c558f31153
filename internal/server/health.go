package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version    string
	extensions []string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string, extensions []string) *HealthHandler {
	return &HealthHandler{version: version, extensions: extensions}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    h.version,
		"extensions": h.extensions,
	})
}
