package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version: version,
		started: time.Now(),
	}
}

// RegisterRoutes registers the health check routes.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.handleHealth)
	r.GET("/healthz", h.handleHealth)
}

// handleHealth returns the service health status.
func (h *HealthHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "mixtape-server",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}
