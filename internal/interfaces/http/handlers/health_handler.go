package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store storage.Store
}

// NewHealthHandler builds the probe handlers.
func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Healthz reports process liveness.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports readiness by probing the dataset store.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.store.List(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"reason": "dataset store unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
