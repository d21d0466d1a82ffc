package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers liveness probes. Capabilities lists which optional
// collaborators came up, so a degraded deploy (no calendar, no video tooling)
// is visible without reading startup logs.
type HealthHandler struct {
	capabilities map[string]bool
}

func NewHealthHandler(capabilities map[string]bool) *HealthHandler {
	caps := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		caps[k] = v
	}
	return &HealthHandler{capabilities: caps}
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "capabilities": h.capabilities})
}
