package handler

import (
	"net/http"

	"frontend/internal/format"

	"github.com/gin-gonic/gin"
)

// Healthz reports local liveness.
// GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// BackendHealth proxies the marketplace API health check.
// GET /health/backend
func (h *Handler) BackendHealth(c *gin.Context) {
	health, err := h.client.HealthCheck(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "unavailable",
			"api_url": h.client.BaseURL(),
			"error":   format.ErrorMessage(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  health.Status,
		"service": health.Service,
		"api_url": h.client.BaseURL(),
	})
}
