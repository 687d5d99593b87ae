package handler

import (
	"net/http"

	"frontend/internal/models"

	"github.com/gin-gonic/gin"
)

// Home shows the landing page with marketplace statistics.
// GET /
func (h *Handler) Home(c *gin.Context) {
	stats := h.catalog.Stats(c.Request.Context())
	h.render(c, http.StatusOK, "home.html", gin.H{
		"Stats":      stats,
		"Categories": models.Categories,
	})
}
