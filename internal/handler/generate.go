package handler

import (
	"net/http"
	"strconv"

	"frontend/internal/format"
	"frontend/internal/models"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateForm shows the generation form.
// GET /generate
func (h *Handler) GenerateForm(c *gin.Context) {
	h.renderGenerate(c, http.StatusOK, service.DefaultGenerateForm(), gin.H{})
}

// Generate validates the form and asks the backend for a dataset.
// POST /generate
func (h *Handler) Generate(c *gin.Context) {
	form := service.GenerateForm{
		Category:    c.PostForm("category"),
		Rows:        atoi(c.PostForm("rows")),
		Columns:     atoi(c.PostForm("columns")),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	req, err := form.Validate()
	if err != nil {
		h.renderGenerate(c, http.StatusUnprocessableEntity, form, gin.H{"Error": err.Error()})
		return
	}

	result, err := h.client.GenerateDataset(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Generation failed", zap.String("category", string(req.Category)), zap.Error(err))
		h.renderGenerate(c, statusFor(err), form, gin.H{"Error": format.ErrorMessage(err)})
		return
	}

	data := gin.H{"Result": result}
	if result.Metadata != nil {
		data["Tier"] = format.QualityTier(result.Metadata.QualityScore)
	}
	h.renderGenerate(c, http.StatusOK, form, data)
}

func (h *Handler) renderGenerate(c *gin.Context, status int, form service.GenerateForm, data gin.H) {
	data["Title"] = "Generate Dataset"
	data["Form"] = form
	data["Categories"] = models.Categories
	data["MaxRows"] = service.MaxGenerateRows
	data["MaxColumns"] = service.MaxGenerateColumns
	h.render(c, status, "generate.html", data)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
