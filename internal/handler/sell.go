package handler

import (
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"frontend/internal/format"
	"frontend/internal/models"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxUploadBytes caps the dataset file accepted by the sell form.
const MaxUploadBytes = 100 << 20

var errFileTooLarge = errors.New("upload exceeds size limit")

// SellForm shows the listing form, prefilled with the connected wallet.
// GET /sell
func (h *Handler) SellForm(c *gin.Context) {
	h.renderSell(c, http.StatusOK, service.SellForm{Uploader: walletAddress(c), Category: string(models.CategoryMedical)}, gin.H{})
}

// Sell uploads a dataset for listing and shows its quality assessment.
// POST /sell
func (h *Handler) Sell(c *gin.Context) {
	form := service.SellForm{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Uploader:    c.PostForm("uploader"),
		Tags:        c.PostForm("tags"),
	}

	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			h.renderSell(c, http.StatusUnprocessableEntity, form, gin.H{"Error": "Please enter a valid price"})
			return
		}
		form.Price = price
	}

	if fh, err := c.FormFile("file"); err == nil {
		content, err := readUpload(fh)
		if err != nil {
			msg := "Could not read the uploaded file"
			if errors.Is(err, errFileTooLarge) {
				msg = "File is too large (max " + format.FileSize(MaxUploadBytes) + ")"
			}
			h.renderSell(c, http.StatusUnprocessableEntity, form, gin.H{"Error": msg})
			return
		}
		form.Filename = fh.Filename
		form.File = content
	}

	req, err := form.Validate()
	if err != nil {
		h.renderSell(c, http.StatusUnprocessableEntity, form, gin.H{"Error": err.Error()})
		return
	}

	result, err := h.client.UploadDataset(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Upload failed", zap.String("filename", req.Filename), zap.Error(err))
		h.renderSell(c, statusFor(err), form, gin.H{"Error": format.ErrorMessage(err)})
		return
	}

	if wallet := walletAddress(c); wallet != "" {
		h.recordActivity(c.Request.Context(), wallet, models.ActivityUpload, result.CID, "", decimal.NewFromFloat(req.Price))
	}

	h.renderSell(c, http.StatusOK, form, gin.H{
		"Result": result,
		"Tier":   format.QualityTier(result.QualityAssessment.OverallScore),
	})
}

func (h *Handler) renderSell(c *gin.Context, status int, form service.SellForm, data gin.H) {
	data["Title"] = "Sell Your Data"
	data["Form"] = form
	data["Categories"] = models.Categories
	h.render(c, status, "sell.html", data)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxUploadBytes {
		return nil, errFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(content) > MaxUploadBytes {
		return nil, errFileTooLarge
	}
	return content, nil
}
