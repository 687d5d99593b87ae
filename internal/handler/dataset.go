package handler

import (
	"net/http"
	"strings"

	"frontend/internal/format"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentBidsLimit = 10

// Dataset shows a listing with its preview, formats, sales and bid book.
// GET /dataset/:cid
func (h *Handler) Dataset(c *gin.Context) {
	data := gin.H{}
	if c.Query("bid") == "placed" {
		data["Notice"] = "Bid placed successfully"
	}
	h.renderDataset(c, http.StatusOK, c.Param("cid"), data)
}

// PlaceBid records a bid from the connected wallet.
// POST /dataset/:cid/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	cid := c.Param("cid")
	ctx := c.Request.Context()

	dataset, err := h.client.GetDatasetMetadata(ctx, cid)
	if err != nil {
		h.renderError(c, err, "/dataset/"+cid)
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("amount")))
	if err != nil || amount.IsNegative() {
		h.renderDataset(c, http.StatusUnprocessableEntity, cid, gin.H{"BidError": "Please enter a valid bid amount"})
		return
	}

	if _, err := h.bidding.PlaceBid(ctx, dataset, walletAddress(c), amount); err != nil {
		status := statusFor(err)
		if status != http.StatusUnprocessableEntity {
			h.logger.Error("Failed to place bid", zap.String("cid", cid), zap.Error(err))
		}
		h.renderDataset(c, status, cid, gin.H{"BidError": format.ErrorMessage(err), "BidAmount": amount.String()})
		return
	}

	c.Redirect(http.StatusSeeOther, "/dataset/"+cid+"?bid=placed")
}

func (h *Handler) renderDataset(c *gin.Context, status int, cid string, data gin.H) {
	ctx := c.Request.Context()

	dataset, err := h.client.GetDatasetMetadata(ctx, cid)
	if err != nil {
		h.renderError(c, err, "/marketplace")
		return
	}

	if preview, err := h.client.GetDatasetPreview(ctx, cid); err == nil {
		data["Preview"] = preview
	} else {
		h.logger.Debug("No preview", zap.String("cid", cid), zap.Error(err))
	}
	if formats, err := h.client.GetDatasetFormats(ctx, cid); err == nil {
		data["Formats"] = formats.Formats
	} else {
		data["Formats"] = []string{"csv", "zip"}
	}
	if stats, err := h.client.GetDatasetStats(ctx, cid); err == nil {
		data["Stats"] = stats
	}
	if sales, err := h.client.GetDatasetTransactions(ctx, cid); err == nil {
		data["Sales"] = sales
	}

	book, err := h.bidding.Book(ctx, dataset, recentBidsLimit)
	if err != nil {
		h.logger.Error("Failed to load bid book", zap.String("cid", cid), zap.Error(err))
	} else {
		data["Book"] = book
	}

	data["Title"] = dataset.Title
	data["Dataset"] = dataset
	data["Tier"] = format.QualityTier(dataset.QualityScore)
	data["CategoryInfo"] = dataset.Category.Description()
	h.render(c, status, "dataset.html", data)
}
