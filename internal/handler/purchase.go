package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"frontend/internal/models"
	"frontend/internal/notify"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// notifyTimeout bounds how long a sale notification may hold up the
// success page.
const notifyTimeout = 3 * time.Second

// Purchase loads the listing into the purchase wizard.
// GET /purchase/:cid
func (h *Handler) Purchase(c *gin.Context) {
	w := service.NewWizard(h.client, h.paymentDelay)
	if err := w.Load(c.Request.Context(), c.Param("cid")); err != nil {
		h.renderPurchase(c, statusFor(w.Err), w, gin.H{})
		return
	}
	if buyer := walletAddress(c); buyer != "" {
		w.Buyer = buyer
	}
	h.renderPurchase(c, http.StatusOK, w, gin.H{})
}

// Pay runs the purchase: escrow, simulated confirmation delay, payment.
// POST /purchase/:cid/pay
func (h *Handler) Pay(c *gin.Context) {
	ctx := c.Request.Context()
	cid := c.Param("cid")

	w := service.NewWizard(h.client, h.paymentDelay)
	if err := w.Load(ctx, cid); err != nil {
		h.renderPurchase(c, statusFor(w.Err), w, gin.H{})
		return
	}

	buyer := strings.TrimSpace(c.PostForm("buyer"))
	if buyer == "" {
		buyer = walletAddress(c)
	}
	amount := w.Dataset.Price
	if raw := strings.TrimSpace(c.PostForm("amount")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			w.Buyer = buyer
			h.renderPurchase(c, http.StatusUnprocessableEntity, w, gin.H{"Error": "Please enter a valid payment amount"})
			return
		}
		amount = v
	}

	if err := w.Begin(buyer); err != nil {
		w.Buyer = buyer
		w.Amount = amount
		h.renderPurchase(c, http.StatusUnprocessableEntity, w, gin.H{"Error": err.Error()})
		return
	}
	if err := w.Pay(ctx, amount, w.Buyer); err != nil {
		if service.IsValidation(err) {
			w.Buyer = buyer
			w.Amount = amount
			h.renderPurchase(c, http.StatusUnprocessableEntity, w, gin.H{"Error": err.Error()})
			return
		}
		h.logger.Warn("Purchase failed", zap.String("cid", cid), zap.String("step", string(w.Step)), zap.Error(err))
		h.renderPurchase(c, statusFor(err), w, gin.H{})
		return
	}

	tx := w.Transaction
	h.recordActivity(ctx, buyer, models.ActivityPurchase, cid, tx.TxID, decimal.NewFromFloat(amount))
	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	h.notifier.SaleCompleted(notifyCtx, notify.Sale{
		TxID:     tx.TxID,
		CID:      cid,
		Title:    w.Dataset.Title,
		Buyer:    buyer,
		Seller:   tx.Seller,
		Amount:   amount,
		Currency: h.currency,
	})
	h.logger.Info("Purchase completed", zap.String("cid", cid), zap.String("tx_id", tx.TxID))

	h.renderPurchase(c, http.StatusOK, w, gin.H{
		"Tracker": service.BuildTracker(service.TrackerStepFor(tx)),
		"Escrow":  service.EscrowFor(tx),
		"Banner":  service.BannerFor(tx),
	})
}

func (h *Handler) renderPurchase(c *gin.Context, status int, w *service.Wizard, data gin.H) {
	data["Title"] = "Purchase Dataset"
	if w.Dataset != nil {
		data["Title"] = "Purchase " + w.Dataset.Title
	}
	data["Wizard"] = w
	data["CID"] = c.Param("cid")
	h.render(c, status, "purchase.html", data)
}
