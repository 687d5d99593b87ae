package handler

import (
	"net/http"
	"strings"

	"frontend/internal/format"
	"frontend/internal/middleware"
	"frontend/internal/models"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const walletActivityLimit = 20

// HistoryRow is one transaction from the connected wallet's point of view.
type HistoryRow struct {
	models.Transaction
	Kind         string
	Counterparty string
	Banner       service.Banner
}

// FilterTab is one status tab on the history page.
type FilterTab struct {
	Name   string
	Count  int
	Active bool
}

// Wallet shows the connect form, or the connected wallet's summary.
// GET /wallet
func (h *Handler) Wallet(c *gin.Context) {
	h.renderWallet(c, http.StatusOK, gin.H{})
}

// ConnectWallet issues a wallet session cookie.
// POST /wallet/connect
func (h *Handler) ConnectWallet(c *gin.Context) {
	session, err := h.wallets.Connect(c.PostForm("address"))
	if err != nil {
		h.renderWallet(c, statusFor(err), gin.H{"Error": format.ErrorMessage(err), "Address": c.PostForm("address")})
		return
	}
	middleware.SetWalletCookie(c, h.cookieName, session.Token, int(h.sessionTTL.Seconds()))
	c.Redirect(http.StatusSeeOther, safeRedirect(c.PostForm("next"), "/wallet"))
}

// DisconnectWallet clears the wallet session cookie.
// POST /wallet/disconnect
func (h *Handler) DisconnectWallet(c *gin.Context) {
	middleware.ClearWalletCookie(c, h.cookieName)
	c.Redirect(http.StatusSeeOther, "/")
}

// History lists the connected wallet's transactions, purchases, sales and
// local activity.
// GET /wallet/history?status=all|completed|pending|failed
func (h *Handler) History(c *gin.Context) {
	wallet := walletAddress(c)
	if wallet == "" {
		c.Redirect(http.StatusFound, "/wallet")
		return
	}
	ctx := c.Request.Context()

	filter := c.DefaultQuery("status", "all")
	valid := false
	for _, f := range service.TransactionFilters {
		if f == filter {
			valid = true
		}
	}
	if !valid {
		filter = "all"
	}

	data := gin.H{"Title": "Transaction History", "Filter": filter}

	txs, err := h.client.GetUserTransactions(ctx, wallet, "")
	if err != nil {
		data["Error"] = format.ErrorMessage(err)
		data["Retry"] = c.Request.URL.RequestURI()
		h.render(c, statusFor(err), "history.html", data)
		return
	}

	tabs := make([]FilterTab, 0, len(service.TransactionFilters))
	for _, f := range service.TransactionFilters {
		tabs = append(tabs, FilterTab{Name: f, Count: len(service.FilterTransactions(txs.Transactions, f)), Active: f == filter})
	}

	var rows []HistoryRow
	for _, tx := range service.FilterTransactions(txs.Transactions, filter) {
		rows = append(rows, HistoryRow{
			Transaction:  tx,
			Kind:         service.TransactionKind(tx, wallet),
			Counterparty: service.Counterparty(tx, wallet),
			Banner:       service.BannerFor(&tx),
		})
	}
	data["Tabs"] = tabs
	data["Rows"] = rows

	if purchases, err := h.client.GetUserPurchases(ctx, wallet); err == nil {
		data["Purchases"] = purchases
	} else {
		h.logger.Warn("Failed to load purchases", zap.Error(err))
	}
	if sales, err := h.client.GetUserSales(ctx, wallet); err == nil {
		data["Sales"] = sales
	} else {
		h.logger.Warn("Failed to load sales", zap.Error(err))
	}
	if activity, err := h.activity.ListByWallet(ctx, wallet, walletActivityLimit); err == nil {
		data["Activity"] = activity
	} else {
		h.logger.Warn("Failed to load wallet activity", zap.Error(err))
	}

	h.render(c, http.StatusOK, "history.html", data)
}

// Transaction shows one transaction with its escrow tracker.
// GET /transaction/:tx_id
func (h *Handler) Transaction(c *gin.Context) {
	detail, err := h.client.GetTransaction(c.Request.Context(), c.Param("tx_id"))
	if err != nil {
		h.renderError(c, err, "/wallet/history")
		return
	}
	tx := detail.Transaction
	data := gin.H{
		"Title":   "Transaction",
		"Detail":  detail,
		"Tracker": service.BuildTracker(service.TrackerStepFor(tx)),
		"Escrow":  service.EscrowFor(tx),
		"Banner":  service.BannerFor(tx),
	}
	if tx != nil {
		data["Cancellable"] = tx.Status == models.StatusPending && strings.EqualFold(tx.Buyer, walletAddress(c))
	}
	h.render(c, http.StatusOK, "transaction.html", data)
}

// CancelTransaction cancels a pending transaction.
// POST /transaction/:tx_id/cancel
func (h *Handler) CancelTransaction(c *gin.Context) {
	txID := c.Param("tx_id")
	ctx := c.Request.Context()

	result, err := h.client.CancelTransaction(ctx, txID, strings.TrimSpace(c.PostForm("reason")))
	if err != nil {
		h.renderError(c, err, "/transaction/"+txID)
		return
	}

	if tx := result.Transaction; tx != nil {
		h.recordActivity(ctx, walletAddress(c), models.ActivityCancel, tx.CID, tx.TxID, decimal.NewFromFloat(tx.Amount))
	}
	h.logger.Info("Transaction cancelled", zap.String("tx_id", txID))
	c.Redirect(http.StatusSeeOther, "/transaction/"+txID)
}

func (h *Handler) renderWallet(c *gin.Context, status int, data gin.H) {
	data["Title"] = "Wallet"
	data["Network"] = service.WalletNetwork
	data["DemoAddresses"] = service.DemoAddresses

	if wallet := walletAddress(c); wallet != "" {
		if checksum, err := format.ChecksumAddress(wallet); err == nil {
			data["Checksum"] = checksum
		}
		if activity, err := h.activity.ListByWallet(c.Request.Context(), wallet, 5); err == nil {
			data["Activity"] = activity
		}
	}
	h.render(c, status, "wallet.html", data)
}
