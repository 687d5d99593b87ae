package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"frontend/internal/format"
	"frontend/internal/market_client"
	"frontend/internal/middleware"
	"frontend/internal/models"
	"frontend/internal/notify"
	"frontend/internal/repository"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deps are the collaborators the page handlers need.
type Deps struct {
	Client       *market_client.Client
	Catalog      *service.Catalog
	Bidding      service.BiddingService
	Wallets      service.WalletService
	Activity     repository.ActivityRepository
	Notifier     notify.Notifier
	PaymentDelay time.Duration
	Currency     string
	CookieName   string
	SessionTTL   time.Duration
	Logger       *zap.Logger
}

// Handler serves the marketplace pages.
type Handler struct {
	client       *market_client.Client
	catalog      *service.Catalog
	bidding      service.BiddingService
	wallets      service.WalletService
	activity     repository.ActivityRepository
	notifier     notify.Notifier
	paymentDelay time.Duration
	currency     string
	cookieName   string
	sessionTTL   time.Duration
	logger       *zap.Logger
}

func New(d Deps) *Handler {
	if d.Notifier == nil {
		d.Notifier = notify.NopNotifier{}
	}
	if d.Currency == "" {
		d.Currency = "MATIC"
	}
	return &Handler{
		client:       d.Client,
		catalog:      d.Catalog,
		bidding:      d.Bidding,
		wallets:      d.Wallets,
		activity:     d.Activity,
		notifier:     d.Notifier,
		paymentDelay: d.PaymentDelay,
		currency:     d.Currency,
		cookieName:   d.CookieName,
		sessionTTL:   d.SessionTTL,
		logger:       d.Logger,
	}
}

// RegisterRoutes mounts every page on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	r.GET("/health/backend", h.BackendHealth)

	r.GET("/", h.Home)

	r.GET("/generate", h.GenerateForm)
	r.POST("/generate", h.Generate)
	r.GET("/generate/:cid/download", h.DownloadGenerated)
	r.GET("/download/:cid", h.Download)

	r.GET("/sell", h.SellForm)
	r.POST("/sell", h.Sell)

	r.GET("/marketplace", h.Marketplace)
	r.GET("/dataset/:cid", h.Dataset)
	r.POST("/dataset/:cid/bids", h.PlaceBid)

	r.GET("/purchase/:cid", h.Purchase)
	r.POST("/purchase/:cid/pay", h.Pay)

	r.GET("/wallet", h.Wallet)
	r.POST("/wallet/connect", h.ConnectWallet)
	r.POST("/wallet/disconnect", h.DisconnectWallet)
	r.GET("/wallet/history", h.History)

	r.GET("/transaction/:tx_id", h.Transaction)
	r.POST("/transaction/:tx_id/cancel", h.CancelTransaction)
}

// statusFor maps an error to the status of the page that reports it.
// Upstream 4xx statuses pass through; 5xx and network failures are 502.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if service.IsValidation(err) {
		return http.StatusUnprocessableEntity
	}
	var apiErr *market_client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 0, apiErr.Status >= 500:
			return http.StatusBadGateway
		case apiErr.Status >= 400:
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, market_client.ErrNoData) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// render executes a page template with the shared layout data merged in.
func (h *Handler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Wallet"] = middleware.GetWallet(c)
	data["Balance"] = service.MockBalance
	data["Currency"] = h.currency
	data["RequestID"] = middleware.GetRequestID(c)
	data["Path"] = c.Request.URL.Path
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Synthetic Data Market"
	}
	c.HTML(status, page, data)
}

// renderError shows the error page with a link back to retry.
func (h *Handler) renderError(c *gin.Context, err error, retry string) {
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error("Page failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	h.render(c, status, "error.html", gin.H{
		"Title":   "Something went wrong",
		"Message": format.ErrorMessage(err),
		"Network": format.IsNetworkError(err),
		"Retry":   retry,
	})
}

// walletAddress is the connected wallet's address, or "".
func walletAddress(c *gin.Context) string {
	if w := middleware.GetWallet(c); w != nil {
		return w.Address
	}
	return ""
}

// recordActivity stores a wallet history entry. Failures are logged only.
func (h *Handler) recordActivity(ctx context.Context, wallet string, action models.ActivityAction, cid, txID string, amount decimal.Decimal) {
	if wallet == "" || h.activity == nil {
		return
	}
	err := h.activity.Record(ctx, &models.WalletActivity{
		Wallet: wallet,
		Action: action,
		CID:    cid,
		TxID:   txID,
		Amount: amount,
		At:     time.Now().UTC(),
	})
	if err != nil {
		h.logger.Warn("Failed to record wallet activity", zap.String("action", string(action)), zap.Error(err))
	}
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target, fallback string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.Contains(target, "\\") {
		return target
	}
	return fallback
}
