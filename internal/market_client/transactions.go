package market_client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"frontend/internal/models"

	"go.uber.org/zap"
)

// InitiatePurchase handles POST /api/purchase.
func (c *Client) InitiatePurchase(ctx context.Context, cid, buyer string, amount float64) (*models.PurchaseResult, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/purchase", models.PurchaseRequest{
		CID:    cid,
		Buyer:  buyer,
		Amount: amount,
	})
	if err != nil {
		return nil, err
	}
	result, err := getData[models.PurchaseResult](c, req)
	if err != nil {
		return nil, err
	}
	if result.Transaction != nil {
		c.logger.Info("Purchase initiated", zap.String("tx_id", result.Transaction.TxID), zap.String("cid", cid))
	}
	return result, nil
}

// CompletePayment handles POST /api/pay.
func (c *Client) CompletePayment(ctx context.Context, txID string, amount float64) (*models.PaymentResult, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/pay", models.PaymentRequest{
		TxID:          txID,
		PaymentAmount: amount,
	})
	if err != nil {
		return nil, err
	}
	result, err := getData[models.PaymentResult](c, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Payment submitted", zap.String("tx_id", txID), zap.Bool("access_granted", result.AccessGranted))
	return result, nil
}

// GetTransaction handles GET /api/transaction/{tx_id}.
func (c *Client) GetTransaction(ctx context.Context, txID string) (*models.TransactionDetail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/transaction/"+segment(txID), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.TransactionDetail](c, req)
}

// GetUserTransactions handles GET /api/transactions/user/{user}. An empty
// status returns every transaction.
func (c *Client) GetUserTransactions(ctx context.Context, user, status string) (*models.UserTransactions, error) {
	query := url.Values{}
	setString(query, "status", status)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/transactions/user/"+segment(user), query, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.UserTransactions](c, req)
}

// GetDatasetTransactions handles GET /api/transactions/dataset/{cid}.
func (c *Client) GetDatasetTransactions(ctx context.Context, cid string) (*models.DatasetTransactions, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/transactions/dataset/"+segment(cid), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.DatasetTransactions](c, req)
}

// CancelTransaction handles POST /api/transaction/{tx_id}/cancel.
func (c *Client) CancelTransaction(ctx context.Context, txID, reason string) (*models.CancelResult, error) {
	path := fmt.Sprintf("/api/transaction/%s/cancel", segment(txID))
	req, err := c.newJSONRequest(ctx, http.MethodPost, path, models.CancelRequest{Reason: reason})
	if err != nil {
		return nil, err
	}
	result, err := getData[models.CancelResult](c, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Transaction cancelled", zap.String("tx_id", txID))
	return result, nil
}

// GetUserPurchases handles GET /api/purchases/{buyer}.
func (c *Client) GetUserPurchases(ctx context.Context, buyer string) (*models.UserPurchases, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/purchases/"+segment(buyer), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.UserPurchases](c, req)
}

// GetUserSales handles GET /api/sales/{seller}.
func (c *Client) GetUserSales(ctx context.Context, seller string) (*models.UserSales, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/sales/"+segment(seller), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.UserSales](c, req)
}
