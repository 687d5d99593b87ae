package repository

import (
	"context"
	"strings"

	"frontend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ActivityRepository stores the local history of a wallet. Addresses are
// compared case-insensitively.
type ActivityRepository interface {
	Record(ctx context.Context, activity *models.WalletActivity) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]models.WalletActivity, error)
}

type activityRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewActivityRepository(db *sqlx.DB, logger *zap.Logger) ActivityRepository {
	return &activityRepository{db: db, logger: logger}
}

func (r *activityRepository) Record(ctx context.Context, activity *models.WalletActivity) error {
	query := r.db.Rebind(`INSERT INTO wallet_activity (wallet, action, cid, tx_id, amount, at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		strings.ToLower(activity.Wallet),
		activity.Action,
		activity.CID,
		activity.TxID,
		activity.Amount,
		activity.At.UTC(),
	).Scan(&activity.ID)
	if err != nil {
		r.logger.Error("Failed to record wallet activity", zap.String("action", string(activity.Action)), zap.Error(err))
		return err
	}
	return nil
}

// ListByWallet returns the newest entries first.
func (r *activityRepository) ListByWallet(ctx context.Context, wallet string, limit int) ([]models.WalletActivity, error) {
	if limit <= 0 {
		limit = 50
	}
	activities := []models.WalletActivity{}
	query := r.db.Rebind(`SELECT id, wallet, action, cid, tx_id, amount, at FROM wallet_activity WHERE wallet = ? ORDER BY at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &activities, query, strings.ToLower(wallet), limit); err != nil {
		return nil, err
	}
	return activities, nil
}
