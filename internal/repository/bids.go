package repository

import (
	"context"
	"database/sql"
	"errors"

	"frontend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type BidRepository interface {
	SaveBid(ctx context.Context, bid *models.Bid) error
	ListBids(ctx context.Context, cid string, limit int) ([]models.Bid, error)
	HighestBid(ctx context.Context, cid string) (*models.Bid, error)
}

type bidRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewBidRepository(db *sqlx.DB, logger *zap.Logger) BidRepository {
	return &bidRepository{db: db, logger: logger}
}

func (r *bidRepository) SaveBid(ctx context.Context, bid *models.Bid) error {
	query := r.db.Rebind(`INSERT INTO bids (id, cid, bidder, amount, placed_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, bid.ID, bid.CID, bid.Bidder, bid.Amount, bid.PlacedAt.UTC())
	if err != nil {
		r.logger.Error("Failed to save bid", zap.String("cid", bid.CID), zap.Error(err))
		return err
	}
	return nil
}

// ListBids returns the newest bids on cid first.
func (r *bidRepository) ListBids(ctx context.Context, cid string, limit int) ([]models.Bid, error) {
	if limit <= 0 {
		limit = 10
	}
	bids := []models.Bid{}
	query := r.db.Rebind(`SELECT id, cid, bidder, amount, placed_at FROM bids WHERE cid = ? ORDER BY placed_at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &bids, query, cid, limit); err != nil {
		return nil, err
	}
	return bids, nil
}

// HighestBid returns nil when cid has no bids.
func (r *bidRepository) HighestBid(ctx context.Context, cid string) (*models.Bid, error) {
	var bid models.Bid
	query := r.db.Rebind(`SELECT id, cid, bidder, amount, placed_at FROM bids WHERE cid = ? ORDER BY amount DESC, placed_at ASC LIMIT 1`)
	err := r.db.GetContext(ctx, &bid, query, cid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}
