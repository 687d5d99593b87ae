package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"frontend/internal/models"
	"frontend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	bidIncrement = decimal.RequireFromString("1.05")
	// GasFee is the flat network fee added to a bid total.
	GasFee = decimal.RequireFromString("0.002")
)

// MinimumBid is 5% above the larger of the listing price and the highest bid.
func MinimumBid(price, highest decimal.Decimal) decimal.Decimal {
	return decimal.Max(price, highest).Mul(bidIncrement).Round(2)
}

// QuickBids are the +5%, +10% and +15% shortcuts over price.
func QuickBids(price decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, 3)
	for _, pct := range []int64{5, 10, 15} {
		factor := decimal.NewFromInt(100 + pct).Div(decimal.NewFromInt(100))
		out = append(out, price.Mul(factor).Round(2))
	}
	return out
}

// BidTotal is what the bidder pays including GasFee.
func BidTotal(amount decimal.Decimal) decimal.Decimal {
	return amount.Add(GasFee)
}

// BidBook summarises the bidding state of one listing.
type BidBook struct {
	Price   decimal.Decimal
	Highest decimal.Decimal
	Minimum decimal.Decimal
	Quick   []decimal.Decimal
	Recent  []models.Bid
}

type BiddingService interface {
	PlaceBid(ctx context.Context, dataset *models.Dataset, bidder string, amount decimal.Decimal) (*models.Bid, error)
	RecentBids(ctx context.Context, cid string, limit int) ([]models.Bid, error)
	Book(ctx context.Context, dataset *models.Dataset, limit int) (*BidBook, error)
}

type biddingService struct {
	bids     repository.BidRepository
	activity repository.ActivityRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewBiddingService(bids repository.BidRepository, activity repository.ActivityRepository, logger *zap.Logger) BiddingService {
	return &biddingService{
		bids:     bids,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *biddingService) minimumFor(ctx context.Context, dataset *models.Dataset) (decimal.Decimal, decimal.Decimal, error) {
	price := decimal.NewFromFloat(dataset.Price)
	highest := decimal.Zero
	top, err := s.bids.HighestBid(ctx, dataset.CID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to load highest bid: %w", err)
	}
	if top != nil {
		highest = top.Amount
	}
	return MinimumBid(price, highest), highest, nil
}

// PlaceBid validates and stores a bid on dataset.
func (s *biddingService) PlaceBid(ctx context.Context, dataset *models.Dataset, bidder string, amount decimal.Decimal) (*models.Bid, error) {
	bidder = strings.TrimSpace(bidder)
	if bidder == "" {
		return nil, &ValidationError{Field: "bidder", Message: "Please connect a wallet to bid", Err: ErrBidderRequired}
	}

	minimum, _, err := s.minimumFor(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(minimum) {
		return nil, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Bid must be at least %s MATIC", minimum.StringFixed(2)),
			Err:     ErrBidTooLow,
		}
	}

	bid := &models.Bid{
		ID:       uuid.NewString(),
		CID:      dataset.CID,
		Bidder:   bidder,
		Amount:   amount.Round(2),
		PlacedAt: s.now().UTC(),
	}
	if err := s.bids.SaveBid(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to save bid: %w", err)
	}

	if err := s.activity.Record(ctx, &models.WalletActivity{
		Wallet: bidder,
		Action: models.ActivityBid,
		CID:    dataset.CID,
		Amount: bid.Amount,
		At:     bid.PlacedAt,
	}); err != nil {
		s.logger.Warn("Failed to record bid activity", zap.String("cid", dataset.CID), zap.Error(err))
	}

	s.logger.Info("Bid placed", zap.String("cid", dataset.CID), zap.String("amount", bid.Amount.String()))
	return bid, nil
}

func (s *biddingService) RecentBids(ctx context.Context, cid string, limit int) ([]models.Bid, error) {
	return s.bids.ListBids(ctx, cid, limit)
}

func (s *biddingService) Book(ctx context.Context, dataset *models.Dataset, limit int) (*BidBook, error) {
	minimum, highest, err := s.minimumFor(ctx, dataset)
	if err != nil {
		return nil, err
	}
	recent, err := s.bids.ListBids(ctx, dataset.CID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	price := decimal.NewFromFloat(dataset.Price)
	if highest.IsZero() {
		highest = price
	}
	return &BidBook{
		Price:   price,
		Highest: highest,
		Minimum: minimum,
		Quick:   QuickBids(price),
		Recent:  recent,
	}, nil
}
