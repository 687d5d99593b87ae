package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"frontend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := NewDB(TypeSQLite, filepath.Join(t.TempDir(), "data", "test.db"), logger)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := MigrateDB(db, TypeSQLite, logger); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	// a second run must be a no-op
	if err := MigrateDB(db, TypeSQLite, logger); err != nil {
		t.Fatalf("MigrateDB again: %v", err)
	}
	return db
}

func TestNewDBRejectsUnknownType(t *testing.T) {
	if _, err := NewDB("mongo", "x", zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown database type")
	}
}

func TestBidRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBidRepository(newTestDB(t), zap.NewNop())

	highest, err := repo.HighestBid(ctx, "cid1")
	if err != nil || highest != nil {
		t.Fatalf("empty book: got %v, %v", highest, err)
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bids := []models.Bid{
		{ID: "b1", CID: "cid1", Bidder: "0xaaa", Amount: decimal.RequireFromString("10.50"), PlacedAt: base},
		{ID: "b2", CID: "cid1", Bidder: "0xbbb", Amount: decimal.RequireFromString("12.25"), PlacedAt: base.Add(time.Minute)},
		{ID: "b3", CID: "cid1", Bidder: "0xccc", Amount: decimal.RequireFromString("11"), PlacedAt: base.Add(2 * time.Minute)},
		{ID: "b4", CID: "cid2", Bidder: "0xddd", Amount: decimal.RequireFromString("99"), PlacedAt: base},
	}
	for i := range bids {
		if err := repo.SaveBid(ctx, &bids[i]); err != nil {
			t.Fatalf("SaveBid %s: %v", bids[i].ID, err)
		}
	}

	listed, err := repo.ListBids(ctx, "cid1", 2)
	if err != nil {
		t.Fatalf("ListBids: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "b3" || listed[1].ID != "b2" {
		t.Fatalf("ListBids order: got %+v", listed)
	}
	if listed[0].PlacedAt.Unix() != base.Add(2*time.Minute).Unix() {
		t.Errorf("placed_at: got %v", listed[0].PlacedAt)
	}

	highest, err = repo.HighestBid(ctx, "cid1")
	if err != nil {
		t.Fatalf("HighestBid: %v", err)
	}
	if highest == nil || highest.ID != "b2" || !highest.Amount.Equal(decimal.RequireFromString("12.25")) {
		t.Fatalf("HighestBid: got %+v", highest)
	}
}

func TestActivityRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityRepository(newTestDB(t), zap.NewNop())

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := &models.WalletActivity{
		Wallet: "0xABCdef0000000000000000000000000000000001",
		Action: models.ActivityBid,
		CID:    "cid1",
		Amount: decimal.RequireFromString("5"),
		At:     base,
	}
	second := &models.WalletActivity{
		Wallet: "0xabcdef0000000000000000000000000000000001",
		Action: models.ActivityPurchase,
		CID:    "cid2",
		TxID:   "tx9",
		Amount: decimal.RequireFromString("20.00"),
		At:     base.Add(time.Hour),
	}
	for _, a := range []*models.WalletActivity{first, second} {
		if err := repo.Record(ctx, a); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if a.ID == 0 {
			t.Error("Record should set the id")
		}
	}

	got, err := repo.ListByWallet(ctx, "0xABCDEF0000000000000000000000000000000001", 10)
	if err != nil {
		t.Fatalf("ListByWallet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByWallet: got %d entries", len(got))
	}
	if got[0].Action != models.ActivityPurchase || got[0].TxID != "tx9" || got[1].Action != models.ActivityBid {
		t.Errorf("order: got %+v", got)
	}
	if !got[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("amount: got %s", got[0].Amount)
	}

	other, err := repo.ListByWallet(ctx, "0x0000000000000000000000000000000000000002", 10)
	if err != nil || len(other) != 0 {
		t.Errorf("other wallet: got %v, %v", other, err)
	}
}
