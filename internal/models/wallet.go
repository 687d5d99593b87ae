package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

// Bid is a local offer on a listing, kept in the bid book.
type Bid struct {
	ID       string          `db:"id" json:"id"`
	CID      string          `db:"cid" json:"cid"`
	Bidder   string          `db:"bidder" json:"bidder"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	PlacedAt time.Time       `db:"placed_at" json:"placed_at"`
}

type ActivityAction string

const (
	ActivityPurchase ActivityAction = "purchase"
	ActivityBid      ActivityAction = "bid"
	ActivityCancel   ActivityAction = "cancel"
	ActivityUpload   ActivityAction = "upload"
)

// WalletActivity is one entry in a wallet's local history.
type WalletActivity struct {
	ID     int64           `db:"id" json:"id"`
	Wallet string          `db:"wallet" json:"wallet"`
	Action ActivityAction  `db:"action" json:"action"`
	CID    string          `db:"cid" json:"cid"`
	TxID   string          `db:"tx_id" json:"tx_id,omitempty"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	At     time.Time       `db:"at" json:"at"`
}

// WalletClaims defines the structure of the wallet session JWT claims.
type WalletClaims struct {
	Wallet  string `json:"wallet"`
	Network string `json:"network"`
	jwt.RegisteredClaims
}
