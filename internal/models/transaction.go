package models

import "time"

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is an escrow purchase as tracked by the backend.
type Transaction struct {
	TxID           string            `json:"tx_id"`
	CID            string            `json:"cid"`
	Buyer          string            `json:"buyer"`
	Seller         string            `json:"seller"`
	Amount         float64           `json:"amount"`
	Timestamp      string            `json:"timestamp"`
	Status         TransactionStatus `json:"status"`
	EscrowReleased bool              `json:"escrow_released"`
}

func (t Transaction) CreatedAt() time.Time {
	ts, _ := ParseTimestamp(t.Timestamp)
	return ts
}

type PurchaseRecord struct {
	Transaction
	DatasetTitle    string `json:"dataset_title"`
	DatasetCategory string `json:"dataset_category"`
	DownloadURL     string `json:"download_url"`
	CanDownload     bool   `json:"can_download"`
}

type SaleRecord struct {
	Transaction
	DatasetTitle    string `json:"dataset_title"`
	DatasetCategory string `json:"dataset_category"`
}

type PurchaseRequest struct {
	CID    string  `json:"cid"`
	Buyer  string  `json:"buyer"`
	Amount float64 `json:"amount"`
}

type PurchaseResult struct {
	Transaction         *Transaction `json:"transaction"`
	NextStep            string       `json:"next_step"`
	PaymentInstructions string       `json:"payment_instructions"`
}

type PaymentRequest struct {
	TxID          string  `json:"tx_id"`
	PaymentAmount float64 `json:"payment_amount"`
}

type PaymentResult struct {
	Transaction   *Transaction `json:"transaction"`
	DownloadURL   string       `json:"download_url"`
	AccessGranted bool         `json:"access_granted"`
}

type TransactionDetail struct {
	Transaction *Transaction `json:"transaction"`
	Dataset     *Dataset     `json:"dataset"`
}

type UserTransactions struct {
	Transactions []Transaction `json:"transactions"`
	User         string        `json:"user"`
	TotalCount   int           `json:"total_count"`
}

type DatasetTransactions struct {
	Transactions []Transaction `json:"transactions"`
	Dataset      *Dataset      `json:"dataset"`
	TotalSales   int           `json:"total_sales"`
	TotalRevenue float64       `json:"total_revenue"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type CancelResult struct {
	Transaction *Transaction `json:"transaction"`
}

type UserPurchases struct {
	Purchases  []PurchaseRecord `json:"purchases"`
	Buyer      string           `json:"buyer"`
	TotalSpent float64          `json:"total_spent"`
}

type UserSales struct {
	Sales              []SaleRecord `json:"sales"`
	Seller             string       `json:"seller"`
	TotalEarned        float64      `json:"total_earned"`
	UniqueDatasetsSold int          `json:"unique_datasets_sold"`
}
