package service

import (
	"strings"

	"frontend/internal/models"
)

// TransactionFilters are the history tabs in display order.
var TransactionFilters = []string{"all", "completed", "pending", "failed"}

// FilterTransactions keeps transactions whose status matches filter. An
// empty filter or "all" keeps everything.
func FilterTransactions(txs []models.Transaction, filter string) []models.Transaction {
	if filter == "" || filter == "all" {
		return txs
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if string(tx.Status) == filter {
			out = append(out, tx)
		}
	}
	return out
}

// TransactionKind is "Purchase" when user bought the dataset, else "Sale".
func TransactionKind(tx models.Transaction, user string) string {
	if strings.EqualFold(tx.Buyer, user) {
		return "Purchase"
	}
	return "Sale"
}

// Counterparty is the other side of tx from user's point of view.
func Counterparty(tx models.Transaction, user string) string {
	if TransactionKind(tx, user) == "Purchase" {
		return tx.Seller
	}
	return tx.Buyer
}
