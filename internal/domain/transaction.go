package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the transactions table. Amount is always
// stored positive; sign does not encode debit vs credit. Downstream query
// generation relies on that invariant.
type Transaction struct {
	TransactionID int64           `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Merchant      string          `json:"merchant,omitempty"`
	Category      string          `json:"category,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        Status          `json:"status"`
	AccountID     int64           `json:"account_id"`
}

// Confirmation is returned after a successful status transition. Merchant
// and amount are carried for display purposes only.
type Confirmation struct {
	TransactionID int64           `json:"transaction_id"`
	Status        Status          `json:"status"`
	Merchant      string          `json:"merchant,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

// StatusStats aggregates transactions sharing one status.
type StatusStats struct {
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AvgAmount   decimal.Decimal `json:"avg_amount"`
}
