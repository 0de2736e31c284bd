package domain

import "github.com/shopspring/decimal"

// Account owns transactions. CurrentBalance is a display value; no code
// path here debits or credits it when transactions change status.
type Account struct {
	AccountID      int64           `json:"account_id"`
	AccountName    string          `json:"account_name"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}
