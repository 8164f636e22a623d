package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TxTypeDeposit              = "deposit"
	TxTypeWithdrawal           = "withdrawal"
	TxTypeInvestment           = "investment"
	TxTypeEarnings             = "earnings"
	TxTypeEarlyWithdrawal      = "early_withdrawal"
	TxTypeInvestmentCompletion = "investment_completion"
)

// Transaction statuses
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction is an append-only ledger entry. Amount is negative for outflows
// from the user's perspective.
type Transaction struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Status            string          `json:"status"`
	Reference         string          `json:"reference,omitempty"` // UserInvestment id
	PayoutDestination string          `json:"-"`                   // Encrypted PIX key
	CreatedAt         time.Time       `json:"created_at"`
}
