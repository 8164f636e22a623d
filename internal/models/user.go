package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a platform user together with the cached projection of their ledger
type User struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	PasswordHash  string          `json:"-"` // Not serialized
	Balance       decimal.Decimal `json:"balance"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	IsAdmin       bool            `json:"is_admin"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
