package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingActivity is a cosmetic market event shown on the dashboard
type TradingActivity struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Action     string          `json:"action"`
	Percentage decimal.Decimal `json:"percentage"`
	CreatedAt  time.Time       `json:"created_at"`
}
