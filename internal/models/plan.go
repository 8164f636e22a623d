package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentPlan is the template a user investment is instantiated from
type InvestmentPlan struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DurationDays  int             `json:"duration_days"`
	DailyRate     decimal.Decimal `json:"daily_rate"` // 0.025 = 2.5% per day
	MinInvestment decimal.Decimal `json:"min_investment"`
	MaxInvestment decimal.Decimal `json:"max_investment"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
