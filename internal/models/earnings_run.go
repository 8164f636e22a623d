package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EarningsRun records one invocation of the daily earnings batch
type EarningsRun struct {
	ID                 string          `json:"id"`
	RunDate            time.Time       `json:"run_date"`
	StartedAt          time.Time       `json:"started_at"`
	FinishedAt         *time.Time      `json:"finished_at,omitempty"`
	UsersProcessed     int             `json:"users_processed"`
	InvestmentsAccrued int             `json:"investments_accrued"`
	InvestmentsMatured int             `json:"investments_matured"`
	InvestmentsSkipped int             `json:"investments_skipped"`
	Failures           int             `json:"failures"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
}
