package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserInvestment is one instantiation of a plan for one user.
//
// Exactly one state holds at any time: active (IsActive), matured
// (!IsActive && !WasWithdrawnEarly) or withdrawn early (!IsActive && WasWithdrawnEarly).
type UserInvestment struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	PlanID            string          `json:"plan_id"`
	PlanName          string          `json:"plan_name"`
	Amount            decimal.Decimal `json:"amount"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	DailyEarnings     decimal.Decimal `json:"daily_earnings"`
	DailyRate         decimal.Decimal `json:"daily_rate"` // Snapshot of the plan rate at creation
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	LastAccruedOn     *time.Time      `json:"last_accrued_on,omitempty"`
	IsActive          bool            `json:"is_active"`
	WasWithdrawnEarly bool            `json:"was_withdrawn_early"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Matured reports whether the investment reached its end date at the given instant
func (i *UserInvestment) Matured(now time.Time) bool {
	return !now.Before(i.EndDate)
}

// AccruedOn reports whether earnings were already applied for the given calendar day
func (i *UserInvestment) AccruedOn(day time.Time) bool {
	if i.LastAccruedOn == nil {
		return false
	}
	return i.LastAccruedOn.UTC().Format(DateLayout) >= day.UTC().Format(DateLayout)
}

// DateLayout is the calendar-day format used for accrual dates
const DateLayout = "2006-01-02"
