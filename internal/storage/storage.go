// Package storage defines the ledger persistence contract consumed by the
// service layer. It holds no business rules.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a required entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientFunds is returned when a balance change would make the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// UserStore persists users and their balance projection.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserForUpdate locks the user row until the surrounding transaction ends.
	GetUserForUpdate(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error
	// IncrementBalance atomically adds delta to the balance. It fails with
	// ErrInsufficientFunds instead of letting the balance go negative.
	IncrementBalance(ctx context.Context, userID string, delta decimal.Decimal) error
	// AddTotals atomically adds to total invested and total earnings.
	AddTotals(ctx context.Context, userID string, invested, earnings decimal.Decimal) error
}

// PlanStore persists investment plans.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan *models.InvestmentPlan) error
	UpdatePlan(ctx context.Context, plan *models.InvestmentPlan) error
	GetPlan(ctx context.Context, id string) (*models.InvestmentPlan, error)
	ListActivePlans(ctx context.Context) ([]models.InvestmentPlan, error)
}

// InvestmentStore persists user investments.
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, inv *models.UserInvestment) error
	GetInvestment(ctx context.Context, id string) (*models.UserInvestment, error)
	// GetInvestmentForUpdate locks the investment row until the surrounding transaction ends.
	GetInvestmentForUpdate(ctx context.Context, id string) (*models.UserInvestment, error)
	// ListUserInvestments returns newest first.
	ListUserInvestments(ctx context.Context, userID string, activeOnly bool) ([]models.UserInvestment, error)
	// ApplyAccrual stores a daily accrual. It reports false when the investment
	// is no longer active or was already accrued on that day.
	ApplyAccrual(ctx context.Context, id string, currentValue, dailyEarnings decimal.Decimal, day time.Time) (bool, error)
	// CloseInvestment deactivates an active investment. It reports false when
	// the investment was already inactive.
	CloseInvestment(ctx context.Context, id string, withdrawnEarly bool) (bool, error)
}

// TransactionStore is the append-only ledger.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	// ListUserTransactions returns newest first. A limit of zero or less
	// returns every entry.
	ListUserTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}

// ActivityStore persists simulated trading activities.
type ActivityStore interface {
	CreateTradingActivity(ctx context.Context, activity *models.TradingActivity) error
	// ListRecentTradingActivities returns newest first; limit <= 0 means all.
	ListRecentTradingActivities(ctx context.Context, limit int) ([]models.TradingActivity, error)
}

// SettingsStore persists the system settings singleton.
type SettingsStore interface {
	// GetSystemSettings returns defaults when nothing was stored yet.
	GetSystemSettings(ctx context.Context) (*models.SystemSettings, error)
	UpdateSystemSettings(ctx context.Context, settings *models.SystemSettings) error
}

// EarningsRunStore records daily batch runs.
type EarningsRunStore interface {
	CreateEarningsRun(ctx context.Context, run *models.EarningsRun) error
	FinishEarningsRun(ctx context.Context, run *models.EarningsRun) error
}

// StatsStore aggregates platform figures.
type StatsStore interface {
	GetStats(ctx context.Context) (*models.PlatformStats, error)
}

// Ledger is the full data access surface.
type Ledger interface {
	UserStore
	PlanStore
	InvestmentStore
	TransactionStore
	ActivityStore
	SettingsStore
	EarningsRunStore
	StatsStore
}

// Store is a Ledger able to run units of work atomically.
type Store interface {
	Ledger
	// RunInTx runs fn against a transactional view of the store. Everything fn
	// writes is committed when it returns nil and discarded otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Ledger) error) error
}

// DefaultSettings returns the settings used before an admin saves any.
func DefaultSettings() *models.SystemSettings {
	return &models.SystemSettings{ID: models.SettingsID, PixGateway: models.GatewayEfi}
}
