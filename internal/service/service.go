package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier informs users about lifecycle events. Delivery is best effort.
type Notifier interface {
	InvestmentMatured(ctx context.Context, user *models.User, inv *models.UserInvestment) error
	EarlyWithdrawal(ctx context.Context, user *models.User, inv *models.UserInvestment) error
}

// Service handles business logic
type Service struct {
	store    storage.Store
	log      *logrus.Logger
	config   *config.Config
	notifier Notifier
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes a Service
type Option func(*Service)

// WithNotifier sets the notifier used after maturity and early withdrawal
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source used by the trading activity generator
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// NewService initializes a new service
func NewService(store storage.Store, log *logrus.Logger, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:  store,
		log:    log,
		config: cfg,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// postEntry moves delta on the user's balance and appends the matching
// ledger entry. Must run inside RunInTx.
func (s *Service) postEntry(ctx context.Context, tx storage.Ledger, entry *models.Transaction, delta decimal.Decimal) error {
	if err := tx.IncrementBalance(ctx, entry.UserID, delta); err != nil {
		switch {
		case errors.Is(err, storage.ErrInsufficientFunds):
			return ErrInsufficientBalance
		case errors.Is(err, storage.ErrNotFound):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if entry.Status == "" {
		entry.Status = models.TxStatusCompleted
	}
	if err := tx.CreateTransaction(ctx, entry); err != nil {
		return fmt.Errorf("failed to record %s transaction: %w", entry.Type, err)
	}
	return nil
}

// notify runs a notification after commit; failures are only logged
func (s *Service) notify(userID string, send func() error) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID}).Warnf("Notification failed: %v", err)
	}
}

// mapNotFound translates storage.ErrNotFound into the domain error target
func mapNotFound(err, target error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return target
	}
	return err
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
