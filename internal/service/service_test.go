package service

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu      sync.Mutex
	matured []string
	early   []string
}

func (n *recordingNotifier) InvestmentMatured(_ context.Context, _ *models.User, inv *models.UserInvestment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matured = append(n.matured, inv.ID)
	return nil
}

func (n *recordingNotifier) EarlyWithdrawal(_ context.Context, _ *models.User, inv *models.UserInvestment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.early = append(n.early, inv.ID)
	return nil
}

// failingStore injects errors into an otherwise working in-memory store
type failingStore struct {
	*storage.Memory
	failTxFor      string
	failTotalsFor  string
	failAccrualFor string
	listUsersErr   error
}

func (f *failingStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if f.listUsersErr != nil {
		return nil, f.listUsersErr
	}
	return f.Memory.ListUsers(ctx)
}

func (f *failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Ledger) error) error {
	return f.Memory.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		return fn(ctx, &failingLedger{
			Ledger:         tx,
			failTxFor:      f.failTxFor,
			failTotalsFor:  f.failTotalsFor,
			failAccrualFor: f.failAccrualFor,
		})
	})
}

type failingLedger struct {
	storage.Ledger
	failTxFor      string
	failTotalsFor  string
	failAccrualFor string
}

func (l *failingLedger) AddTotals(ctx context.Context, userID string, invested, earnings decimal.Decimal) error {
	if l.failTotalsFor != "" && userID == l.failTotalsFor {
		return errInjected
	}
	return l.Ledger.AddTotals(ctx, userID, invested, earnings)
}

func (l *failingLedger) ApplyAccrual(ctx context.Context, id string, currentValue, dailyEarnings decimal.Decimal, day time.Time) (bool, error) {
	if l.failAccrualFor != "" && id == l.failAccrualFor {
		return false, errInjected
	}
	return l.Ledger.ApplyAccrual(ctx, id, currentValue, dailyEarnings, day)
}

func (l *failingLedger) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if l.failTxFor != "" && tx.UserID == l.failTxFor {
		return errInjected
	}
	return l.Ledger.CreateTransaction(ctx, tx)
}

// cancellingStore cancels a context once a given number of units of work
// have committed
type cancellingStore struct {
	*storage.Memory
	mu        sync.Mutex
	remaining int
	cancel    context.CancelFunc
}

func (c *cancellingStore) cancelAfter(commits int, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = commits
	c.cancel = cancel
}

func (c *cancellingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Ledger) error) error {
	err := c.Memory.RunInTx(ctx, fn)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && c.cancel != nil {
		c.remaining--
		if c.remaining <= 0 {
			c.cancel()
			c.cancel = nil
		}
	}
	return err
}

type fixture struct {
	svc      *Service
	mem      *storage.Memory
	clock    *stubClock
	notifier *recordingNotifier
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		AdminEmail:      "admin@example.com",
		EncryptionKey:   "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6",
		EarningsWorkers: 4,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore wraps the fixture's memory store when wrap is non-nil
func newFixtureWithStore(t *testing.T, wrap func(*storage.Memory) storage.Store) *fixture {
	t.Helper()
	mem := storage.NewMemory()
	var store storage.Store = mem
	if wrap != nil {
		store = wrap(mem)
	}
	clock := &stubClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	svc := NewService(store, testLogger(), testConfig(),
		WithClock(clock.Now),
		WithNotifier(notifier),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	return &fixture{svc: svc, mem: mem, clock: clock, notifier: notifier}
}

func (f *fixture) seedUser(t *testing.T, balance string) *models.User {
	t.Helper()
	user := &models.User{
		Email:         uuid.NewString() + "@example.com",
		PasswordHash:  "x",
		Balance:       decimal.RequireFromString(balance),
		TotalInvested: decimal.Zero,
		TotalEarnings: decimal.Zero,
	}
	require.NoError(t, f.mem.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) seedPlan(t *testing.T, rate string, days int) *models.InvestmentPlan {
	t.Helper()
	plan := &models.InvestmentPlan{
		Name:          "Starter",
		DurationDays:  days,
		DailyRate:     decimal.RequireFromString(rate),
		MinInvestment: decimal.NewFromInt(100),
		MaxInvestment: decimal.NewFromInt(5000),
		IsActive:      true,
	}
	require.NoError(t, f.mem.CreatePlan(context.Background(), plan))
	return plan
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := f.mem.GetUser(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (f *fixture) investment(t *testing.T, id string) *models.UserInvestment {
	t.Helper()
	inv, err := f.mem.GetInvestment(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) transactions(t *testing.T, userID, txType string) []models.Transaction {
	t.Helper()
	all, err := f.mem.ListUserTransactions(context.Background(), userID, 0)
	require.NoError(t, err)
	var out []models.Transaction
	for _, tx := range all {
		if tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}

// requireTotalsMatchLedger checks a user's totalEarnings against the sum of
// their earnings entries
func (f *fixture) requireTotalsMatchLedger(t *testing.T, userID string) {
	t.Helper()
	sum := decimal.Zero
	for _, tx := range f.transactions(t, userID, models.TxTypeEarnings) {
		sum = sum.Add(tx.Amount)
	}
	total := f.user(t, userID).TotalEarnings
	require.Truef(t, sum.Equal(total), "earnings entries sum to %s, totalEarnings is %s",
		sum.StringFixed(2), total.StringFixed(2))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
