package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvestmentDebitsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "5000.00")
	plan := f.seedPlan(t, "0.025", 30)

	inv, err := f.svc.CreateInvestment(ctx, user.ID, plan.ID, dec("1000"))
	require.NoError(t, err)

	assert.True(t, inv.IsActive)
	assert.Equal(t, "1000.00", inv.CurrentValue.StringFixed(2))
	assert.True(t, inv.DailyRate.Equal(plan.DailyRate))
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), inv.EndDate)
	assert.Equal(t, "Starter", inv.PlanName)

	got := f.user(t, user.ID)
	assert.Equal(t, "4000.00", got.Balance.StringFixed(2))
	assert.Equal(t, "1000.00", got.TotalInvested.StringFixed(2))

	txs := f.transactions(t, user.ID, models.TxTypeInvestment)
	require.Len(t, txs, 1)
	assert.Equal(t, "-1000.00", txs[0].Amount.StringFixed(2))
	assert.Equal(t, inv.ID, txs[0].Reference)
	assert.Equal(t, models.TxStatusCompleted, txs[0].Status)
}

func TestCreateInvestmentBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		amount  string
		wantErr error
	}{
		{"amount equal to minimum", "5000", "100", nil},
		{"amount equal to maximum", "5000", "5000", nil},
		{"amount equal to balance", "250", "250", nil},
		{"below minimum", "5000", "99.99", ErrBelowMinimum},
		{"above maximum", "9000", "5000.01", ErrAboveMaximum},
		{"above balance", "499.99", "500", ErrInsufficientBalance},
		{"zero amount", "5000", "0", ErrBelowMinimum},
		{"trailing zeros are fine", "5000", "150.500", nil},
		{"sub-cent amount rounding up to minimum", "5000", "99.995", ErrInvalidAmount},
		{"sub-cent amount just above maximum", "9000", "5000.004", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user := f.seedUser(t, tt.balance)
			plan := f.seedPlan(t, "0.025", 30)

			_, err := f.svc.CreateInvestment(context.Background(), user.ID, plan.ID, dec(tt.amount))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, f.user(t, user.ID).Balance.Equal(dec(tt.balance)))
			assert.Empty(t, f.transactions(t, user.ID, models.TxTypeInvestment))
		})
	}
}

func TestCreateInvestmentLookupErrorsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.seedPlan(t, "0.025", 30)
	poor := f.seedUser(t, "0")

	_, err := f.svc.CreateInvestment(ctx, "missing", "missing", dec("1"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.CreateInvestment(ctx, poor.ID, "missing", dec("1"))
	assert.ErrorIs(t, err, ErrPlanNotFound)

	// minimum is checked before balance
	_, err = f.svc.CreateInvestment(ctx, poor.ID, plan.ID, dec("1"))
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestCreateInvestmentRollsBackWhenLedgerWriteFails(t *testing.T) {
	var fs *failingStore
	f := newFixtureWithStore(t, func(m *storage.Memory) storage.Store {
		fs = &failingStore{Memory: m}
		return fs
	})
	user := f.seedUser(t, "5000")
	plan := f.seedPlan(t, "0.025", 30)
	fs.failTxFor = user.ID

	_, err := f.svc.CreateInvestment(context.Background(), user.ID, plan.ID, dec("1000"))
	require.ErrorIs(t, err, errInjected)

	got := f.user(t, user.ID)
	assert.Equal(t, "5000.00", got.Balance.StringFixed(2))
	assert.True(t, got.TotalInvested.IsZero())

	investments, err := f.mem.ListUserInvestments(context.Background(), user.ID, false)
	require.NoError(t, err)
	assert.Empty(t, investments)
}

func TestEarlyWithdrawalReturnsPrincipalOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "5000")
	plan := f.seedPlan(t, "0.025", 30)
	inv, err := f.svc.CreateInvestment(ctx, user.ID, plan.ID, dec("1000"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.RunDailyEarnings(ctx)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}
	require.True(t, f.investment(t, inv.ID).CurrentValue.GreaterThan(inv.Amount))

	result, err := f.svc.EarlyWithdrawal(ctx, user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", result.Amount.StringFixed(2))
	assert.NotEmpty(t, result.Message)

	closed := f.investment(t, inv.ID)
	assert.False(t, closed.IsActive)
	assert.True(t, closed.WasWithdrawnEarly)

	got := f.user(t, user.ID)
	assert.Equal(t, "5000.00", got.Balance.StringFixed(2))
	assert.Equal(t, "1000.00", got.TotalInvested.StringFixed(2))

	txs := f.transactions(t, user.ID, models.TxTypeEarlyWithdrawal)
	require.Len(t, txs, 1)
	assert.Equal(t, "1000.00", txs[0].Amount.StringFixed(2))
	assert.Contains(t, txs[0].Description, "forfeited")
	assert.Equal(t, []string{inv.ID}, f.notifier.early)
}

func TestEarlyWithdrawalOnInactiveInvestment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "5000")
	plan := f.seedPlan(t, "0.025", 30)
	inv, err := f.svc.CreateInvestment(ctx, user.ID, plan.ID, dec("1000"))
	require.NoError(t, err)

	_, err = f.svc.EarlyWithdrawal(ctx, user.ID, inv.ID)
	require.NoError(t, err)
	balance := f.user(t, user.ID).Balance

	_, err = f.svc.EarlyWithdrawal(ctx, user.ID, inv.ID)
	require.ErrorIs(t, err, ErrNotActive)
	assert.True(t, f.user(t, user.ID).Balance.Equal(balance))
	assert.Len(t, f.transactions(t, user.ID, models.TxTypeEarlyWithdrawal), 1)
}

func TestEarlyWithdrawalLookupErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "5000")
	other := f.seedUser(t, "5000")
	plan := f.seedPlan(t, "0.025", 30)
	inv, err := f.svc.CreateInvestment(ctx, owner.ID, plan.ID, dec("1000"))
	require.NoError(t, err)

	_, err = f.svc.EarlyWithdrawal(ctx, "missing", inv.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.EarlyWithdrawal(ctx, owner.ID, "missing")
	assert.ErrorIs(t, err, ErrInvestmentNotFound)

	_, err = f.svc.EarlyWithdrawal(ctx, other.ID, inv.ID)
	assert.ErrorIs(t, err, ErrNotOwnedByUser)
	assert.True(t, f.investment(t, inv.ID).IsActive)
}

func TestEarlyWithdrawalRacingMaturityReleasesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "5000")
	plan := f.seedPlan(t, "0.025", 1)
	inv, err := f.svc.CreateInvestment(ctx, user.ID, plan.ID, dec("1000"))
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)

	var (
		wg          sync.WaitGroup
		withdrawErr error
		run         *models.EarningsRun
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, withdrawErr = f.svc.EarlyWithdrawal(ctx, user.ID, inv.ID)
	}()
	go func() {
		defer wg.Done()
		var err error
		run, err = f.svc.RunDailyEarnings(ctx)
		assert.NoError(t, err)
	}()
	wg.Wait()

	balance := f.user(t, user.ID).Balance.StringFixed(2)
	if withdrawErr == nil {
		assert.Equal(t, "5000.00", balance)
		assert.Equal(t, 0, run.InvestmentsMatured)
		assert.Empty(t, f.transactions(t, user.ID, models.TxTypeInvestmentCompletion))
	} else {
		require.ErrorIs(t, withdrawErr, ErrNotActive)
		assert.Equal(t, "5000.00", balance)
		assert.Equal(t, 1, run.InvestmentsMatured)
		assert.Empty(t, f.transactions(t, user.ID, models.TxTypeEarlyWithdrawal))
	}
	assert.False(t, f.investment(t, inv.ID).IsActive)
}
