package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "10.00")

	_, err := f.svc.Deposit(ctx, user.ID, dec("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.svc.Deposit(ctx, user.ID, dec("-5"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.svc.Deposit(ctx, "missing", dec("5"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	tx, err := f.svc.Deposit(ctx, user.ID, dec("150.255"))
	require.NoError(t, err)
	assert.Equal(t, "150.26", tx.Amount.StringFixed(2))
	assert.Equal(t, "PIX deposit", tx.Description)
	assert.Equal(t, models.TxStatusCompleted, tx.Status)
	assert.Equal(t, "160.26", f.user(t, user.ID).Balance.StringFixed(2))
}

func TestRequestWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "100.00")

	_, err := f.svc.RequestWithdrawal(ctx, user.ID, dec("10"), "  ")
	assert.ErrorIs(t, err, ErrPixKeyRequired)

	_, err = f.svc.RequestWithdrawal(ctx, user.ID, dec("100.01"), "ana@example.com")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, f.transactions(t, user.ID, models.TxTypeWithdrawal))

	tx, err := f.svc.RequestWithdrawal(ctx, user.ID, dec("40"), "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPending, tx.Status)
	assert.Equal(t, "-40.00", tx.Amount.StringFixed(2))
	assert.Equal(t, "PIX withdrawal to a**@example.com", tx.Description)
	assert.NotContains(t, tx.PayoutDestination, "example")

	key, err := f.svc.PayoutDestination(tx)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", key)

	assert.Equal(t, "60.00", f.user(t, user.ID).Balance.StringFixed(2))
}

func TestConcurrentDepositsAndWithdrawalsKeepEveryUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "1000.00")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.Deposit(ctx, user.ID, dec("10.00"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.svc.RequestWithdrawal(ctx, user.ID, dec("5.00"), "+5511999998888")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "1250.00", f.user(t, user.ID).Balance.StringFixed(2))
	assert.Len(t, f.transactions(t, user.ID, models.TxTypeDeposit), 50)
	assert.Len(t, f.transactions(t, user.ID, models.TxTypeWithdrawal), 50)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "100.00")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.RequestWithdrawal(ctx, user.ID, dec("10"), "key-123456"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInsufficientBalance)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	assert.True(t, f.user(t, user.ID).Balance.IsZero())
}

func TestAdjustBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "100.00")

	_, err := f.svc.AdjustBalance(ctx, user.ID, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.svc.AdjustBalance(ctx, "missing", dec("1"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := f.svc.AdjustBalance(ctx, user.ID, dec("250"))
	require.NoError(t, err)
	assert.Equal(t, "250.00", got.Balance.StringFixed(2))
	deposits := f.transactions(t, user.ID, models.TxTypeDeposit)
	require.Len(t, deposits, 1)
	assert.Equal(t, "150.00", deposits[0].Amount.StringFixed(2))

	_, err = f.svc.AdjustBalance(ctx, user.ID, dec("200"))
	require.NoError(t, err)
	withdrawals := f.transactions(t, user.ID, models.TxTypeWithdrawal)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, "-50.00", withdrawals[0].Amount.StringFixed(2))

	_, err = f.svc.AdjustBalance(ctx, user.ID, dec("200"))
	require.NoError(t, err)
	all, err := f.svc.ListTransactions(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2, "zero delta records nothing")
	assert.Equal(t, "200.00", f.user(t, user.ID).Balance.StringFixed(2))
}
