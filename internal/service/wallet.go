package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/Dan9191/invest-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultTransactionLimit = 20

// Deposit credits a simulated PIX deposit
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*models.Transaction, error) {
	amount = round2(amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TxTypeDeposit,
		Amount:      amount,
		Description: "PIX deposit",
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		return s.postEntry(ctx, tx, entry, amount)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID}).Infof("Deposit: %s", amount.StringFixed(2))
	return entry, nil
}

// RequestWithdrawal debits the balance and records a pending PIX payout
func (s *Service) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, pixKey string) (*models.Transaction, error) {
	amount = round2(amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	pixKey = utils.NormalizePixKey(pixKey)
	if pixKey == "" {
		return nil, ErrPixKeyRequired
	}

	key, err := s.config.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	destination, err := utils.Encrypt(pixKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt pix key: %w", err)
	}

	entry := &models.Transaction{
		UserID:            userID,
		Type:              models.TxTypeWithdrawal,
		Amount:            amount.Neg(),
		Description:       fmt.Sprintf("PIX withdrawal to %s", utils.MaskPixKey(pixKey)),
		Status:            models.TxStatusPending,
		PayoutDestination: destination,
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		return s.postEntry(ctx, tx, entry, amount.Neg())
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID}).Infof("Withdrawal requested: %s", amount.StringFixed(2))
	return entry, nil
}

// PayoutDestination decrypts the PIX key stored on a withdrawal
func (s *Service) PayoutDestination(tx *models.Transaction) (string, error) {
	if tx.PayoutDestination == "" {
		return "", fmt.Errorf("%w: transaction has no payout destination", ErrInvalidInput)
	}
	key, err := s.config.EncryptionKeyBytes()
	if err != nil {
		return "", err
	}
	return utils.Decrypt(tx.PayoutDestination, key)
}

// AdjustBalance sets a user's balance and records the difference as a
// ledger entry
func (s *Service) AdjustBalance(ctx context.Context, userID string, newBalance decimal.Decimal) (*models.User, error) {
	newBalance = round2(newBalance)
	if newBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	var user *models.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		var err error
		user, err = tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, ErrUserNotFound)
		}
		delta := newBalance.Sub(user.Balance)
		if delta.IsZero() {
			return nil
		}
		if err := tx.SetBalance(ctx, userID, newBalance); err != nil {
			return err
		}

		txType := models.TxTypeDeposit
		if delta.IsNegative() {
			txType = models.TxTypeWithdrawal
		}
		user.Balance = newBalance
		return tx.CreateTransaction(ctx, &models.Transaction{
			UserID:      userID,
			Type:        txType,
			Amount:      delta,
			Description: "Administrative adjustment",
			Status:      models.TxStatusCompleted,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID}).Infof("Balance adjusted to %s", newBalance.StringFixed(2))
	return user, nil
}

// ListTransactions returns the user's most recent transactions
func (s *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	return s.store.ListUserTransactions(ctx, userID, limit)
}
