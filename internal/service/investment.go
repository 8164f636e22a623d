package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// WithdrawalResult is returned by EarlyWithdrawal
type WithdrawalResult struct {
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`
}

// CreateInvestment moves amount from the user's balance into a new
// investment in planID
func (s *Service) CreateInvestment(ctx context.Context, userID, planID string, amount decimal.Decimal) (*models.UserInvestment, error) {
	var inv *models.UserInvestment
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return mapNotFound(err, ErrUserNotFound)
		}
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return mapNotFound(err, ErrPlanNotFound)
		}

		if !amount.Equal(round2(amount)) {
			return fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
		}
		amount = round2(amount)
		if amount.LessThan(plan.MinInvestment) {
			return fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, plan.MinInvestment.StringFixed(2))
		}
		if amount.GreaterThan(plan.MaxInvestment) {
			return fmt.Errorf("%w: maximum is %s", ErrAboveMaximum, plan.MaxInvestment.StringFixed(2))
		}
		if amount.GreaterThan(user.Balance) {
			return ErrInsufficientBalance
		}

		start := s.now().UTC()
		inv = &models.UserInvestment{
			UserID:        userID,
			PlanID:        plan.ID,
			PlanName:      plan.Name,
			Amount:        amount,
			CurrentValue:  amount,
			DailyEarnings: decimal.Zero,
			DailyRate:     plan.DailyRate,
			StartDate:     start,
			EndDate:       start.AddDate(0, 0, plan.DurationDays),
			IsActive:      true,
		}
		if err := tx.CreateInvestment(ctx, inv); err != nil {
			return err
		}

		entry := &models.Transaction{
			UserID:      userID,
			Type:        models.TxTypeInvestment,
			Amount:      amount.Neg(),
			Description: fmt.Sprintf("Investment in plan %s", plan.Name),
			Reference:   inv.ID,
		}
		if err := s.postEntry(ctx, tx, entry, amount.Neg()); err != nil {
			return err
		}
		return tx.AddTotals(ctx, userID, amount, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "investment_id": inv.ID}).
		Infof("Investment created: %s in %s", amount.StringFixed(2), inv.PlanName)
	return inv, nil
}

// EarlyWithdrawal closes an active investment before its end date. Only the
// principal is returned; accrued earnings are forfeited.
func (s *Service) EarlyWithdrawal(ctx context.Context, userID, investmentID string) (*WithdrawalResult, error) {
	var (
		user   *models.User
		inv    *models.UserInvestment
		result *WithdrawalResult
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		var err error
		user, err = tx.GetUser(ctx, userID)
		if err != nil {
			return mapNotFound(err, ErrUserNotFound)
		}
		inv, err = tx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			return mapNotFound(err, ErrInvestmentNotFound)
		}
		if inv.UserID != userID {
			return ErrNotOwnedByUser
		}
		if !inv.IsActive {
			return ErrNotActive
		}
		plan, err := tx.GetPlan(ctx, inv.PlanID)
		if err != nil {
			return mapNotFound(err, ErrPlanNotFound)
		}

		closed, err := tx.CloseInvestment(ctx, inv.ID, true)
		if err != nil {
			return err
		}
		if !closed {
			return ErrNotActive
		}
		inv.IsActive = false
		inv.WasWithdrawnEarly = true

		entry := &models.Transaction{
			UserID:      userID,
			Type:        models.TxTypeEarlyWithdrawal,
			Amount:      inv.Amount,
			Description: fmt.Sprintf("Early withdrawal from plan %s (earnings forfeited)", plan.Name),
			Reference:   inv.ID,
		}
		if err := s.postEntry(ctx, tx, entry, inv.Amount); err != nil {
			return err
		}

		result = &WithdrawalResult{
			Amount:  inv.Amount,
			Message: "Early withdrawal completed. Earnings were forfeited.",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "investment_id": inv.ID}).
		Infof("Early withdrawal: %s returned, %s forfeited", inv.Amount.StringFixed(2), inv.CurrentValue.Sub(inv.Amount).StringFixed(2))
	s.notify(userID, func() error { return s.notifier.EarlyWithdrawal(ctx, user, inv) })
	return result, nil
}

// ListInvestments returns all of the user's investments, newest first
func (s *Service) ListInvestments(ctx context.Context, userID string) ([]models.UserInvestment, error) {
	return s.store.ListUserInvestments(ctx, userID, false)
}
