package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const investmentSelect = `
		SELECT ui.id, ui.user_id, ui.plan_id, ip.name, ui.amount, ui.current_value, ui.daily_earnings,
			ui.daily_rate, ui.start_date, ui.end_date, ui.last_accrued_on, ui.is_active,
			ui.was_withdrawn_early, ui.created_at, ui.updated_at
		FROM invest.user_investments ui
		JOIN invest.investment_plans ip ON ip.id = ui.plan_id`

func scanInvestment(s scanner) (*models.UserInvestment, error) {
	inv := &models.UserInvestment{}
	var lastAccrued sql.NullTime
	err := s.Scan(&inv.ID, &inv.UserID, &inv.PlanID, &inv.PlanName, &inv.Amount, &inv.CurrentValue,
		&inv.DailyEarnings, &inv.DailyRate, &inv.StartDate, &inv.EndDate, &lastAccrued, &inv.IsActive,
		&inv.WasWithdrawnEarly, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastAccrued.Valid {
		t := lastAccrued.Time.UTC()
		inv.LastAccruedOn = &t
	}
	return inv, nil
}

// CreateInvestment creates a new user investment
func (r *Repository) CreateInvestment(ctx context.Context, inv *models.UserInvestment) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	query := `
		WITH inserted AS (
			INSERT INTO invest.user_investments
				(id, user_id, plan_id, amount, current_value, daily_earnings, daily_rate,
				 start_date, end_date, is_active, was_withdrawn_early, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING plan_id, created_at, updated_at
		)
		SELECT ip.name, inserted.created_at, inserted.updated_at
		FROM inserted JOIN invest.investment_plans ip ON ip.id = inserted.plan_id`
	err := r.q.QueryRowContext(ctx, query, inv.ID, inv.UserID, inv.PlanID, inv.Amount, inv.CurrentValue,
		inv.DailyEarnings, inv.DailyRate, inv.StartDate, inv.EndDate, inv.IsActive, inv.WasWithdrawnEarly).
		Scan(&inv.PlanName, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// GetInvestment retrieves an investment by id
func (r *Repository) GetInvestment(ctx context.Context, id string) (*models.UserInvestment, error) {
	inv, err := scanInvestment(r.q.QueryRowContext(ctx, investmentSelect+` WHERE ui.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "investment")
	}
	return inv, nil
}

// GetInvestmentForUpdate retrieves an investment by id and locks its row
func (r *Repository) GetInvestmentForUpdate(ctx context.Context, id string) (*models.UserInvestment, error) {
	inv, err := scanInvestment(r.q.QueryRowContext(ctx, investmentSelect+` WHERE ui.id = $1 FOR UPDATE OF ui`, id))
	if err != nil {
		return nil, notFound(err, "investment")
	}
	return inv, nil
}

// ListUserInvestments retrieves a user's investments, newest first
func (r *Repository) ListUserInvestments(ctx context.Context, userID string, activeOnly bool) ([]models.UserInvestment, error) {
	query := investmentSelect + ` WHERE ui.user_id = $1 AND (NOT $2 OR ui.is_active) ORDER BY ui.created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []models.UserInvestment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// ApplyAccrual stores the day's accrual unless the investment is closed or
// already accrued for that day
func (r *Repository) ApplyAccrual(ctx context.Context, id string, currentValue, dailyEarnings decimal.Decimal, day time.Time) (bool, error) {
	query := `
		UPDATE invest.user_investments
		SET current_value = $2, daily_earnings = $3, last_accrued_on = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_active AND (last_accrued_on IS NULL OR last_accrued_on < $4)`
	res, err := r.q.ExecContext(ctx, query, id, currentValue, dailyEarnings, day.UTC().Format(models.DateLayout))
	if err != nil {
		return false, fmt.Errorf("failed to apply accrual: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}

// CloseInvestment deactivates an active investment
func (r *Repository) CloseInvestment(ctx context.Context, id string, withdrawnEarly bool) (bool, error) {
	query := `
		UPDATE invest.user_investments
		SET is_active = FALSE, was_withdrawn_early = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_active`
	res, err := r.q.ExecContext(ctx, query, id, withdrawnEarly)
	if err != nil {
		return false, fmt.Errorf("failed to close investment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}
