package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/google/uuid"
)

const planColumns = `id, name, description, duration_days, daily_rate, min_investment, max_investment,
		is_active, created_at, updated_at`

func scanPlan(s scanner) (*models.InvestmentPlan, error) {
	plan := &models.InvestmentPlan{}
	err := s.Scan(&plan.ID, &plan.Name, &plan.Description, &plan.DurationDays, &plan.DailyRate,
		&plan.MinInvestment, &plan.MaxInvestment, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// CreatePlan creates a new investment plan
func (r *Repository) CreatePlan(ctx context.Context, plan *models.InvestmentPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	query := `
		INSERT INTO invest.investment_plans
			(id, name, description, duration_days, daily_rate, min_investment, max_investment, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, plan.ID, plan.Name, plan.Description, plan.DurationDays,
		plan.DailyRate, plan.MinInvestment, plan.MaxInvestment, plan.IsActive).
		Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// UpdatePlan updates an existing investment plan
func (r *Repository) UpdatePlan(ctx context.Context, plan *models.InvestmentPlan) error {
	query := `
		UPDATE invest.investment_plans
		SET name = $2, description = $3, duration_days = $4, daily_rate = $5,
			min_investment = $6, max_investment = $7, is_active = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, plan.ID, plan.Name, plan.Description, plan.DurationDays,
		plan.DailyRate, plan.MinInvestment, plan.MaxInvestment, plan.IsActive).
		Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return notFound(err, "plan")
	}
	return nil
}

// GetPlan retrieves a plan by id
func (r *Repository) GetPlan(ctx context.Context, id string) (*models.InvestmentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM invest.investment_plans WHERE id = $1`
	plan, err := scanPlan(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return plan, nil
}

// ListActivePlans retrieves the plans open for new investments
func (r *Repository) ListActivePlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM invest.investment_plans WHERE is_active ORDER BY created_at`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []models.InvestmentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}
