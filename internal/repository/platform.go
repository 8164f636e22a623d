package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/google/uuid"
)

// CreateTradingActivity stores a simulated trading activity
func (r *Repository) CreateTradingActivity(ctx context.Context, activity *models.TradingActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	query := `
		INSERT INTO invest.trading_activities (id, symbol, action, percentage, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q.QueryRowContext(ctx, query, activity.ID, activity.Symbol, activity.Action, activity.Percentage).
		Scan(&activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trading activity: %w", err)
	}
	return nil
}

// ListRecentTradingActivities retrieves the latest trading activities, all of
// them when limit is zero or less
func (r *Repository) ListRecentTradingActivities(ctx context.Context, limit int) ([]models.TradingActivity, error) {
	query := `
		SELECT id, symbol, action, percentage, created_at
		FROM invest.trading_activities
		ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trading activities: %w", err)
	}
	defer rows.Close()

	var activities []models.TradingActivity
	for rows.Next() {
		var a models.TradingActivity
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Action, &a.Percentage, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trading activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// GetSystemSettings retrieves the settings row, falling back to defaults
func (r *Repository) GetSystemSettings(ctx context.Context) (*models.SystemSettings, error) {
	settings := &models.SystemSettings{}
	err := r.q.QueryRowContext(ctx,
		`SELECT id, pix_gateway, updated_at FROM invest.system_settings WHERE id = $1`, models.SettingsID).
		Scan(&settings.ID, &settings.PixGateway, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// UpdateSystemSettings upserts the settings row
func (r *Repository) UpdateSystemSettings(ctx context.Context, settings *models.SystemSettings) error {
	settings.ID = models.SettingsID
	query := `
		INSERT INTO invest.system_settings (id, pix_gateway, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET pix_gateway = EXCLUDED.pix_gateway, updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at`
	if err := r.q.QueryRowContext(ctx, query, settings.ID, settings.PixGateway).Scan(&settings.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// CreateEarningsRun records the start of a daily earnings batch
func (r *Repository) CreateEarningsRun(ctx context.Context, run *models.EarningsRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	query := `
		INSERT INTO invest.earnings_runs (id, run_date, started_at)
		VALUES ($1, $2, $3)`
	if _, err := r.q.ExecContext(ctx, query, run.ID, run.RunDate.UTC().Format(models.DateLayout), run.StartedAt); err != nil {
		return fmt.Errorf("failed to create earnings run: %w", err)
	}
	return nil
}

// FinishEarningsRun stores the outcome of a daily earnings batch
func (r *Repository) FinishEarningsRun(ctx context.Context, run *models.EarningsRun) error {
	query := `
		UPDATE invest.earnings_runs
		SET finished_at = $2, users_processed = $3, investments_accrued = $4, investments_matured = $5,
			investments_skipped = $6, failures = $7, total_earnings = $8
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, run.ID, run.FinishedAt, run.UsersProcessed, run.InvestmentsAccrued,
		run.InvestmentsMatured, run.InvestmentsSkipped, run.Failures, run.TotalEarnings)
	if err != nil {
		return fmt.Errorf("failed to finish earnings run: %w", err)
	}
	return expectOneRow(res, "earnings run")
}

// GetStats aggregates platform-wide figures
func (r *Repository) GetStats(ctx context.Context) (*models.PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM invest.users),
			(SELECT COALESCE(SUM(total_invested), 0) FROM invest.users),
			(SELECT COUNT(*) FROM invest.user_investments WHERE is_active)`
	stats := &models.PlatformStats{}
	if err := r.q.QueryRowContext(ctx, query).Scan(&stats.TotalUsers, &stats.TotalVolume, &stats.ActiveInvestments); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
