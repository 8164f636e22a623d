package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE SCHEMA IF NOT EXISTS invest`,
	`CREATE TABLE IF NOT EXISTS invest.users (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		balance NUMERIC(15, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		total_invested NUMERIC(15, 2) NOT NULL DEFAULT 0,
		total_earnings NUMERIC(15, 2) NOT NULL DEFAULT 0,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS invest.investment_plans (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		duration_days INTEGER NOT NULL CHECK (duration_days > 0),
		daily_rate NUMERIC(5, 4) NOT NULL,
		min_investment NUMERIC(15, 2) NOT NULL,
		max_investment NUMERIC(15, 2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS invest.user_investments (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL REFERENCES invest.users(id),
		plan_id VARCHAR(36) NOT NULL REFERENCES invest.investment_plans(id),
		amount NUMERIC(15, 2) NOT NULL,
		current_value NUMERIC(15, 2) NOT NULL,
		daily_earnings NUMERIC(15, 2) NOT NULL DEFAULT 0,
		daily_rate NUMERIC(5, 4) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		last_accrued_on DATE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		was_withdrawn_early BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_investments_user ON invest.user_investments (user_id, is_active)`,
	`CREATE TABLE IF NOT EXISTS invest.transactions (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL REFERENCES invest.users(id),
		type VARCHAR(32) NOT NULL,
		amount NUMERIC(15, 2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'completed',
		reference VARCHAR(36),
		payout_destination TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON invest.transactions (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS invest.trading_activities (
		id VARCHAR(36) PRIMARY KEY,
		symbol VARCHAR(20) NOT NULL,
		action VARCHAR(10) NOT NULL,
		percentage NUMERIC(5, 2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS invest.system_settings (
		id VARCHAR(36) PRIMARY KEY,
		pix_gateway VARCHAR(32) NOT NULL DEFAULT 'efi',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS invest.earnings_runs (
		id VARCHAR(36) PRIMARY KEY,
		run_date DATE NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		users_processed INTEGER NOT NULL DEFAULT 0,
		investments_accrued INTEGER NOT NULL DEFAULT 0,
		investments_matured INTEGER NOT NULL DEFAULT 0,
		investments_skipped INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		total_earnings NUMERIC(15, 2) NOT NULL DEFAULT 0
	)`,
}

// Migrate creates the invest schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
