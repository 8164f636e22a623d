package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const userColumns = `id, email, first_name, last_name, password_hash, balance, total_invested,
		total_earnings, is_admin, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	user := &models.User{}
	err := s.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.Balance, &user.TotalInvested, &user.TotalEarnings, &user.IsAdmin,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
		INSERT INTO invest.users (id, email, first_name, last_name, password_hash, balance, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, user.ID, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Balance, user.IsAdmin).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id
func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM invest.users WHERE id = $1`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// GetUserForUpdate retrieves a user by id and locks the row
func (r *Repository) GetUserForUpdate(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM invest.users WHERE id = $1 FOR UPDATE`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM invest.users WHERE lower(email) = lower($1)`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// ListUsers retrieves all users, newest first
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM invest.users ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetBalance overwrites a user's balance
func (r *Repository) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return storage.ErrInsufficientFunds
	}
	query := `UPDATE invest.users SET balance = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, userID, balance)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return expectOneRow(res, "user")
}

// IncrementBalance adds delta to a user's balance in a single statement so
// concurrent writers never lose an update
func (r *Repository) IncrementBalance(ctx context.Context, userID string, delta decimal.Decimal) error {
	query := `
		UPDATE invest.users
		SET balance = balance + $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND balance + $2 >= 0`
	res, err := r.q.ExecContext(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to increment balance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	err = r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM invest.users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user: %w", storage.ErrNotFound)
	}
	return storage.ErrInsufficientFunds
}

// AddTotals increments the cumulative invested and earned amounts
func (r *Repository) AddTotals(ctx context.Context, userID string, invested, earnings decimal.Decimal) error {
	query := `
		UPDATE invest.users
		SET total_invested = total_invested + $2,
			total_earnings = total_earnings + $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, userID, invested, earnings)
	if err != nil {
		return fmt.Errorf("failed to update totals: %w", err)
	}
	return expectOneRow(res, "user")
}
