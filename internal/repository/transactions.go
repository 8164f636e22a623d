package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/google/uuid"
)

// CreateTransaction appends an entry to the ledger
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = models.TxStatusCompleted
	}
	query := `
		INSERT INTO invest.transactions
			(id, user_id, type, amount, description, status, reference, payout_destination, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q.QueryRowContext(ctx, query, tx.ID, tx.UserID, tx.Type, tx.Amount, tx.Description,
		tx.Status, nullString(tx.Reference), nullString(tx.PayoutDestination)).
		Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListUserTransactions retrieves a user's most recent transactions. A limit
// of zero or less returns all of them.
func (r *Repository) ListUserTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, description, status, reference, payout_destination, created_at
		FROM invest.transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			tx          models.Transaction
			reference   sql.NullString
			destination sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Description, &tx.Status,
			&reference, &destination, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Reference = reference.String
		tx.PayoutDestination = destination.String
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
