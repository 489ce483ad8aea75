package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bridgesync/internal/domain/transaction"
)

// TransactionRepository implements transaction.Repository
type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, transaction_id, account_id, description, amount, currency, date,
	operation_type, category_id, is_deleted, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var operationType sql.NullString
	var categoryID sql.NullInt64
	err := row.Scan(
		&tx.ID, &tx.TransactionID, &tx.AccountID, &tx.Description, &tx.Amount,
		&tx.Currency, scanTime(&tx.Date), &operationType, &categoryID, &tx.IsDeleted,
		scanTime(&tx.CreatedAt), scanTime(&tx.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	tx.Date = calendarDate(tx.Date)
	tx.OperationType = stringPtr(operationType)
	tx.CategoryID = int64Ptr(categoryID)
	return &tx, nil
}

// calendarDate drops any clock or zone the driver attached to a DATE column.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, bool, error) {
	query := `
		INSERT INTO bridge_transactions (id, transaction_id, account_id, description, amount, currency, date,
			operation_type, category_id, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (transaction_id) DO UPDATE SET
			account_id = excluded.account_id,
			description = excluded.description,
			amount = excluded.amount,
			currency = excluded.currency,
			date = excluded.date,
			operation_type = excluded.operation_type,
			category_id = excluded.category_id,
			is_deleted = excluded.is_deleted,
			updated_at = excluded.updated_at
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.TransactionID, params.AccountID, params.Description, params.Amount,
		params.Currency, calendarDate(params.Date), nullString(params.OperationType),
		nullInt64(params.CategoryID), params.IsDeleted, nowUTC(),
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert transaction %d: %w", params.TransactionID, err)
	}
	return tx, tx.CreatedAt.Equal(tx.UpdatedAt), nil
}

func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID int64) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bridge_transactions WHERE transaction_id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID int64, since *time.Time) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bridge_transactions WHERE account_id = $1`
	args := []any{accountID}
	if since != nil {
		query += ` AND date >= $2`
		args = append(args, calendarDate(*since))
	}
	query += ` ORDER BY date DESC, transaction_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}
