package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bridgesync/internal/domain/account"
)

// AccountRepository implements account.Repository
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, account_id, item_id, name, balance, currency, type, status, iban, is_selected, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*account.Account, error) {
	var acc account.Account
	var iban sql.NullString
	err := row.Scan(
		&acc.ID, &acc.AccountID, &acc.ItemID, &acc.Name, &acc.Balance,
		&acc.Currency, &acc.Type, &acc.Status, &iban, &acc.IsSelected,
		scanTime(&acc.CreatedAt), scanTime(&acc.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	acc.IBAN = stringPtr(iban)
	return &acc, nil
}

// Upsert leaves is_selected untouched on update unless the account moved to
// another item, where the stale selection is dropped so it cannot collide
// with that item's own selected account.
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, bool, error) {
	query := `
		INSERT INTO bridge_accounts (id, account_id, item_id, name, balance, currency, type, status, iban, is_selected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $10)
		ON CONFLICT (account_id) DO UPDATE SET
			item_id = excluded.item_id,
			name = excluded.name,
			balance = excluded.balance,
			currency = excluded.currency,
			type = excluded.type,
			status = excluded.status,
			iban = excluded.iban,
			is_selected = CASE WHEN bridge_accounts.item_id = excluded.item_id THEN bridge_accounts.is_selected ELSE FALSE END,
			updated_at = excluded.updated_at
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.AccountID, params.ItemID, params.Name, params.Balance,
		params.Currency, params.Type, params.Status, nullString(params.IBAN), nowUTC(),
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert account %d: %w", params.AccountID, err)
	}
	return acc, acc.CreatedAt.Equal(acc.UpdatedAt), nil
}

func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bridge_accounts WHERE account_id = $1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) ListByItemID(ctx context.Context, itemID int64) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bridge_accounts WHERE item_id = $1 ORDER BY account_id`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) GetSelected(ctx context.Context, itemID int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bridge_accounts WHERE item_id = $1 AND is_selected`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNoSelectedAccount
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get selected account: %w", err)
	}
	return acc, nil
}

// TrySelect is a single conditional UPDATE. The partial unique index on
// (item_id) WHERE is_selected rejects the loser of a race that slips past the
// NOT EXISTS check.
func (r *AccountRepository) TrySelect(ctx context.Context, itemID, accountID int64) (bool, error) {
	query := `
		UPDATE bridge_accounts SET is_selected = TRUE, updated_at = $3
		WHERE account_id = $1 AND item_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM bridge_accounts s
			WHERE s.item_id = $2 AND s.is_selected AND s.account_id <> $1
		  )
	`

	result, err := r.db.ExecContext(ctx, query, accountID, itemID, nowUTC())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to select account: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *AccountRepository) Deselect(ctx context.Context, accountID int64) error {
	query := `UPDATE bridge_accounts SET is_selected = FALSE, updated_at = $2 WHERE account_id = $1`

	result, err := r.db.ExecContext(ctx, query, accountID, nowUTC())
	if err != nil {
		return fmt.Errorf("failed to deselect account: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
