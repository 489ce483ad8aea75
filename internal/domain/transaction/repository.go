package transaction

import (
	"context"
	"time"
)

// Repository defines the interface for transaction data access
type Repository interface {
	// Upsert creates or updates a transaction keyed by provider transaction id.
	Upsert(ctx context.Context, params UpsertParams) (tx *Transaction, created bool, err error)

	GetByTransactionID(ctx context.Context, transactionID int64) (*Transaction, error)

	// ListByAccountID returns the account's transactions, newest first.
	// A non-nil since keeps only transactions dated on or after it.
	ListByAccountID(ctx context.Context, accountID int64, since *time.Time) ([]*Transaction, error)
}
