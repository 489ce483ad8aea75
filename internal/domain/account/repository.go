package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Upsert creates or updates an account keyed by provider account id.
	// It never modifies is_selected.
	Upsert(ctx context.Context, params UpsertParams) (account *Account, created bool, err error)

	GetByAccountID(ctx context.Context, accountID int64) (*Account, error)

	// ListByItemID returns the item's accounts ordered by account id
	ListByItemID(ctx context.Context, itemID int64) ([]*Account, error)

	// GetSelected returns ErrNoSelectedAccount when the item has no selection
	GetSelected(ctx context.Context, itemID int64) (*Account, error)

	// TrySelect atomically marks the account selected if no other account of
	// the item is selected. It returns false when another selection exists,
	// including when a concurrent selection wins the race.
	TrySelect(ctx context.Context, itemID, accountID int64) (bool, error)

	// Deselect clears the flag. Returns ErrAccountNotFound for an unknown account.
	Deselect(ctx context.Context, accountID int64) error
}
