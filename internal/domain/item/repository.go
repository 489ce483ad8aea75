package item

import "context"

// Repository defines the interface for item data access
type Repository interface {
	// Upsert creates or updates an item keyed by provider item id.
	// created reports whether a new row was inserted.
	Upsert(ctx context.Context, params UpsertParams) (item *Item, created bool, err error)

	GetByItemID(ctx context.Context, itemID int64) (*Item, error)
	ListByUserUUID(ctx context.Context, userUUID string) ([]*Item, error)

	// UpdateStatus applies a status update in a single statement.
	// Returns ErrItemNotFound when no item has the given id.
	UpdateStatus(ctx context.Context, itemID int64, update StatusUpdate) (*Item, error)
}
