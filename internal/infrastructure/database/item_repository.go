package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bridgesync/internal/domain/item"
)

// ItemRepository implements item.Repository
type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, item_id, user_uuid, status, status_code_info, status_code_description, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*item.Item, error) {
	var it item.Item
	var info, description sql.NullString
	err := row.Scan(
		&it.ID, &it.ItemID, &it.UserUUID, &it.Status,
		&info, &description, scanTime(&it.CreatedAt), scanTime(&it.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	it.StatusCodeInfo = stringPtr(info)
	it.StatusCodeDescription = stringPtr(description)
	return &it, nil
}

func (r *ItemRepository) Upsert(ctx context.Context, params item.UpsertParams) (*item.Item, bool, error) {
	query := `
		INSERT INTO bridge_items (id, item_id, user_uuid, status, status_code_info, status_code_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (item_id) DO UPDATE SET
			user_uuid = excluded.user_uuid,
			status = excluded.status,
			status_code_info = excluded.status_code_info,
			status_code_description = excluded.status_code_description,
			updated_at = excluded.updated_at
		RETURNING ` + itemColumns

	it, err := scanItem(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.ItemID, params.UserUUID, params.Status,
		nullString(params.StatusCodeInfo), nullString(params.StatusCodeDescription), nowUTC(),
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert item %d: %w", params.ItemID, err)
	}
	return it, it.CreatedAt.Equal(it.UpdatedAt), nil
}

func (r *ItemRepository) GetByItemID(ctx context.Context, itemID int64) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM bridge_items WHERE item_id = $1`

	it, err := scanItem(r.db.QueryRowContext(ctx, query, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, item.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) ListByUserUUID(ctx context.Context, userUUID string) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM bridge_items WHERE user_uuid = $1 ORDER BY item_id`

	rows, err := r.db.QueryContext(ctx, query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// UpdateStatus writes the update in one statement so concurrent webhook
// deliveries resolve to whichever committed last.
func (r *ItemRepository) UpdateStatus(ctx context.Context, itemID int64, update item.StatusUpdate) (*item.Item, error) {
	query := `
		UPDATE bridge_items SET
			status = COALESCE($2, status),
			status_code_info = $3,
			updated_at = $4
		WHERE item_id = $1
		RETURNING ` + itemColumns

	it, err := scanItem(r.db.QueryRowContext(ctx, query,
		itemID, nullString(update.Status), nullString(update.StatusCodeInfo), nowUTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, item.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}
	return it, nil
}
