package item

import (
	"fmt"
	"time"

	"bridgesync/internal/shared/apperr"
)

var ErrItemNotFound = fmt.Errorf("item %w", apperr.ErrNotFound)

// Item is a provider connection to one institution for one user.
type Item struct {
	ID                    string    `json:"id"`
	ItemID                int64     `json:"itemId"`
	UserUUID              string    `json:"userUuid"`
	Status                string    `json:"status"`
	StatusCodeInfo        *string   `json:"statusCodeInfo,omitempty"`
	StatusCodeDescription *string   `json:"statusCodeDescription,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// UpsertParams carries the provider fields written on every sync.
type UpsertParams struct {
	ItemID                int64
	UserUUID              string
	Status                string
	StatusCodeInfo        *string
	StatusCodeDescription *string
}

// StatusUpdate is the pair of fields a webhook event may overwrite.
// A nil Status keeps the stored value; StatusCodeInfo is always written.
type StatusUpdate struct {
	Status         *string
	StatusCodeInfo *string
}
