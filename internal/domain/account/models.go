package account

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bridgesync/internal/shared/apperr"
)

// Domain errors
var (
	ErrAccountNotFound   = fmt.Errorf("account %w", apperr.ErrNotFound)
	ErrNoSelectedAccount = fmt.Errorf("no selected account for item: %w", apperr.ErrNotFound)
	ErrSelectionExists   = apperr.Wrap(apperr.ErrConflict, "selection already exists for this item")
	ErrItemMismatch      = fmt.Errorf("account does not belong to item: %w", apperr.ErrNotFound)
)

// Account is a financial account belonging to an item.
type Account struct {
	ID         string          `json:"id"`
	AccountID  int64           `json:"accountId"`
	ItemID     int64           `json:"itemId"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	IBAN       *string         `json:"iban,omitempty"`
	IsSelected bool            `json:"isSelected"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// UpsertParams carries the provider fields written on every sync.
// Selection state is deliberately absent: syncs never change it.
type UpsertParams struct {
	AccountID int64
	ItemID    int64
	Name      string
	Balance   decimal.Decimal
	Currency  string
	Type      string
	Status    string
	IBAN      *string
}
