package transaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bridgesync/internal/shared/apperr"
)

// DateLayout is the provider's calendar-date format
const DateLayout = "2006-01-02"

var (
	ErrTransactionNotFound = fmt.Errorf("transaction %w", apperr.ErrNotFound)
	ErrInvalidSince        = fmt.Errorf("since must be a YYYY-MM-DD date: %w", apperr.ErrValidation)
)

type Transaction struct {
	ID            string          `json:"id"`
	TransactionID int64           `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Date          time.Time       `json:"date"` // calendar date, midnight UTC
	OperationType *string         `json:"operationType,omitempty"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
	IsDeleted     bool            `json:"isDeleted"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type UpsertParams struct {
	TransactionID int64
	AccountID     int64
	Description   string
	Amount        decimal.Decimal
	Currency      string
	Date          time.Time
	OperationType *string
	CategoryID    *int64
	IsDeleted     bool
}
