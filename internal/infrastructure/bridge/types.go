package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email          string  `json:"email"`
	ExternalUserID *string `json:"external_user_id,omitempty"`
}

// UserResponse represents a user as returned by the provider
type UserResponse struct {
	UUID           string  `json:"uuid"`
	Email          string  `json:"email"`
	ExternalUserID *string `json:"external_user_id,omitempty"`
}

type authTokenRequest struct {
	UserUUID string `json:"user_uuid"`
}

// AuthTokenResponse carries a short-lived delegated-access token
type AuthTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ConnectSessionRequest is the body of POST /connect-sessions
type ConnectSessionRequest struct {
	UserUUID     string  `json:"user_uuid"`
	UserEmail    *string `json:"user_email,omitempty"`
	RedirectURL  *string `json:"redirect_url,omitempty"`
	PrefillEmail *string `json:"prefill_email,omitempty"`
}

// ConnectSessionResponse describes the hosted account-linking session
type ConnectSessionResponse struct {
	UUID         string  `json:"uuid"`
	ConnectURL   string  `json:"connect_url"`
	ItemID       *int64  `json:"item_id,omitempty"`
	Success      bool    `json:"success"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// ItemsResponse is the single page returned by GET /items
type ItemsResponse struct {
	Resources []Item `json:"resources"`
}

// Item is a provider connection to one institution.
// Every field is a pointer so an absent key can be told apart from a zero value.
type Item struct {
	ID                    *int64      `json:"id"`
	Status                *FlexString `json:"status"`
	StatusCodeInfo        *string     `json:"status_code_info"`
	StatusCodeDescription *string     `json:"status_code_description"`
}

// AccountsResponse is the single page returned by GET /accounts
type AccountsResponse struct {
	Resources []Account `json:"resources"`
}

type Account struct {
	ID       *int64              `json:"id"`
	ItemID   *int64              `json:"item_id"`
	Name     *string             `json:"name"`
	Balance  decimal.NullDecimal `json:"balance"`
	Currency *string             `json:"currency"`
	Type     *string             `json:"type"`
	Status   *FlexString         `json:"status"`
	IBAN     *string             `json:"iban"`
}

// TransactionsResponse is the single page returned by GET /transactions
type TransactionsResponse struct {
	Resources []Transaction `json:"resources"`
}

type Transaction struct {
	ID            *int64              `json:"id"`
	AccountID     *int64              `json:"account_id"`
	Description   *string             `json:"description"`
	Amount        decimal.NullDecimal `json:"amount"`
	Currency      *string             `json:"currency"`
	Date          *string             `json:"date"` // YYYY-MM-DD
	OperationType *string             `json:"operation_type"`
	CategoryID    *int64              `json:"category_id"`
	IsDeleted     *bool               `json:"is_deleted"`
}

// FlexString accepts either a JSON string or a JSON number.
// The provider reports some status fields as numeric codes.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("status must be a string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f *FlexString) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}
