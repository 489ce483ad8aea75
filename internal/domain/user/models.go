package user

import (
	"fmt"
	"strings"
	"time"

	"bridgesync/internal/shared/apperr"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)
	// ErrEmailTaken is returned by the repository when another row already owns the email.
	ErrEmailTaken   = fmt.Errorf("email already provisioned: %w", apperr.ErrConflict)
	ErrEmailMissing = fmt.Errorf("email is required: %w", apperr.ErrValidation)
)

// User is a provider-side identity, keyed by the UUID the provider issued.
type User struct {
	ID             string    `json:"id"`
	BridgeUUID     string    `json:"uuid"`
	Email          string    `json:"email"`
	ExternalUserID *string   `json:"externalUserId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateParams struct {
	BridgeUUID     string
	Email          string
	ExternalUserID *string
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
