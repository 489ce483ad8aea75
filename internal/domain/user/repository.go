package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create inserts a user keyed by bridge UUID. An existing row with the same
	// UUID only has its external user id refreshed.
	Create(ctx context.Context, params CreateParams) (*User, error)

	GetByBridgeUUID(ctx context.Context, bridgeUUID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns every provisioned user, oldest first.
	List(ctx context.Context) ([]*User, error)
}
