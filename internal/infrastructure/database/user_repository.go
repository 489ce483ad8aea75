package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bridgesync/internal/domain/user"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, bridge_uuid, email, external_user_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	var u user.User
	var externalID sql.NullString
	if err := row.Scan(&u.ID, &u.BridgeUUID, &u.Email, &externalID, scanTime(&u.CreatedAt), scanTime(&u.UpdatedAt)); err != nil {
		return nil, err
	}
	u.ExternalUserID = stringPtr(externalID)
	return &u, nil
}

// Create inserts the user or refreshes the external id of an existing row
// with the same bridge UUID.
func (r *UserRepository) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	query := `
		INSERT INTO bridge_users (id, bridge_uuid, email, external_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (bridge_uuid) DO UPDATE SET
			external_user_id = COALESCE(excluded.external_user_id, bridge_users.external_user_id),
			updated_at = excluded.updated_at
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.BridgeUUID, params.Email, nullString(params.ExternalUserID), nowUTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, user.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByBridgeUUID(ctx context.Context, bridgeUUID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM bridge_users WHERE bridge_uuid = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, bridgeUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM bridge_users WHERE email = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM bridge_users ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
