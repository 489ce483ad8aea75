package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	bridgeclient "bridgesync/internal/infrastructure/bridge"
)

// Service provisions provider identities and issues delegated tokens.
type Service struct {
	repo   Repository
	client bridgeclient.ClientInterface
}

// NewService creates a new user service
func NewService(repo Repository, client bridgeclient.ClientInterface) *Service {
	return &Service{repo: repo, client: client}
}

// Provision returns the stored user for email, creating it with the provider first
// when none exists.
func (s *Service) Provision(ctx context.Context, email string, externalUserID *string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailMissing
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		log.Debug().Str("user_uuid", existing.BridgeUUID).Msg("user already provisioned")
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	created, err := s.client.CreateUser(ctx, bridgeclient.CreateUserRequest{
		Email:          email,
		ExternalUserID: externalUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider user: %w", err)
	}

	u, err := s.repo.Create(ctx, CreateParams{
		BridgeUUID:     created.UUID,
		Email:          email,
		ExternalUserID: externalUserID,
	})
	if errors.Is(err, ErrEmailTaken) {
		// A concurrent request stored the same email first.
		return s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	log.Info().Str("user_uuid", u.BridgeUUID).Msg("provisioned provider user")
	return u, nil
}

func (s *Service) GetByUUID(ctx context.Context, bridgeUUID string) (*User, error) {
	return s.repo.GetByBridgeUUID(ctx, bridgeUUID)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// List returns every provisioned user.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// IssueToken obtains a delegated-access token for the user.
func (s *Service) IssueToken(ctx context.Context, bridgeUUID string) (*bridgeclient.AuthTokenResponse, error) {
	token, err := s.client.GenerateAuthToken(ctx, bridgeUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}
	return token, nil
}

// CreateConnectSession starts an account-linking session on behalf of the token's user.
func (s *Service) CreateConnectSession(ctx context.Context, accessToken string, req bridgeclient.ConnectSessionRequest) (*bridgeclient.ConnectSessionResponse, error) {
	session, err := s.client.CreateConnectSession(ctx, accessToken, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create connect session: %w", err)
	}
	return session, nil
}
