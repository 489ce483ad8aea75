package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeclient "bridgesync/internal/infrastructure/bridge"
	"bridgesync/internal/shared/apperr"
)

// MockRepository implements Repository
type MockRepository struct {
	CreateFunc          func(ctx context.Context, params CreateParams) (*User, error)
	GetByBridgeUUIDFunc func(ctx context.Context, bridgeUUID string) (*User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*User, error)
	ListFunc            func(ctx context.Context) ([]*User, error)
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &User{BridgeUUID: params.BridgeUUID, Email: params.Email, ExternalUserID: params.ExternalUserID}, nil
}

func (m *MockRepository) GetByBridgeUUID(ctx context.Context, bridgeUUID string) (*User, error) {
	if m.GetByBridgeUUIDFunc != nil {
		return m.GetByBridgeUUIDFunc(ctx, bridgeUUID)
	}
	return nil, ErrUserNotFound
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, ErrUserNotFound
}

func (m *MockRepository) List(ctx context.Context) ([]*User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockClient implements bridgeclient.ClientInterface
type MockClient struct {
	CreateUserFunc        func(ctx context.Context, req bridgeclient.CreateUserRequest) (*bridgeclient.UserResponse, error)
	GenerateAuthTokenFunc func(ctx context.Context, userUUID string) (*bridgeclient.AuthTokenResponse, error)
}

func (m *MockClient) CreateUser(ctx context.Context, req bridgeclient.CreateUserRequest) (*bridgeclient.UserResponse, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, req)
	}
	return &bridgeclient.UserResponse{UUID: "u-new", Email: req.Email}, nil
}

func (m *MockClient) GenerateAuthToken(ctx context.Context, userUUID string) (*bridgeclient.AuthTokenResponse, error) {
	if m.GenerateAuthTokenFunc != nil {
		return m.GenerateAuthTokenFunc(ctx, userUUID)
	}
	return &bridgeclient.AuthTokenResponse{AccessToken: "tok"}, nil
}

func (m *MockClient) CreateConnectSession(ctx context.Context, accessToken string, req bridgeclient.ConnectSessionRequest) (*bridgeclient.ConnectSessionResponse, error) {
	return &bridgeclient.ConnectSessionResponse{UUID: "s-1", ConnectURL: "https://connect.example/s-1", Success: true}, nil
}

func (m *MockClient) GetItems(ctx context.Context, accessToken string) (*bridgeclient.ItemsResponse, error) {
	return &bridgeclient.ItemsResponse{}, nil
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
	return &bridgeclient.AccountsResponse{}, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accessToken string, since string) (*bridgeclient.TransactionsResponse, error) {
	return &bridgeclient.TransactionsResponse{}, nil
}

func TestService_Provision_ExistingEmail(t *testing.T) {
	existing := &User{BridgeUUID: "u-1", Email: "jane@example.com"}
	repo := &MockRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			assert.Equal(t, "jane@example.com", email)
			return existing, nil
		},
	}
	client := &MockClient{
		CreateUserFunc: func(ctx context.Context, req bridgeclient.CreateUserRequest) (*bridgeclient.UserResponse, error) {
			t.Fatal("provider must not be called for an existing email")
			return nil, nil
		},
	}

	svc := NewService(repo, client)
	u, err := svc.Provision(context.Background(), "  Jane@Example.com ", nil)

	require.NoError(t, err)
	assert.Same(t, existing, u)
}

func TestService_Provision_NewUser(t *testing.T) {
	var stored CreateParams
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*User, error) {
			stored = params
			return &User{BridgeUUID: params.BridgeUUID, Email: params.Email}, nil
		},
	}

	svc := NewService(repo, &MockClient{})
	ext := "ext-9"
	u, err := svc.Provision(context.Background(), "new@example.com", &ext)

	require.NoError(t, err)
	assert.Equal(t, "u-new", u.BridgeUUID)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Equal(t, &ext, stored.ExternalUserID)
}

func TestService_Provision_ConcurrentInsertReturnsWinner(t *testing.T) {
	winner := &User{BridgeUUID: "u-first", Email: "race@example.com"}
	lookups := 0
	repo := &MockRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*User, error) {
			lookups++
			if lookups == 1 {
				return nil, ErrUserNotFound
			}
			return winner, nil
		},
		CreateFunc: func(ctx context.Context, params CreateParams) (*User, error) {
			return nil, ErrEmailTaken
		},
	}

	svc := NewService(repo, &MockClient{})
	u, err := svc.Provision(context.Background(), "race@example.com", nil)

	require.NoError(t, err)
	assert.Same(t, winner, u)
}

func TestService_Provision_Errors(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		client  *MockClient
		wantErr error
	}{
		{
			name:    "missing email",
			email:   "   ",
			client:  &MockClient{},
			wantErr: apperr.ErrValidation,
		},
		{
			name:  "provider failure",
			email: "x@example.com",
			client: &MockClient{
				CreateUserFunc: func(ctx context.Context, req bridgeclient.CreateUserRequest) (*bridgeclient.UserResponse, error) {
					return nil, &bridgeclient.APIError{StatusCode: 500, Body: "boom"}
				},
			},
			wantErr: apperr.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&MockRepository{}, tt.client)
			_, err := svc.Provision(context.Background(), tt.email, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestService_GetByUUID_NotFound(t *testing.T) {
	svc := NewService(&MockRepository{}, &MockClient{})

	_, err := svc.GetByUUID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
