package bridge

import (
	"context"
)

// ClientInterface defines the methods required from the Bridge aggregation API client
type ClientInterface interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GenerateAuthToken(ctx context.Context, userUUID string) (*AuthTokenResponse, error)
	CreateConnectSession(ctx context.Context, accessToken string, req ConnectSessionRequest) (*ConnectSessionResponse, error)
	GetItems(ctx context.Context, accessToken string) (*ItemsResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	GetTransactions(ctx context.Context, accessToken string, since string) (*TransactionsResponse, error) // since is forwarded verbatim when non-empty
}
