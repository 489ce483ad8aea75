package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bridgesync/internal/shared/apperr"
)

const (
	defaultBaseURL = "https://api.bridgeapi.io/v3/aggregation"
	defaultVersion = "2025-01-15"
	defaultTimeout = 30 * time.Second

	usersPath           = "/users"
	authTokenPath       = "/authorization/token"
	connectSessionsPath = "/connect-sessions"
	itemsPath           = "/items"
	accountsPath        = "/accounts"
	transactionsPath    = "/transactions"
)

// Config holds the values the client needs. It is injected at construction.
type Config struct {
	BaseURL      string
	Version      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// Transport overrides the HTTP transport; defaults to an otelhttp-wrapped
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// Client handles communication with the Bridge aggregation API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	version      string
	clientID     string
	clientSecret string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Bridge API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		version:      cfg.Version,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// APIError is returned for any failed provider exchange: a non-2xx status,
// a transport failure, or a body that could not be decoded.
// It matches apperr.ErrUpstream.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("bridge API request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("bridge API error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("bridge API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == apperr.ErrUpstream
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// CreateUser registers a new end user with the provider
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodPost, usersPath, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateAuthToken obtains a delegated-access token for the given user
func (c *Client) GenerateAuthToken(ctx context.Context, userUUID string) (*AuthTokenResponse, error) {
	var out AuthTokenResponse
	if err := c.do(ctx, http.MethodPost, authTokenPath, "", authTokenRequest{UserUUID: userUUID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConnectSession starts a hosted account-linking session
func (c *Client) CreateConnectSession(ctx context.Context, accessToken string, req ConnectSessionRequest) (*ConnectSessionResponse, error) {
	var out ConnectSessionResponse
	if err := c.do(ctx, http.MethodPost, connectSessionsPath, accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetItems fetches the items visible to the token's user
func (c *Client) GetItems(ctx context.Context, accessToken string) (*ItemsResponse, error) {
	var out ItemsResponse
	if err := c.do(ctx, http.MethodGet, itemsPath, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccounts fetches the accounts visible to the token's user
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	var out AccountsResponse
	if err := c.do(ctx, http.MethodGet, accountsPath, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransactions fetches transactions, optionally filtered by a lower-bound date
func (c *Client) GetTransactions(ctx context.Context, accessToken string, since string) (*TransactionsResponse, error) {
	path := transactionsPath
	if since != "" {
		path += "?since=" + url.QueryEscape(since)
	}

	var out TransactionsResponse
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Bridge-Version", c.version)
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Client-Secret", c.clientSecret)
	if accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	return nil
}
