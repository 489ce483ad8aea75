package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgesync/internal/shared/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:      srv.URL,
		Version:      "2025-01-15",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2 * time.Second,
		Transport:    http.DefaultTransport,
	})
}

func TestClient_CreateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "2025-01-15", r.Header.Get("Bridge-Version"))
		assert.Equal(t, "client-id", r.Header.Get("Client-Id"))
		assert.Equal(t, "client-secret", r.Header.Get("Client-Secret"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body["email"])
		assert.Equal(t, "ext-1", body["external_user_id"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"uuid":"u-1","email":"jane@example.com","external_user_id":"ext-1"}`))
	})

	ext := "ext-1"
	resp, err := client.CreateUser(context.Background(), CreateUserRequest{Email: "jane@example.com", ExternalUserID: &ext})
	require.NoError(t, err)
	assert.Equal(t, "u-1", resp.UUID)
	require.NotNil(t, resp.ExternalUserID)
	assert.Equal(t, "ext-1", *resp.ExternalUserID)
}

func TestClient_GenerateAuthToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/authorization/token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-1", body["user_uuid"])

		w.Write([]byte(`{"access_token":"tok","expires_at":"2024-05-03T12:14:29.536Z"}`))
	})

	resp, err := client.GenerateAuthToken(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, 2024, resp.ExpiresAt.Year())
}

func TestClient_GetTransactions_ForwardsSinceVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "not-a-date", r.URL.Query().Get("since"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Write([]byte(`{"resources":[{"id":300,"account_id":200,"description":"Coffee","amount":-20.00,"currency":"EUR","date":"2024-01-01"}]}`))
	})

	resp, err := client.GetTransactions(context.Background(), "tok", "not-a-date")
	require.NoError(t, err)
	require.Len(t, resp.Resources, 1)

	tx := resp.Resources[0]
	assert.Equal(t, int64(300), *tx.ID)
	assert.True(t, tx.Amount.Valid)
	assert.Equal(t, "-20", tx.Amount.Decimal.String())
	assert.Nil(t, tx.IsDeleted)
	assert.Nil(t, tx.CategoryID)
}

func TestClient_GetTransactions_NoSince(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(`{"resources":[]}`))
	})

	resp, err := client.GetTransactions(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.Empty(t, resp.Resources)
}

func TestClient_GetItems_NumericStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources":[{"id":100,"status":0},{"id":101,"status":"ok","status_code_info":"fine"}]}`))
	})

	resp, err := client.GetItems(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, resp.Resources, 2)
	assert.Equal(t, "0", resp.Resources[0].Status.String())
	assert.Equal(t, "ok", resp.Resources[1].Status.String())
	assert.Equal(t, "fine", *resp.Resources[1].StatusCodeInfo)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"invalid_token"}`))
	})

	_, err := client.GetAccounts(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, `{"type":"invalid_token"}`, apiErr.Body)
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources": [`))
	})

	_, err := client.GetAccounts(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, Transport: http.DefaultTransport})

	_, err := client.GetItems(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}
