package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgesync/internal/shared/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite3",
			URL:         filepath.Join(t.TempDir(), "api.db"),
			AutoMigrate: true,
		},
		Bridge: config.BridgeConfig{
			BaseURL:      "http://127.0.0.1:1",
			ClientID:     "id",
			ClientSecret: "secret",
			Timeout:      time.Second,
		},
		Webhook: config.WebhookConfig{
			AllowedIPs: []string{"63.32.31.5"},
		},
	}
}

func TestSetupRoutes(t *testing.T) {
	cfg := testConfig(t)
	deps, err := NewDependencies(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	assert.Nil(t, deps.Pool)

	handler := SetupRoutes(deps, cfg)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		remoteAddr string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"sync requires bearer", http.MethodPost, "/api/bridge/data/sync/u-1", "", "", http.StatusUnauthorized},
		{"sync accounts requires bearer", http.MethodPost, "/api/bridge/data/sync/accounts", "", "", http.StatusUnauthorized},
		{"connect session requires bearer", http.MethodPost, "/api/bridge/users/connect-session", `{"userUuid":"u-1"}`, "", http.StatusUnauthorized},
		{"unknown user", http.MethodGet, "/api/bridge/users/u-404", "", "", http.StatusNotFound},
		{"empty item list", http.MethodGet, "/api/bridge/data/items/u-1", "", "", http.StatusOK},
		{"has-selected", http.MethodGet, "/api/bridge/accounts/has-selected?itemId=1", "", "", http.StatusOK},
		{"webhook from unknown source", http.MethodPost, "/api/bridge/webhooks", `{"type":"item.error","item_id":1}`, "1.2.3.4:1234", http.StatusForbidden},
		{"webhook from allowed source", http.MethodPost, "/api/bridge/webhooks", `{"type":"item.error","item_id":1}`, "63.32.31.5:1234", http.StatusOK},
		{"wrong method", http.MethodGet, "/api/bridge/webhooks", "", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.remoteAddr != "" {
				req.RemoteAddr = tt.remoteAddr
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNewDependencies_PoolForWebhookRefresh(t *testing.T) {
	cfg := testConfig(t)
	cfg.Webhook.RefreshOnCompleted = true
	cfg.Scheduler = config.SchedulerConfig{WorkerCount: 1, QueueSize: 1, JobTimeout: time.Second}

	deps, err := NewDependencies(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	assert.NotNil(t, deps.Pool)
}

func TestNewDependencies_InvalidAllowList(t *testing.T) {
	cfg := testConfig(t)
	cfg.Webhook.AllowedIPs = []string{"not-an-ip"}

	_, err := NewDependencies(context.Background(), cfg)
	assert.Error(t, err)
}
