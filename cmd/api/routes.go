package main

import (
	"net/http"

	"bridgesync/internal/shared/config"
	"bridgesync/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	bearer := func(h http.HandlerFunc) http.Handler {
		return middleware.BearerToken(h)
	}

	mux.HandleFunc("GET /health", deps.HealthHandler.HandleHealth)

	// Users
	mux.HandleFunc("POST /api/bridge/users", deps.UserHandler.HandleCreateUser)
	mux.Handle("POST /api/bridge/users/connect-session", bearer(deps.UserHandler.HandleConnectSession))
	mux.HandleFunc("GET /api/bridge/users/email/{email}", deps.UserHandler.HandleGetUserByEmail)
	mux.HandleFunc("GET /api/bridge/users/{uuid}", deps.UserHandler.HandleGetUser)
	mux.HandleFunc("POST /api/bridge/users/{uuid}/auth-token", deps.UserHandler.HandleIssueToken)

	// Sync triggers (provider token required)
	mux.Handle("POST /api/bridge/data/sync/accounts", bearer(deps.DataHandler.HandleSyncAccounts))
	mux.Handle("POST /api/bridge/data/sync/transactions", bearer(deps.DataHandler.HandleSyncTransactions))
	mux.Handle("POST /api/bridge/data/sync/{userUuid}", bearer(deps.DataHandler.HandleSyncUser))
	mux.Handle("POST /api/bridge/data/sync/{userUuid}/items", bearer(deps.DataHandler.HandleSyncItems))

	// Stored data
	mux.HandleFunc("GET /api/bridge/data/items/{userUuid}", deps.DataHandler.HandleListItems)
	mux.HandleFunc("GET /api/bridge/data/accounts/{itemId}", deps.DataHandler.HandleListAccounts)
	mux.HandleFunc("GET /api/bridge/data/transactions/{accountId}", deps.DataHandler.HandleListTransactions)

	// Account selection
	mux.HandleFunc("POST /api/bridge/accounts/{accountId}/select", deps.SelectionHandler.HandleSelect)
	mux.HandleFunc("POST /api/bridge/accounts/{accountId}/deselect", deps.SelectionHandler.HandleDeselect)
	mux.HandleFunc("GET /api/bridge/accounts/selected", deps.SelectionHandler.HandleGetSelected)
	mux.HandleFunc("GET /api/bridge/accounts/available", deps.SelectionHandler.HandleListAvailable)
	mux.HandleFunc("GET /api/bridge/accounts/has-selected", deps.SelectionHandler.HandleHasSelected)

	// Provider webhooks
	mux.HandleFunc("POST /api/bridge/webhooks", deps.WebhookHandler.HandleWebhook)

	// Apply global middleware
	handler := middleware.Logging(middleware.SecureHeaders(mux))
	handler = middleware.Tracing(handler)
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)
	}

	return handler
}
