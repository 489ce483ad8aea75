package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/account"
	"bridgesync/internal/domain/bridge"
	"bridgesync/internal/domain/item"
	"bridgesync/internal/domain/transaction"
	"bridgesync/internal/domain/user"
	"bridgesync/internal/domain/webhook"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
	"bridgesync/internal/infrastructure/database"
	httphandlers "bridgesync/internal/interfaces/http"
	"bridgesync/internal/interfaces/scheduler"
	"bridgesync/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *database.DB

	// Handlers
	UserHandler      *httphandlers.UserHandler
	DataHandler      *httphandlers.DataHandler
	SelectionHandler *httphandlers.SelectionHandler
	WebhookHandler   *httphandlers.WebhookHandler
	HealthHandler    *httphandlers.HealthHandler

	// Background sync. Pool is nil when neither the scheduler nor webhook
	// refreshes need it.
	Pool        *scheduler.WorkerPool
	JobProvider scheduler.JobProvider
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	userRepo := database.NewUserRepository(db)
	itemRepo := database.NewItemRepository(db)
	accountRepo := database.NewAccountRepository(db)
	transactionRepo := database.NewTransactionRepository(db)

	client := bridgeclient.NewClient(bridgeclient.Config{
		BaseURL:      cfg.Bridge.BaseURL,
		Version:      cfg.Bridge.Version,
		ClientID:     cfg.Bridge.ClientID,
		ClientSecret: cfg.Bridge.ClientSecret,
		Timeout:      cfg.Bridge.Timeout,
	})

	userService := user.NewService(userRepo, client)
	itemService := item.NewService(itemRepo)
	selectionService := account.NewSelectionService(accountRepo)
	transactionService := transaction.NewService(transactionRepo)
	syncService := bridge.NewSyncService(client, itemRepo, accountRepo, transactionRepo)

	deps := &Dependencies{
		DB:          db,
		JobProvider: scheduler.NewUserJobProvider(userService, userService, syncService),
	}

	var reconcilerOpts []webhook.Option
	if cfg.Scheduler.Enabled || cfg.Webhook.RefreshOnCompleted {
		deps.Pool = scheduler.NewWorkerPool(scheduler.PoolConfig{
			Workers:    cfg.Scheduler.WorkerCount,
			QueueSize:  cfg.Scheduler.QueueSize,
			JobDelay:   cfg.Scheduler.JobDelay,
			JobTimeout: cfg.Scheduler.JobTimeout,
		})
	}
	if cfg.Webhook.RefreshOnCompleted {
		reconcilerOpts = append(reconcilerOpts, webhook.WithRefreshTrigger(
			scheduler.NewRefreshTrigger(deps.Pool, userService, syncService),
		))
	}

	reconciler, err := webhook.NewReconciler(cfg.Webhook.AllowedIPs, itemRepo, reconcilerOpts...)
	if err != nil {
		db.Close()
		return nil, err
	}

	validator, err := httphandlers.NewValidator()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}

	deps.UserHandler = httphandlers.NewUserHandler(userService, validator)
	deps.DataHandler = httphandlers.NewDataHandler(syncService, itemService, selectionService, transactionService)
	deps.SelectionHandler = httphandlers.NewSelectionHandler(selectionService)
	deps.WebhookHandler = httphandlers.NewWebhookHandler(reconciler, validator, cfg.Webhook.TrustForwardedFor)
	deps.HealthHandler = httphandlers.NewHealthHandler(db)

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
