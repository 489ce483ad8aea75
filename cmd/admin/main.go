package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bridgesync/internal/infrastructure/database"
	"bridgesync/internal/shared/config"
	"bridgesync/internal/shared/logger"
)

var (
	configPath string
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "bridgesync admin - maintenance commands for the bridgesync store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "timeout for the whole command")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(replayWebhookCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, configures logging and opens the store.
// Callers close the returned DB and cancel the context.
func setup(cmd *cobra.Command) (*config.Config, *database.DB, context.Context, context.CancelFunc, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger.Setup(cfg.Log.Level, "console")

	db, err := database.Open(cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log.Debug().Str("driver", cfg.Database.Driver).Msg("connected to database")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	return cfg, db, ctx, cancel, nil
}
