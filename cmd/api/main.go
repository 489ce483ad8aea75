package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/interfaces/scheduler"
	"bridgesync/internal/shared/config"
	"bridgesync/internal/shared/logger"
	"bridgesync/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				log.Error().Err(err).Msg("telemetry shutdown failed")
			}
		}()
	}

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.Pool != nil {
		deps.Pool.Start()
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.NewScheduler(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   deps.JobProvider,
		}, deps.Pool)
		if err != nil {
			return err
		}
		sched.Start()
	} else {
		log.Info().Msg("scheduler is disabled")
	}

	srv, errCh := StartServer(SetupRoutes(deps, cfg), cfg)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			GracefulShutdown(srv, sched, deps.Pool, cfg.Server.ShutdownTimeout)
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	GracefulShutdown(srv, sched, deps.Pool, cfg.Server.ShutdownTimeout)
	return nil
}
