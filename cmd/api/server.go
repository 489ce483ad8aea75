package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/interfaces/scheduler"
	"bridgesync/internal/shared/config"
)

// StartServer creates and starts the HTTP server in the background.
// errCh receives the listen error if the server stops unexpectedly.
func StartServer(handler http.Handler, cfg *config.Config) (*http.Server, <-chan error) {
	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Bridge.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return srv, errCh
}

// GracefulShutdown stops accepting requests, then stops the scheduler and
// drains the worker pool.
func GracefulShutdown(srv *http.Server, sched *scheduler.Scheduler, pool *scheduler.WorkerPool, timeout time.Duration) {
	log.Info().Msg("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down HTTP server")
	}

	if sched != nil {
		sched.Shutdown(timeout)
	}
	if pool != nil {
		pool.Shutdown(timeout)
	}

	log.Info().Msg("server stopped")
}
