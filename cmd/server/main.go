package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/caisseresto/api/internal/cart"
	"github.com/caisseresto/api/internal/config"
	"github.com/caisseresto/api/internal/database"
	"github.com/caisseresto/api/internal/router"
	"github.com/caisseresto/api/internal/service"
	"github.com/caisseresto/api/internal/store"
	"github.com/caisseresto/api/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := config.NewLogger(cfg.Logger)

	st, cleanup, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer cleanup()

	hub := ws.NewHub()
	go hub.Run()

	orderService := service.NewOrderService(st, hub, cart.MonotonicID(), cart.Now, logger)

	r := router.New(cfg, st, orderService, hub, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine so shutdown signals can be handled.
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Address()).
			Str("backend", cfg.Storage.Backend).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

// newStore builds the storage backend the configuration selects. The
// returned cleanup releases whatever the backend holds open.
func newStore(cfg *config.Config, logger zerolog.Logger) (store.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.NewPostgresStore(pool, logger), pool.Close, nil
	default:
		st, err := store.NewFileStore(cfg.Storage.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}
}
