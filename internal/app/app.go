package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/backplane"
	"github.com/unalone/chat-service/internal/config"
	"github.com/unalone/chat-service/internal/core"
	"github.com/unalone/chat-service/internal/store"
	"github.com/unalone/chat-service/internal/store/sqlite"
	transporthttp "github.com/unalone/chat-service/internal/transport/http"
)

// App wires together store, hub, backplane, and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	backplane       *backplane.NATS
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	hub := core.NewHub(st, cfg.HistoryLimit, logger)

	var bp *backplane.NATS
	if cfg.NATSURL != "" {
		bp, err = backplane.Connect(cfg.NATSURL, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init backplane: %w", err)
		}
		hub.UseBackplane(bp)
		logger.Info().Str("nats_url", cfg.NATSURL).Msg("backplane connected")
	}

	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		backplane:       bp,
		log:             logger,
	}, nil
}

// Run starts the hub and HTTP server and blocks until context cancellation
// or a fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the backplane and database.
func (a *App) cleanup() {
	if a.backplane != nil {
		a.backplane.Close()
		a.log.Info().Msg("backplane closed")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
