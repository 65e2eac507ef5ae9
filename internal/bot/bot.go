// Package bot implements lifecycle management and component orchestration
// for the translation relay bot: the webhook HTTP server and the background
// task scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hn770123/line-recorder-bot-v3/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Bot is the main application object tying the HTTP server and the
// scheduler together under one lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *http.Server
	scheduler *Scheduler
}

// NewBot creates the bot orchestrator around a fully wired router and
// scheduler.
func NewBot(logger *slog.Logger, cfg *config.Config, handler http.Handler, scheduler *Scheduler) *Bot {
	return &Bot{
		logger: logger.With("component", "bot_orchestrator"),
		cfg:    cfg,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
	}
}

// Run starts the webhook server and the scheduler, blocking until the
// context is cancelled or a component fails. Shutdown is graceful: the
// HTTP server drains in-flight requests and the scheduler waits for
// running jobs.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting webhook server...", "addr", b.server.Addr)

		err := b.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("Webhook server stopped unexpectedly", "error", err)
			return fmt.Errorf("webhook server: %w", err)
		}

		b.logger.Info("Webhook server stopped.")
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping webhook server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down webhook server", "error", err)
			return fmt.Errorf("webhook server shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
