// Package main contains the entrypoint for the translation relay bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hn770123/line-recorder-bot-v3/internal/bot"
	"github.com/hn770123/line-recorder-bot-v3/internal/bot/tasks"
	"github.com/hn770123/line-recorder-bot-v3/internal/config"
	"github.com/hn770123/line-recorder-bot-v3/internal/database"
	"github.com/hn770123/line-recorder-bot-v3/internal/gemini"
	"github.com/hn770123/line-recorder-bot-v3/internal/line"
	"github.com/hn770123/line-recorder-bot-v3/internal/logger"
	"github.com/hn770123/line-recorder-bot-v3/internal/results"
	"github.com/hn770123/line-recorder-bot-v3/internal/translation"
	"github.com/hn770123/line-recorder-bot-v3/internal/webhook"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// database, Gemini backend, LINE client, dispatcher, scheduler), handles
// graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Database ping failed", "error", err)
		return 1
	}

	backend, err := gemini.NewBackend(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini backend", "error", err)
		return 1
	}

	translator := translation.NewClient(backend, translation.ClientConfig{
		Models:      cfg.Gemini.Models,
		MaxAttempts: cfg.Gemini.MaxAttempts,
		BackoffMin:  cfg.Gemini.BackoffMin,
		BackoffMax:  cfg.Gemini.BackoffMax,
	}, log)
	history := translation.NewHistory(store, log)
	svc := translation.NewService(history, translator, log)

	lineClient, err := line.New(cfg.Line, cfg.Server.BaseURL, cfg.Messages.PollResults, log)
	if err != nil {
		log.Error("Failed to create LINE client", "error", err)
		return 1
	}

	dedup := webhook.NewDeduplicator(cfg.Dedup.TTL)
	dispatcher := webhook.NewDispatcher(log, cfg.Messages, store, svc, dedup, lineClient)
	resultsHandler := results.NewHandler(store, log)
	router := bot.NewRouter(log, lineClient, dispatcher, resultsHandler)

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Dedup:  dedup,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, router, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
