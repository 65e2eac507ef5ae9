// Package tasks implements the bot's scheduled background tasks and
// their registration.
package tasks

import (
	"log/slog"

	"github.com/hn770123/line-recorder-bot-v3/internal/config"
	"github.com/hn770123/line-recorder-bot-v3/internal/database"
	"github.com/hn770123/line-recorder-bot-v3/internal/webhook"
)

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Dedup  *webhook.Deduplicator
	Config *config.Config
}
