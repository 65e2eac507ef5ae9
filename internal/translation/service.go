package translation

import (
	"context"
	"log/slog"
	"time"
)

// Result bundles a finished translation with the prompt that produced
// it. The prompt is retained for audit logging.
type Result struct {
	Text         string
	Prompt       string
	Source       Language
	HistoryCount int
}

// Service orchestrates the translation pipeline: detect the source
// language, read the caller's recent history, build the prompt, and
// invoke the model client.
type Service struct {
	history *History
	client  *Client
	log     *slog.Logger
}

// NewService creates a translation service.
func NewService(history *History, client *Client, log *slog.Logger) *Service {
	return &Service{
		history: history,
		client:  client,
		log:     log.With("component", "translation_service"),
	}
}

// Translate produces a context-aware translation of message for the
// given user key. History is read-only input here; recording the message
// into history is the caller's separate, explicit step (Remember), so a
// failed translation still leaves an accurate journal of what happened.
func (s *Service) Translate(ctx context.Context, userKey, message string) (*Result, error) {
	source := Detect(message)
	entries := s.history.Get(ctx, userKey)
	prompt := BuildPrompt(message, entries, source)

	s.log.DebugContext(ctx, "Requesting translation",
		"user_key", userKey, "source", source, "history_count", len(entries))

	text, err := s.client.Translate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:         text,
		Prompt:       prompt,
		Source:       source,
		HistoryCount: len(entries),
	}, nil
}

// Remember appends the message to the user's rolling history window.
func (s *Service) Remember(ctx context.Context, userKey, message string, source Language) {
	s.history.Append(ctx, userKey, HistoryEntry{
		Message:    message,
		Language:   source,
		CapturedAt: time.Now().UTC(),
	})
}
