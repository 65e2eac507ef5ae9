package bot

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hn770123/line-recorder-bot-v3/internal/line"
	"github.com/hn770123/line-recorder-bot-v3/internal/logger"
	"github.com/hn770123/line-recorder-bot-v3/internal/results"
	"github.com/hn770123/line-recorder-bot-v3/internal/webhook"
)

// NewRouter builds the HTTP routing table: the LINE webhook endpoint and
// the public poll results page.
func NewRouter(log *slog.Logger, lineClient *line.Client, dispatcher *webhook.Dispatcher, resultsHandler *results.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.Middleware(log))

	r.Post("/webhook", webhookHandler(log, lineClient, dispatcher))
	r.Get("/polls/{postID}", resultsHandler.ServeHTTP)

	return r
}

// webhookHandler verifies and parses inbound LINE webhook requests and
// hands the events to the dispatcher. Only a signature failure produces a
// non-200 status; everything past verification is acknowledged so the
// platform does not redeliver events we have already accepted.
func webhookHandler(log *slog.Logger, lineClient *line.Client, dispatcher *webhook.Dispatcher) http.HandlerFunc {
	log = log.With("component", "webhook_handler")

	return func(w http.ResponseWriter, r *http.Request) {
		events, err := lineClient.ParseRequest(r)
		if err != nil {
			if errors.Is(err, line.ErrInvalidSignature) {
				log.Warn("Rejected webhook request with invalid signature")
				http.Error(w, "invalid signature", http.StatusBadRequest)
				return
			}

			log.Error("Failed to parse webhook request body", "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		dispatcher.Dispatch(r.Context(), events)
		w.WriteHeader(http.StatusOK)
	}
}
