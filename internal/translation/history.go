package translation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// MaxHistoryEntries bounds the per-user rolling message log used as
// translation context. Oldest entries are evicted first.
const MaxHistoryEntries = 2

// HistoryEntry is one recent message from a user, kept as context for
// resolving pronouns and omitted subjects in later messages.
type HistoryEntry struct {
	Message    string    `json:"message"`
	Language   Language  `json:"language"`
	CapturedAt time.Time `json:"captured_at"`
}

// KeyValueStore is the persistence capability the history log needs:
// one JSON value per user key. Get returns nil with no error when the
// key is absent.
type KeyValueStore interface {
	GetValue(ctx context.Context, key string) ([]byte, error)
	SetValue(ctx context.Context, key string, value []byte) error
}

// History is a bounded, per-user ordered log of recent messages.
// It is best-effort context, not authoritative state: read and write
// failures are logged and swallowed, never surfaced to callers.
type History struct {
	kv  KeyValueStore
	log *slog.Logger
}

// NewHistory creates a history log backed by the given key-value store.
func NewHistory(kv KeyValueStore, log *slog.Logger) *History {
	return &History{
		kv:  kv,
		log: log.With("component", "history"),
	}
}

// Get returns the user's history, oldest first. On any read or decode
// failure it returns an empty log.
func (h *History) Get(ctx context.Context, userKey string) []HistoryEntry {
	raw, err := h.kv.GetValue(ctx, userKey)
	if err != nil {
		h.log.WarnContext(ctx, "Failed to read history, treating as empty", "user_key", userKey, "error", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		h.log.WarnContext(ctx, "Failed to decode history, treating as empty", "user_key", userKey, "error", err)
		return nil
	}
	return entries
}

// Append adds an entry to the user's history, truncates to the most
// recent MaxHistoryEntries, and persists the result for that key.
func (h *History) Append(ctx context.Context, userKey string, entry HistoryEntry) {
	entries := append(h.Get(ctx, userKey), entry)
	if len(entries) > MaxHistoryEntries {
		entries = entries[len(entries)-MaxHistoryEntries:]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		h.log.WarnContext(ctx, "Failed to encode history", "user_key", userKey, "error", err)
		return
	}
	if err := h.kv.SetValue(ctx, userKey, raw); err != nil {
		h.log.WarnContext(ctx, "Failed to write history", "user_key", userKey, "error", err)
	}
}
