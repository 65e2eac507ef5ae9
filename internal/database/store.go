package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// translationLogRetention is how long audit records are kept before the
// maintenance task prunes them.
const translationLogRetention = 90 * 24 * time.Hour

// Store defines the interface for database operations. Methods accept
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser inserts a user or updates their display name.
	UpsertUser(ctx context.Context, userID, displayName string) error

	// GetUser retrieves a user by ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID string) (*User, error)

	// UpsertRoom records a group conversation the first time it is seen.
	UpsertRoom(ctx context.Context, roomID string) error

	// SavePost inserts a new post record.
	SavePost(ctx context.Context, post *Post) error

	// GetPost retrieves a post by ID. Returns nil, nil if not found.
	GetPost(ctx context.Context, id string) (*Post, error)

	// UpsertAnswer inserts a poll answer, overwriting any earlier answer
	// from the same user for the same post.
	UpsertAnswer(ctx context.Context, answer *Answer) error

	// ListAnswers retrieves all answers for a post with respondent names.
	ListAnswers(ctx context.Context, postID string) ([]AnswerRecord, error)

	// SaveTranslationLog appends one translation audit record.
	SaveTranslationLog(ctx context.Context, logEntry *TranslationLog) error

	// GetValue reads the raw history value for a user key. Returns
	// nil, nil when the key is absent.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// SetValue replaces the raw history value for a user key.
	SetValue(ctx context.Context, key string, value []byte) error

	// RunMaintenance prunes old audit records and compacts the database.
	RunMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) UpsertUser(ctx context.Context, userID, displayName string) error {
	if userID == "" {
		return fmt.Errorf("user must have a non-empty user_id")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO users (user_id, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at   = excluded.updated_at;
	`
	if _, err := s.db.ExecContext(ctx, query, userID, displayName, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to upsert user %s: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE user_id = ?;`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return &user, nil
}

func (s *sqlxStore) UpsertRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room must have a non-empty room_id")
	}

	query := `INSERT INTO rooms (room_id, created_at) VALUES (?, ?) ON CONFLICT (room_id) DO NOTHING;`
	if _, err := s.db.ExecContext(ctx, query, roomID, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting room", "room_id", roomID, "error", err)
		return fmt.Errorf("failed to upsert room %s: %w", roomID, err)
	}
	return nil
}

func (s *sqlxStore) SavePost(ctx context.Context, post *Post) error {
	if post == nil {
		return fmt.Errorf("cannot save nil post")
	}
	if post.ID == "" {
		return fmt.Errorf("post must have a non-empty id")
	}
	if post.UserID == "" {
		return fmt.Errorf("post must have a non-empty user_id")
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO posts (id, user_id, room_id, message, translated, has_poll, created_at)
		VALUES (:id, :user_id, :room_id, :message, :translated, :has_poll, :created_at);
	`
	if _, err := s.db.NamedExecContext(ctx, query, post); err != nil {
		s.logger.ErrorContext(ctx, "Error saving post", "post_id", post.ID, "user_id", post.UserID, "error", err)
		return fmt.Errorf("failed to save post %s: %w", post.ID, err)
	}
	return nil
}

func (s *sqlxStore) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := s.db.GetContext(ctx, &post, `SELECT * FROM posts WHERE id = ?;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return &post, nil
}

func (s *sqlxStore) UpsertAnswer(ctx context.Context, answer *Answer) error {
	if answer == nil {
		return fmt.Errorf("cannot save nil answer")
	}
	if answer.PostID == "" || answer.UserID == "" {
		return fmt.Errorf("answer must reference a post and a user")
	}

	now := time.Now().UTC()
	answer.CreatedAt = now
	answer.UpdatedAt = now

	query := `
		INSERT INTO answers (post_id, user_id, value, created_at, updated_at)
		VALUES (:post_id, :user_id, :value, :created_at, :updated_at)
		ON CONFLICT (post_id, user_id) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at;
	`
	if _, err := s.db.NamedExecContext(ctx, query, answer); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting answer",
			"post_id", answer.PostID, "user_id", answer.UserID, "error", err)
		return fmt.Errorf("failed to upsert answer for post %s: %w", answer.PostID, err)
	}
	return nil
}

func (s *sqlxStore) ListAnswers(ctx context.Context, postID string) ([]AnswerRecord, error) {
	query := `
		SELECT a.post_id, a.user_id, a.value, a.created_at, a.updated_at,
		       COALESCE(u.display_name, '') AS display_name
		FROM answers a
		LEFT JOIN users u ON u.user_id = a.user_id
		WHERE a.post_id = ?
		ORDER BY a.updated_at ASC;
	`
	var records []AnswerRecord
	if err := s.db.SelectContext(ctx, &records, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list answers for post %s: %w", postID, err)
	}
	return records, nil
}

func (s *sqlxStore) SaveTranslationLog(ctx context.Context, logEntry *TranslationLog) error {
	if logEntry == nil {
		return fmt.Errorf("cannot save nil translation log")
	}
	if logEntry.CreatedAt.IsZero() {
		logEntry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO translation_logs (created_at, user_id, language, original, translated, prompt, history_count)
		VALUES (:created_at, :user_id, :language, :original, :translated, :prompt, :history_count);
	`
	if _, err := s.db.NamedExecContext(ctx, query, logEntry); err != nil {
		s.logger.ErrorContext(ctx, "Error saving translation log", "user_id", logEntry.UserID, "error", err)
		return fmt.Errorf("failed to save translation log: %w", err)
	}
	return nil
}

func (s *sqlxStore) GetValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM user_history WHERE user_key = ?;`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history value for %s: %w", key, err)
	}
	return value, nil
}

func (s *sqlxStore) SetValue(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("history key must be non-empty")
	}

	query := `
		INSERT INTO user_history (user_key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at;
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write history value for %s: %w", key, err)
	}
	return nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-translationLogRetention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_logs WHERE created_at < ?;`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune translation logs: %w", err)
	}
	if pruned, err := res.RowsAffected(); err == nil && pruned > 0 {
		s.logger.InfoContext(ctx, "Pruned old translation logs", "rows", pruned)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM;`); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `ANALYZE;`); err != nil {
		return fmt.Errorf("failed to analyze database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
