package database

import "time"

// User is a known chat participant. DisplayName is set by the name
// declaration command and may be empty for users seen only through
// their messages.
type User struct {
	UserID      string    `db:"user_id"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Room is a group conversation the bot has seen traffic from.
type Room struct {
	RoomID    string    `db:"room_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Post records one inbound chat message. The original message is always
// recorded; Translated stays empty when translation failed. HasPoll
// marks posts created through the poll keyword.
type Post struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	RoomID     string    `db:"room_id"`
	Message    string    `db:"message"`
	Translated string    `db:"translated"`
	HasPoll    bool      `db:"has_poll"`
	CreatedAt  time.Time `db:"created_at"`
}

// Answer is one user's poll answer. One row per (post, user) pair;
// later answers overwrite earlier ones.
type Answer struct {
	PostID    string    `db:"post_id"`
	UserID    string    `db:"user_id"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AnswerRecord is an answer joined with the respondent's display name,
// as shown on the poll results page.
type AnswerRecord struct {
	Answer
	DisplayName string `db:"display_name"`
}

// TranslationLog is one audit record of a translation attempt,
// including the full prompt that was sent to the model.
type TranslationLog struct {
	ID           uint      `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	UserID       string    `db:"user_id"`
	Language     string    `db:"language"`
	Original     string    `db:"original"`
	Translated   string    `db:"translated"`
	Prompt       string    `db:"prompt"`
	HistoryCount int       `db:"history_count"`
}
