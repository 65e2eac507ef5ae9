package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/hn770123/line-recorder-bot-v3/internal/config"
	"github.com/hn770123/line-recorder-bot-v3/internal/database"
	"github.com/hn770123/line-recorder-bot-v3/internal/translation"
)

// pollKeyword marks a message as a poll request, matched case-insensitively.
const pollKeyword = "[check]"

// nameDeclarationRe matches the fixed name-declaration phrase with the
// new display name in ASCII or Japanese corner quotes.
var nameDeclarationRe = regexp.MustCompile(`(?i)my name is\s*["「]([^"」]+)["」]`)

// Store is the persistence capability the dispatcher needs.
type Store interface {
	UpsertUser(ctx context.Context, userID, displayName string) error
	UpsertRoom(ctx context.Context, roomID string) error
	SavePost(ctx context.Context, post *database.Post) error
	UpsertAnswer(ctx context.Context, answer *database.Answer) error
	SaveTranslationLog(ctx context.Context, logEntry *database.TranslationLog) error
}

// Dispatcher routes inbound events: deduplicates, classifies each event,
// and drives the translation or poll path. It never fails its caller;
// every failure is logged and the platform sees a normal acknowledgment,
// so the platform's own retry machinery is never triggered by us.
type Dispatcher struct {
	log      *slog.Logger
	messages config.MessagesConfig
	store    Store
	svc      *translation.Service
	dedup    *Deduplicator
	replier  Replier

	newID func() string
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	log *slog.Logger,
	messages config.MessagesConfig,
	store Store,
	svc *translation.Service,
	dedup *Deduplicator,
	replier Replier,
) *Dispatcher {
	return &Dispatcher{
		log:      log.With("component", "dispatcher"),
		messages: messages,
		store:    store,
		svc:      svc,
		dedup:    dedup,
		replier:  replier,
		newID:    uuid.NewString,
	}
}

// Dispatch processes one webhook delivery: its events sequentially, in
// order, with no fan-out, since per-user history must not race within a
// batch.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		d.dispatchOne(ctx, ev)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "Panic while handling event", "event_id", ev.ID, "panic", r)
		}
	}()

	// Marked before processing: a crash mid-way loses the reply rather
	// than risking a duplicated one on redelivery.
	if ev.ID != "" && d.dedup.CheckAndMark(ev.ID) {
		d.log.InfoContext(ctx, "Skipping already processed event", "event_id", ev.ID)
		return
	}

	if ev.RoomID != "" {
		if err := d.store.UpsertRoom(ctx, ev.RoomID); err != nil {
			d.log.WarnContext(ctx, "Failed to record room", "room_id", ev.RoomID, "error", err)
		}
	}

	switch ev.Kind {
	case KindMessage:
		d.handleMessage(ctx, ev)
	case KindPostback:
		d.handlePostback(ctx, ev)
	default:
		d.log.DebugContext(ctx, "Ignoring event of unknown kind", "event_id", ev.ID)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, ev Event) {
	switch {
	case strings.Contains(lowerASCII(ev.Text), pollKeyword):
		d.handlePoll(ctx, ev)
	case nameDeclarationRe.MatchString(ev.Text):
		d.handleNameDeclaration(ctx, ev)
	default:
		d.handlePlainMessage(ctx, ev)
	}
}

// handlePlainMessage translates the message and replies with the result.
// A failed translation still produces a reply (never silence) and the
// original message is still recorded, with the translated field empty.
func (d *Dispatcher) handlePlainMessage(ctx context.Context, ev Event) {
	post := &database.Post{
		ID:        d.newID(),
		UserID:    ev.UserID,
		RoomID:    ev.RoomID,
		Message:   ev.Text,
		CreatedAt: ev.Timestamp,
	}

	res, err := d.svc.Translate(ctx, ev.UserID, ev.Text)
	if err != nil {
		d.log.ErrorContext(ctx, "Translation failed", "event_id", ev.ID, "user_id", ev.UserID, "error", err)

		msg := d.messages.ErrorGeneral
		if errors.Is(err, translation.ErrAllModelsExhausted) {
			msg = d.messages.ErrorRateLimited
		}
		d.reply(ctx, ev.ReplyToken, TextReply{Text: msg})
		d.savePost(ctx, post)
		return
	}

	post.Translated = res.Text
	d.reply(ctx, ev.ReplyToken, TextReply{Text: res.Text})
	d.svc.Remember(ctx, ev.UserID, ev.Text, res.Source)
	d.saveAuditLog(ctx, ev.UserID, ev.Text, res)
	d.savePost(ctx, post)
}

// handlePoll strips the poll keyword, translates the remaining question
// when non-empty, and replies with the translation (if any) followed by
// the three-button poll selector.
func (d *Dispatcher) handlePoll(ctx context.Context, ev Event) {
	question := stripPollKeyword(ev.Text)
	post := &database.Post{
		ID:        d.newID(),
		UserID:    ev.UserID,
		RoomID:    ev.RoomID,
		Message:   question,
		HasPoll:   true,
		CreatedAt: ev.Timestamp,
	}

	var replies []Reply
	if question != "" {
		res, err := d.svc.Translate(ctx, ev.UserID, question)
		if err != nil {
			d.log.ErrorContext(ctx, "Poll question translation failed", "event_id", ev.ID, "error", err)
		} else {
			post.Translated = res.Text
			replies = append(replies, TextReply{Text: res.Text})
			d.saveAuditLog(ctx, ev.UserID, question, res)
		}
	}
	replies = append(replies, PollReply{PostID: post.ID, Question: question})

	d.reply(ctx, ev.ReplyToken, replies...)
	d.savePost(ctx, post)
}

// handleNameDeclaration updates the sender's display name, translates
// the raw message so the conversation flow stays intact, and confirms.
func (d *Dispatcher) handleNameDeclaration(ctx context.Context, ev Event) {
	name := nameDeclarationRe.FindStringSubmatch(ev.Text)[1]

	if err := d.store.UpsertUser(ctx, ev.UserID, name); err != nil {
		d.log.ErrorContext(ctx, "Failed to update display name", "user_id", ev.UserID, "error", err)
	}

	post := &database.Post{
		ID:        d.newID(),
		UserID:    ev.UserID,
		RoomID:    ev.RoomID,
		Message:   ev.Text,
		CreatedAt: ev.Timestamp,
	}

	var replies []Reply
	res, err := d.svc.Translate(ctx, ev.UserID, ev.Text)
	if err != nil {
		d.log.ErrorContext(ctx, "Name declaration translation failed", "event_id", ev.ID, "error", err)
	} else {
		post.Translated = res.Text
		replies = append(replies, TextReply{Text: res.Text})
		d.saveAuditLog(ctx, ev.UserID, ev.Text, res)
	}
	replies = append(replies, TextReply{Text: fmt.Sprintf(d.messages.NameUpdated, name)})

	d.reply(ctx, ev.ReplyToken, replies...)
	d.savePost(ctx, post)
}

// handlePostback records a poll answer. One answer per (post, sender)
// pair; the latest overwrites.
func (d *Dispatcher) handlePostback(ctx context.Context, ev Event) {
	values, err := url.ParseQuery(ev.PostbackData)
	if err != nil {
		d.log.WarnContext(ctx, "Malformed postback data", "event_id", ev.ID, "error", err)
		return
	}
	if values.Get("action") != "answer" {
		d.log.DebugContext(ctx, "Ignoring postback with unknown action", "event_id", ev.ID, "action", values.Get("action"))
		return
	}

	value := values.Get("value")
	postID := values.Get("postId")
	if value == "" || postID == "" {
		d.log.WarnContext(ctx, "Postback answer missing value or post reference", "event_id", ev.ID)
		return
	}

	answer := &database.Answer{
		PostID: postID,
		UserID: ev.UserID,
		Value:  value,
	}
	if err := d.store.UpsertAnswer(ctx, answer); err != nil {
		d.log.ErrorContext(ctx, "Failed to record answer", "post_id", postID, "user_id", ev.UserID, "error", err)
	}
}

func (d *Dispatcher) reply(ctx context.Context, replyToken string, replies ...Reply) {
	if replyToken == "" || len(replies) == 0 {
		return
	}
	if err := d.replier.Reply(ctx, replyToken, replies); err != nil {
		d.log.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
}

func (d *Dispatcher) savePost(ctx context.Context, post *database.Post) {
	if err := d.store.SavePost(ctx, post); err != nil {
		d.log.ErrorContext(ctx, "Failed to record post", "post_id", post.ID, "error", err)
	}
}

func (d *Dispatcher) saveAuditLog(ctx context.Context, userID, original string, res *translation.Result) {
	entry := &database.TranslationLog{
		UserID:       userID,
		Language:     string(res.Source),
		Original:     original,
		Translated:   res.Text,
		Prompt:       res.Prompt,
		HistoryCount: res.HistoryCount,
	}
	if err := d.store.SaveTranslationLog(ctx, entry); err != nil {
		d.log.ErrorContext(ctx, "Failed to write translation log", "user_id", userID, "error", err)
	}
}

// stripPollKeyword removes the first occurrence of the poll keyword,
// case-insensitively, and trims the remainder.
func stripPollKeyword(text string) string {
	idx := strings.Index(lowerASCII(text), pollKeyword)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:idx] + text[idx+len(pollKeyword):])
}

// lowerASCII lower-cases ASCII letters only. Unlike strings.ToLower it
// is length-preserving, so byte offsets found in its output are valid
// in the original string; the poll keyword is pure ASCII.
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
