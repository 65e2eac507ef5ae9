// Package webhook implements the inbound event model, the idempotency
// guard, and the dispatcher that routes platform events to the
// translation and poll paths.
package webhook

import (
	"context"
	"time"
)

// EventKind distinguishes the inbound event types the dispatcher handles.
type EventKind int

const (
	// KindMessage is a text message event.
	KindMessage EventKind = iota
	// KindPostback is a structured callback from an interactive element.
	KindPostback
)

// Event is one inbound notification from the messaging platform,
// already decoded from the platform's webhook payload. Immutable once
// received. ID is the platform-assigned event id and may repeat on
// redelivery; it is empty only for payloads that carry no id.
type Event struct {
	ID         string
	Kind       EventKind
	UserID     string
	RoomID     string // empty for 1:1 chats
	ReplyToken string
	Timestamp  time.Time

	Text         string // message events
	PostbackData string // postback events
}

// Reply is one outbound message in a reply batch.
type Reply interface {
	isReply()
}

// TextReply is a plain text message.
type TextReply struct {
	Text string
}

// PollReply is the poll selector payload: three answer buttons plus a
// link to the results page for the referenced post.
type PollReply struct {
	PostID   string
	Question string
}

func (TextReply) isReply() {}
func (PollReply) isReply() {}

// Replier delivers an ordered reply batch for a reply token. The
// platform adapter implements this.
type Replier interface {
	Reply(ctx context.Context, replyToken string, replies []Reply) error
}
