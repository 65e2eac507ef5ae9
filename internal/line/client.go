// Package line adapts the LINE Messaging API to the bot's internal
// event and reply model. It is the only package that imports the LINE SDK.
package line

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/hn770123/line-recorder-bot-v3/internal/config"
	"github.com/hn770123/line-recorder-bot-v3/internal/webhook"
)

// buttonsTextLimit is the LINE buttons template text limit without a
// title or thumbnail.
const buttonsTextLimit = 160

// ErrInvalidSignature reports a webhook request whose signature does not
// match the channel secret.
var ErrInvalidSignature = linebot.ErrInvalidSignature

// Client wraps the LINE bot SDK client.
type Client struct {
	bot            *linebot.Client
	resultsBaseURL string
	resultsLabel   string
	log            *slog.Logger
}

// New creates a LINE client. resultsBaseURL is the externally reachable
// server URL used to build poll results links.
func New(cfg config.LineConfig, resultsBaseURL, resultsLabel string, log *slog.Logger) (*Client, error) {
	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}

	return &Client{
		bot:            bot,
		resultsBaseURL: resultsBaseURL,
		resultsLabel:   resultsLabel,
		log:            log.With("component", "line_client"),
	}, nil
}

// ParseRequest validates the webhook signature and decodes the delivery
// into internal events. Event types the bot does not handle (stickers,
// media, membership events) are dropped here.
func (c *Client) ParseRequest(r *http.Request) ([]webhook.Event, error) {
	lineEvents, err := c.bot.ParseRequest(r)
	if err != nil {
		return nil, err
	}

	events := make([]webhook.Event, 0, len(lineEvents))
	for _, le := range lineEvents {
		ev, ok := c.convertEvent(le)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *Client) convertEvent(le *linebot.Event) (webhook.Event, bool) {
	if le.Source == nil {
		return webhook.Event{}, false
	}

	roomID := le.Source.GroupID
	if roomID == "" {
		roomID = le.Source.RoomID
	}

	ev := webhook.Event{
		ID:         le.WebhookEventID,
		UserID:     le.Source.UserID,
		RoomID:     roomID,
		ReplyToken: le.ReplyToken,
		Timestamp:  le.Timestamp,
	}

	switch le.Type {
	case linebot.EventTypeMessage:
		text, ok := le.Message.(*linebot.TextMessage)
		if !ok {
			c.log.Debug("Dropping non-text message event", "event_id", le.WebhookEventID)
			return webhook.Event{}, false
		}
		ev.Kind = webhook.KindMessage
		ev.Text = text.Text
		return ev, true

	case linebot.EventTypePostback:
		if le.Postback == nil {
			return webhook.Event{}, false
		}
		ev.Kind = webhook.KindPostback
		ev.PostbackData = le.Postback.Data
		return ev, true

	default:
		c.log.Debug("Dropping unhandled event type", "type", le.Type, "event_id", le.WebhookEventID)
		return webhook.Event{}, false
	}
}

// Reply sends the reply batch for a reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, replies []webhook.Reply) error {
	messages := make([]linebot.SendingMessage, 0, len(replies))
	for _, reply := range replies {
		switch r := reply.(type) {
		case webhook.TextReply:
			messages = append(messages, linebot.NewTextMessage(r.Text))
		case webhook.PollReply:
			messages = append(messages, c.pollMessage(r))
		default:
			return fmt.Errorf("unsupported reply type %T", reply)
		}
	}
	if len(messages) == 0 {
		return nil
	}

	if _, err := c.bot.ReplyMessage(replyToken, messages...).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send LINE reply: %w", err)
	}
	return nil
}

// pollMessage renders the poll selector: a buttons template with the
// three fixed answer actions and a link to the results page.
func (c *Client) pollMessage(poll webhook.PollReply) linebot.SendingMessage {
	question := poll.Question
	if question == "" {
		question = "Poll"
	}
	question = truncate(question, buttonsTextLimit)

	data := func(value string) string {
		return "action=answer&value=" + value + "&postId=" + poll.PostID
	}
	template := linebot.NewButtonsTemplate(
		"", "", question,
		linebot.NewPostbackAction("OK", data("OK"), "", "OK", "", ""),
		linebot.NewPostbackAction("NG", data("NG"), "", "NG", "", ""),
		linebot.NewPostbackAction("N/A", data("N/A"), "", "N/A", "", ""),
		linebot.NewURIAction(c.resultsLabel, c.resultsBaseURL+"/polls/"+poll.PostID),
	)

	return linebot.NewTemplateMessage("Poll: "+question, template)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
