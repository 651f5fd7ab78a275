// Package linechat provides a narrow client for the LINE Messaging API:
// webhook parsing on the way in, fire-and-forget text replies on the way
// out. The rest of the application never touches the SDK directly.
package linechat

import (
	"context"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Message is one inbound text message from a chat. Signature verification
// has already happened during webhook parsing.
type Message struct {
	Text       string
	UserID     string
	GroupID    string
	ReplyToken string
	ReceivedAt time.Time
}

// Client defines the interface for LINE messaging operations
type Client interface {
	// ParseWebhook verifies and parses an incoming webhook request into
	// text messages. Non-text events are dropped.
	ParseWebhook(r *http.Request) ([]Message, error)
	// Reply sends a text reply using a one-shot reply token.
	Reply(ctx context.Context, replyToken, text string) error
	// Push sends a text message to a user, group, or room id.
	Push(ctx context.Context, to, text string) error
	// DisplayName resolves a member's display name, best effort; an empty
	// string is returned when the profile cannot be fetched.
	DisplayName(ctx context.Context, groupID, userID string) string
}

// BotClient implements Client against the LINE Messaging API
type BotClient struct {
	bot *linebot.Client
}

// New creates a BotClient from channel credentials
func New(channelSecret, channelToken string) (*BotClient, error) {
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, err
	}
	return &BotClient{bot: bot}, nil
}

// ParseWebhook verifies the request signature and extracts text messages
func (c *BotClient) ParseWebhook(r *http.Request) ([]Message, error) {
	events, err := c.bot.ParseRequest(r)
	if err != nil {
		return nil, err
	}

	var messages []Message
	for _, ev := range events {
		if ev.Type != linebot.EventTypeMessage || ev.Source == nil {
			continue
		}
		text, ok := ev.Message.(*linebot.TextMessage)
		if !ok {
			continue
		}
		messages = append(messages, Message{
			Text:       text.Text,
			UserID:     ev.Source.UserID,
			GroupID:    ev.Source.GroupID,
			ReplyToken: ev.ReplyToken,
			ReceivedAt: ev.Timestamp,
		})
	}
	return messages, nil
}

// Reply sends a text reply for a webhook event
func (c *BotClient) Reply(ctx context.Context, replyToken, text string) error {
	_, err := c.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

// Push sends a text message to a chat id
func (c *BotClient) Push(ctx context.Context, to, text string) error {
	_, err := c.bot.PushMessage(to, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

// DisplayName fetches a member's profile name. Group member profiles need
// the group scope; direct chats fall back to the user profile.
func (c *BotClient) DisplayName(ctx context.Context, groupID, userID string) string {
	if userID == "" {
		return ""
	}
	if groupID != "" {
		profile, err := c.bot.GetGroupMemberProfile(groupID, userID).WithContext(ctx).Do()
		if err == nil {
			return profile.DisplayName
		}
	}
	profile, err := c.bot.GetProfile(userID).WithContext(ctx).Do()
	if err != nil {
		return ""
	}
	return profile.DisplayName
}

var _ Client = (*BotClient)(nil)
