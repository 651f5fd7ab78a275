package linechat

import (
	"context"
	"net/http"
	"sync"
)

// MockClient is a mock LINE client for testing. It records outbound
// messages and can be configured to fail.
type MockClient struct {
	mu sync.Mutex

	messages []Message
	replies  []SentMessage
	pushes   []SentMessage
	names    map[string]string
	parseErr error
	replyErr error
	pushErr  error
}

// SentMessage is one recorded outbound message
type SentMessage struct {
	Target string // reply token or push target
	Text   string
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithMessages sets the messages ParseWebhook returns
func WithMessages(messages []Message) MockOption {
	return func(m *MockClient) {
		m.messages = messages
	}
}

// WithParseError sets an error to return from ParseWebhook
func WithParseError(err error) MockOption {
	return func(m *MockClient) {
		m.parseErr = err
	}
}

// WithReplyError sets an error to return from Reply
func WithReplyError(err error) MockOption {
	return func(m *MockClient) {
		m.replyErr = err
	}
}

// WithPushError sets an error to return from Push
func WithPushError(err error) MockOption {
	return func(m *MockClient) {
		m.pushErr = err
	}
}

// WithDisplayNames sets the userID -> display name mapping
func WithDisplayNames(names map[string]string) MockOption {
	return func(m *MockClient) {
		m.names = names
	}
}

// NewMockClient creates a mock client with the given options
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{names: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockClient) ParseWebhook(r *http.Request) ([]Message, error) {
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	return m.messages, nil
}

func (m *MockClient) Reply(ctx context.Context, replyToken, text string) error {
	if m.replyErr != nil {
		return m.replyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, SentMessage{Target: replyToken, Text: text})
	return nil
}

func (m *MockClient) Push(ctx context.Context, to, text string) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, SentMessage{Target: to, Text: text})
	return nil
}

func (m *MockClient) DisplayName(ctx context.Context, groupID, userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[userID]
}

// Replies returns the recorded reply messages
func (m *MockClient) Replies() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.replies))
	copy(out, m.replies)
	return out
}

// Pushes returns the recorded push messages
func (m *MockClient) Pushes() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.pushes))
	copy(out, m.pushes)
	return out
}

var _ Client = (*MockClient)(nil)
