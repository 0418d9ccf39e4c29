// Package chat routes inbound chat-platform events to conversation sessions
// and relays answers back through an outbound gateway. Platform connectivity
// itself lives outside this service; both directions cross a simple
// HTTP/webhook contract.
package chat

import "context"

// Event is one inbound chat message.
type Event struct {
	Channel  string `json:"channel" binding:"required"`
	ThreadTS string `json:"thread_ts,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Text     string `json:"text" binding:"required"`
}

// Gateway delivers outbound messages to the chat platform.
type Gateway interface {
	SendMessage(ctx context.Context, channel, text, threadTS string) error
}
