package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"docbot/internal/domain/conversation"
)

// SessionFactory builds a fresh session for a conversation key.
type SessionFactory func() *conversation.Session

// Router owns the channel-to-session mapping and processes one inbound
// event end to end: record the user message, run the turn, split and send
// the answer. Events for the same conversation key must be processed
// sequentially; the worker pool guarantees that by keying events.
type Router struct {
	gateway      Gateway
	newSession   SessionFactory
	messageLimit int
	log          zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*conversation.Session
}

// NewRouter creates a chat event router.
func NewRouter(gateway Gateway, factory SessionFactory, messageLimit int, log zerolog.Logger) *Router {
	return &Router{
		gateway:      gateway,
		newSession:   factory,
		messageLimit: messageLimit,
		log:          log.With().Str("component", "chat-router").Logger(),
		sessions:     make(map[string]*conversation.Session),
	}
}

// HandleEvent processes one inbound chat event.
func (r *Router) HandleEvent(ctx context.Context, ev Event) error {
	session := r.sessionFor(ev)
	session.AddUserMessage(ev.Text)

	answer := session.GetResponse(ctx)

	for _, chunk := range SplitMessage(answer, r.messageLimit) {
		if err := r.gateway.SendMessage(ctx, ev.Channel, chunk, ev.ThreadTS); err != nil {
			return fmt.Errorf("send answer to %s: %w", ev.Channel, err)
		}
	}
	return nil
}

// Key returns the conversation key of an event. Events sharing a key map to
// one session and are serialized by the worker pool.
func Key(ev Event) string {
	if ev.ThreadTS != "" {
		return ev.Channel + "/" + ev.ThreadTS
	}
	return ev.Channel
}

func (r *Router) sessionFor(ev Event) *conversation.Session {
	key := Key(ev)

	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[key]; ok {
		return session
	}
	session := r.newSession()
	r.sessions[key] = session
	r.log.Info().Str("conversation_key", key).Str("session_id", session.ID()).Msg("session created")
	return session
}
