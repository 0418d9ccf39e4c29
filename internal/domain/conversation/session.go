// Package conversation owns per-channel sessions: local message history,
// the remote thread handle, and the bridge into the run orchestrator.
package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docbot/internal/domain/run"
)

// Message is one entry of the local, append-only history. The remote thread
// remains the authoritative conversation state; this history is for audit
// and fallback only.
type Message struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TranscriptStore persists history entries. Implementations must treat
// appends as best effort; session flow never fails on store errors.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, msg Message) error
}

// Session drives conversational turns for one chat channel. Not safe for
// concurrent turns; callers serialize GetResponse per session.
type Session struct {
	id    string
	svc   run.Service
	orch  *run.Orchestrator
	store TranscriptStore
	log   zerolog.Logger

	threadID     string
	history      []Message
	pending      []Message
	lastUserText string
}

// NewSession creates a session. store may be nil when persistence is
// disabled.
func NewSession(svc run.Service, orch *run.Orchestrator, store TranscriptStore, log zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:    id,
		svc:   svc,
		orch:  orch,
		store: store,
		log:   log.With().Str("component", "session").Str("session_id", id).Logger(),
	}
}

// ID returns the session's local identifier.
func (s *Session) ID() string { return s.id }

// AddUserMessage appends a user message to the history and schedules it for
// the remote thread.
func (s *Session) AddUserMessage(text string) {
	s.lastUserText = text
	s.append(Message{Role: RoleUser, Text: text, At: time.Now()}, true)
}

// AddSystemMessage appends a system message to the history and schedules it
// for the remote thread. System messages are replayed onto every fresh
// thread so context survives a reset.
func (s *Session) AddSystemMessage(text string) {
	s.append(Message{Role: RoleSystem, Text: text, At: time.Now()}, true)
}

// GetResponse runs one conversational turn and returns the assistant's
// answer. It never returns an error; every failure degrades to fallback
// text, and a failed turn resets the thread handle so the next turn starts
// clean.
func (s *Session) GetResponse(ctx context.Context) string {
	if err := s.ensureThread(ctx); err != nil {
		s.log.Error().Err(err).Msg("thread creation failed")
		s.reset()
		return s.finish(Message{Role: RoleAssistant, Text: run.Apology, At: time.Now()})
	}

	if err := s.flushPending(ctx); err != nil {
		s.log.Error().Err(err).Msg("posting pending messages failed")
		s.reset()
		return s.finish(Message{Role: RoleAssistant, Text: run.Apology, At: time.Now()})
	}

	outcome := s.orch.Execute(ctx, s.threadID, s.lastUserText)
	if outcome.Failed {
		s.reset()
	}
	return s.finish(Message{Role: RoleAssistant, Text: outcome.Text, At: time.Now()})
}

// History returns a copy of the local message history.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) ensureThread(ctx context.Context) error {
	if s.threadID != "" {
		return nil
	}
	threadID, err := s.svc.CreateThread(ctx)
	if err != nil {
		return err
	}
	s.threadID = threadID
	s.log.Info().Str("thread_id", threadID).Msg("thread created")
	return nil
}

func (s *Session) flushPending(ctx context.Context) error {
	for len(s.pending) > 0 {
		msg := s.pending[0]
		if err := s.svc.CreateMessage(ctx, s.threadID, msg.Role, msg.Text); err != nil {
			return err
		}
		s.pending = s.pending[1:]
	}
	return nil
}

// reset drops the thread handle. The next turn creates a fresh thread and
// replays the system messages so it is not context-free.
func (s *Session) reset() {
	s.threadID = ""
	replay := make([]Message, 0)
	for _, msg := range s.history {
		if msg.Role == RoleSystem {
			replay = append(replay, msg)
		}
	}
	s.pending = replay
}

func (s *Session) append(msg Message, pending bool) {
	s.history = append(s.history, msg)
	if pending {
		s.pending = append(s.pending, msg)
	}
	s.persist(msg)
}

func (s *Session) finish(msg Message) string {
	s.history = append(s.history, msg)
	s.persist(msg)
	return msg.Text
}

func (s *Session) persist(msg Message) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Append(ctx, s.id, msg); err != nil {
		s.log.Warn().Err(err).Msg("transcript append failed")
	}
}
