// Package session owns the server-side routing point: one session per live
// connection, a transcript per session, and the funnel from questions to the
// answer generator.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eduline/eduline/internal/model/chat"
	"github.com/eduline/eduline/internal/service/answer"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrGeneratorUnavailable = errors.New("answer service unavailable")
)

// Registry maps live connections to sessions and routes their questions to
// the answer generator. The connection-to-session map is only written on
// connect/disconnect and read on routing; transcripts are append-only.
type Registry struct {
	generator answer.Generator

	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewRegistry bootstraps the in-memory registry. The generator may be nil
// when the model is not configured; asking then fails with
// ErrGeneratorUnavailable instead of tearing anything down.
func NewRegistry(generator answer.Generator) *Registry {
	return &Registry{
		generator: generator,
		sessions:  make(map[string]chat.Session),
		messages:  make(map[string][]chat.Message),
	}
}

// Begin mints a session for a freshly established connection.
func (r *Registry) Begin(_ context.Context) chat.Session {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.messages[session.ID] = make([]chat.Message, 0, 16)
	r.mu.Unlock()

	log.Debug().Str("session", session.ID).Msg("session started")
	return session
}

// End releases the session when its connection goes away. No further
// routing occurs for it.
func (r *Registry) End(_ context.Context, sessionID string) {
	r.mu.Lock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	delete(r.messages, sessionID)
	r.mu.Unlock()

	if !ok {
		return
	}
	if r.generator != nil {
		r.generator.Forget(sessionID)
	}
	log.Debug().Str("session", sessionID).Msg("session ended")
}

// Lookup retrieves a session by identifier.
func (r *Registry) Lookup(_ context.Context, sessionID string) (chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Ask forwards one question to the answer generator and records both turns
// in the session transcript. Generator failures come back as plain errors
// for the caller to surface; they never remove the session. The registry
// does not serialize questions for a session - one-at-a-time is the
// client's contract, and the generator guards its own context.
func (r *Registry) Ask(ctx context.Context, sessionID, question string) (string, error) {
	if _, err := r.Lookup(ctx, sessionID); err != nil {
		return "", err
	}
	if r.generator == nil {
		return "", ErrGeneratorUnavailable
	}

	r.append(sessionID, chat.SenderUser, question)

	answerText, err := r.generator.GenerateAnswer(ctx, sessionID, question)
	if err != nil {
		return "", err
	}

	r.append(sessionID, chat.SenderAI, answerText)
	return answerText, nil
}

// Transcript returns a copy of the stored messages for the session.
func (r *Registry) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages, ok := r.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// append records one turn. The session may have ended while a question was
// outstanding; the turn is dropped then.
func (r *Registry) append(sessionID, sender, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, ok := r.messages[sessionID]
	if !ok {
		return
	}

	r.messages[sessionID] = append(messages, chat.Message{
		ID:        int64(len(messages) + 1),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}
