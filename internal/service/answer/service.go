package answer

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/eduline/eduline/internal/config"
)

// Service implements Generator on top of an Ark chat model. Each session
// keeps its own history inside the service, guarded by a per-session lock so
// overlapping questions for one session serialize instead of interleaving
// context updates.
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int

	mu       sync.Mutex
	sessions map[string]*sessionContext
}

type sessionContext struct {
	mu      sync.Mutex
	history []*schema.Message
}

// NewService compiles the tutor chain against the configured chat model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tutor chain: %w", err)
	}

	limit := cfg.HistoryLimit
	if limit < 1 {
		limit = 1
	}

	return &Service{
		chain:        runnable,
		historyLimit: limit,
		sessions:     make(map[string]*sessionContext),
	}, nil
}

// GenerateAnswer runs one question through the tutor chain and records both
// turns in the session's history.
func (s *Service) GenerateAnswer(ctx context.Context, sessionID, question string) (string, error) {
	sc := s.session(sessionID)

	sc.mu.Lock()
	defer sc.mu.Unlock()

	input := map[string]any{
		"system":  tutorSystemPrompt,
		"history": trimHistory(sc.history, s.historyLimit),
		"query":   question,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run tutor chain: %w", err)
	}

	sc.history = append(sc.history,
		schema.UserMessage(question),
		schema.AssistantMessage(response.Content, nil),
	)

	log.Debug().
		Str("session", sessionID).
		Int("answer_len", len(response.Content)).
		Int("history", len(sc.history)).
		Msg("generated answer")

	return response.Content, nil
}

// Forget drops the session's conversational context.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *Service) session(sessionID string) *sessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		sc = &sessionContext{}
		s.sessions[sessionID] = sc
	}
	return sc
}

func trimHistory(history []*schema.Message, limit int) []*schema.Message {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
