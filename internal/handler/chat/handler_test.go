package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eduline/eduline/internal/model/chat"
	sessionservice "github.com/eduline/eduline/internal/service/session"
)

type fixedGenerator struct {
	answer string
}

func (g fixedGenerator) GenerateAnswer(context.Context, string, string) (string, error) {
	return g.answer, nil
}

func (g fixedGenerator) Forget(string) {}

func setupRouter() (*chi.Mux, *sessionservice.Registry) {
	registry := sessionservice.NewRegistry(fixedGenerator{answer: "42"})
	handler := New(registry)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, registry
}

func TestGetSessionFound(t *testing.T) {
	r, registry := setupRouter()
	session := registry.Begin(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("unexpected session id: %s", got.ID)
	}
}

func TestGetSessionMissing(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetTranscriptOrdering(t *testing.T) {
	r, registry := setupRouter()
	ctx := context.Background()
	session := registry.Begin(ctx)

	if _, err := registry.Ask(ctx, session.ID, "what is the answer?"); err != nil {
		t.Fatalf("Ask err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID+"/transcript", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got struct {
		SessionID string         `json:"sessionId"`
		Messages  []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Sender != chat.SenderUser || got.Messages[1].Sender != chat.SenderAI {
		t.Fatalf("unexpected ordering: %+v", got.Messages)
	}
}

func TestGetTranscriptMissingSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope/transcript", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
