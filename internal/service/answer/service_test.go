package answer

import (
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestTrimHistory(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("q1"),
		schema.AssistantMessage("a1", nil),
		schema.UserMessage("q2"),
		schema.AssistantMessage("a2", nil),
	}

	trimmed := trimHistory(history, 2)
	if len(trimmed) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(trimmed))
	}
	if trimmed[0].Content != "q2" || trimmed[1].Content != "a2" {
		t.Fatalf("expected the most recent turns, got %q %q", trimmed[0].Content, trimmed[1].Content)
	}

	if got := trimHistory(history, 10); len(got) != len(history) {
		t.Fatalf("short history must pass through, got %d", len(got))
	}
}

func TestSessionContextLifecycle(t *testing.T) {
	s := &Service{sessions: make(map[string]*sessionContext)}

	first := s.session("sess-1")
	if s.session("sess-1") != first {
		t.Fatal("expected the same context for the same session")
	}
	if s.session("sess-2") == first {
		t.Fatal("expected distinct contexts per session")
	}

	s.Forget("sess-1")
	if s.session("sess-1") == first {
		t.Fatal("expected a fresh context after Forget")
	}
}
