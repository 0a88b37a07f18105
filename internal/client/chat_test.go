package client

import (
	"errors"
	"testing"

	"github.com/eduline/eduline/internal/model/chat"
	"github.com/eduline/eduline/internal/protocol"
)

type captureSender struct {
	frames []protocol.Ask
	err    error
}

func (s *captureSender) Send(ask protocol.Ask) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, ask)
	return nil
}

func (s *captureSender) last() protocol.Ask {
	return s.frames[len(s.frames)-1]
}

func TestSubmitWhileIdle(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("What is a derivative?"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	state := c.Snapshot()
	if !state.Pending {
		t.Fatal("expected pending after submit")
	}
	if len(state.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(state.Messages))
	}
	if state.Messages[0].Sender != chat.SenderUser {
		t.Fatalf("expected user message, got %s", state.Messages[0].Sender)
	}
	if len(sender.frames) != 1 {
		t.Fatalf("expected 1 frame on the wire, got %d", len(sender.frames))
	}
}

func TestSubmitQuestionReachesWireVerbatim(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	const question = "Explain  Newton's   second law?"
	if err := c.Submit(question); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if got := sender.last().Question; got != question {
		t.Fatalf("question altered on the wire: %q != %q", got, question)
	}
}

func TestSubmitEmptyInput(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	for _, input := range []string{"", "   ", "\n\t"} {
		if err := c.Submit(input); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("input %q: expected ErrEmptyInput, got %v", input, err)
		}
	}

	state := c.Snapshot()
	if state.Pending || len(state.Messages) != 0 || state.LastError != "" {
		t.Fatalf("blank submissions must not change state: %+v", state)
	}
}

func TestSubmitWhileAwaitingRejected(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("first"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if err := c.Submit("second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	state := c.Snapshot()
	if len(state.Messages) != 1 {
		t.Fatalf("log must be unchanged, got %d messages", len(state.Messages))
	}
	if !state.Pending {
		t.Fatal("state must remain awaiting")
	}
	if len(sender.frames) != 1 {
		t.Fatalf("second frame must not hit the wire, got %d", len(sender.frames))
	}
}

func TestAnswerCompletesPendingQuestion(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("What is a derivative?"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	c.HandleFrame(protocol.AnswerReply(sender.last().ID, "A derivative measures..."))

	state := c.Snapshot()
	if state.Pending {
		t.Fatal("expected idle after reply")
	}
	if len(state.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(state.Messages))
	}
	if state.Messages[1].Sender != chat.SenderAI {
		t.Fatalf("expected ai message, got %s", state.Messages[1].Sender)
	}
	if state.Messages[1].Content != "A derivative measures..." {
		t.Fatalf("unexpected answer content: %q", state.Messages[1].Content)
	}
}

func TestAnswerWhileIdleIsNoOp(t *testing.T) {
	c := NewChat(&captureSender{})

	c.HandleFrame(protocol.AnswerReply("ghost", "phantom answer"))

	state := c.Snapshot()
	if len(state.Messages) != 0 || state.Pending {
		t.Fatalf("spurious reply must not change state: %+v", state)
	}
}

func TestAnswerWithMismatchedIDReleasesPending(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("question"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	c.HandleFrame(protocol.AnswerReply("some-other-id", "wrong answer"))

	state := c.Snapshot()
	if state.Pending {
		t.Fatal("pending must be released on an unmatched reply")
	}
	if len(state.Messages) != 1 {
		t.Fatalf("no phantom ai message may be appended, got %d messages", len(state.Messages))
	}
	if state.LastError == "" {
		t.Fatal("expected lastError to be set")
	}
}

func TestErrorReplyReleasesPending(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("question"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	c.HandleFrame(protocol.ErrorReply(sender.last().ID, "upstream timeout"))

	state := c.Snapshot()
	if state.Pending {
		t.Fatal("pending must be released on error")
	}
	if state.LastError != "upstream timeout" {
		t.Fatalf("expected lastError %q, got %q", "upstream timeout", state.LastError)
	}
	if len(state.Messages) != 1 {
		t.Fatalf("log must keep only the user message, got %d", len(state.Messages))
	}
}

func TestConnectionLossWhileAwaiting(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("question"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	c.Fail("connection closed unexpectedly")

	state := c.Snapshot()
	if state.Pending {
		t.Fatal("expected idle after transport failure")
	}
	if state.LastError == "" {
		t.Fatal("expected lastError to be set")
	}
	if len(state.Messages) != 1 {
		t.Fatalf("log must be unchanged, got %d messages", len(state.Messages))
	}
}

func TestSendFailureSurfacesAndReleasesPending(t *testing.T) {
	sender := &captureSender{err: ErrNotConnected}
	c := NewChat(sender)

	if err := c.Submit("question"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}

	state := c.Snapshot()
	if state.Pending {
		t.Fatal("pending must be released when the send fails")
	}
	if state.LastError == "" {
		t.Fatal("expected lastError to be set")
	}
}

func TestSequentialOrdering(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("S1"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	c.HandleFrame(protocol.AnswerReply(sender.last().ID, "R1"))

	if err := c.Submit("S2"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	c.HandleFrame(protocol.AnswerReply(sender.last().ID, "R2"))

	state := c.Snapshot()
	want := []struct {
		sender  string
		content string
	}{
		{chat.SenderUser, "S1"},
		{chat.SenderAI, "R1"},
		{chat.SenderUser, "S2"},
		{chat.SenderAI, "R2"},
	}
	if len(state.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(state.Messages))
	}
	for i, w := range want {
		got := state.Messages[i]
		if got.Sender != w.sender || got.Content != w.content {
			t.Fatalf("message %d: got (%s, %q), want (%s, %q)", i, got.Sender, got.Content, w.sender, w.content)
		}
		if got.ID != int64(i+1) {
			t.Fatalf("message %d: expected id %d, got %d", i, i+1, got.ID)
		}
	}
}

func TestClearIsIdempotent(t *testing.T) {
	sender := &captureSender{}
	c := NewChat(sender)

	if err := c.Submit("question"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	c.HandleFrame(protocol.ErrorReply(sender.last().ID, "boom"))

	c.Clear()
	first := c.Snapshot()
	c.Clear()
	second := c.Snapshot()

	if len(first.Messages) != 0 || first.LastError != "" {
		t.Fatalf("expected empty state after clear: %+v", first)
	}
	if len(second.Messages) != len(first.Messages) || second.LastError != first.LastError {
		t.Fatalf("clear must be idempotent: %+v vs %+v", first, second)
	}
}

func TestSessionGreetingRecordsToken(t *testing.T) {
	c := NewChat(&captureSender{})

	c.HandleFrame(protocol.SessionGreeting("token-123"))

	if got := c.SessionID(); got != "token-123" {
		t.Fatalf("expected session token recorded, got %q", got)
	}

	state := c.Snapshot()
	if len(state.Messages) != 0 || state.Pending {
		t.Fatalf("greeting must not touch the log: %+v", state)
	}
}
