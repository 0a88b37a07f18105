package client

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eduline/eduline/internal/model/chat"
	"github.com/eduline/eduline/internal/protocol"
)

var (
	// ErrEmptyInput rejects blank submissions. The UI boundary ignores it
	// silently; nothing changes.
	ErrEmptyInput = errors.New("empty input")

	// ErrBusy rejects a submission while a question is already in flight.
	ErrBusy = errors.New("a question is already pending")
)

// Sender is the outbound half of the connection manager as the state
// machine sees it.
type Sender interface {
	Send(protocol.Ask) error
}

// ChatState is the client-visible snapshot: the ordered log, whether one
// question is awaiting its reply, and the last error.
type ChatState struct {
	Messages  []chat.Message
	Pending   bool
	LastError string
}

// Chat is the single source of truth for what the user sees. It owns the
// ordered message log and arbitrates one pending request at a time: a reply
// is only accepted while a request is pending and only with the matching
// correlation id. Every method runs to completion under one lock, so events
// never interleave mid-transition.
type Chat struct {
	sender Sender

	mu        sync.Mutex
	sessionID string
	nextID    int64
	messages  []chat.Message
	pendingID string
	lastError string
}

// NewChat creates an idle state machine bound to a sender. The sender may
// be nil until SetSender is called, which lets the machine be constructed
// before the connection exists.
func NewChat(sender Sender) *Chat {
	return &Chat{sender: sender}
}

// SetSender binds the outbound connection.
func (c *Chat) SetSender(sender Sender) {
	c.mu.Lock()
	c.sender = sender
	c.mu.Unlock()
}

// Submit appends the user's message optimistically, marks it pending and
// sends the question. Empty input and an already-pending question are
// rejected without touching the log. A send failure releases the pending
// slot and records the error so the user can retry.
func (c *Chat) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingID != "" {
		return ErrBusy
	}

	c.appendLocked(chat.SenderUser, text)
	id := uuid.NewString()
	c.pendingID = id

	err := ErrNotConnected
	if c.sender != nil {
		err = c.sender.Send(protocol.NewAsk(id, c.sessionID, text))
	}
	if err != nil {
		c.failLocked(err.Error())
		return err
	}
	return nil
}

// HandleFrame advances the state machine on one inbound frame. Frames
// arrive in wire order from the connection manager's read loop.
func (c *Chat) HandleFrame(reply protocol.Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch reply.Type {
	case protocol.TypeSession:
		c.sessionID = reply.SessionID

	case protocol.TypeAnswer:
		if c.pendingID == "" {
			// No question awaiting a reply: spurious frame, no-op.
			return
		}
		if reply.ID != c.pendingID {
			c.failLocked("reply does not match the pending question")
			return
		}
		c.appendLocked(chat.SenderAI, reply.Answer)
		c.pendingID = ""

	case protocol.TypeError:
		c.failLocked(reply.Error)
	}
}

// Fail records a failure from outside the wire protocol, typically the
// connection dying. The pending slot is always released so the user is
// never stuck on a loading indicator.
func (c *Chat) Fail(message string) {
	c.mu.Lock()
	c.failLocked(message)
	c.mu.Unlock()
}

// Clear empties the log and the last error. The connection and any pending
// question are untouched. Idempotent.
func (c *Chat) Clear() {
	c.mu.Lock()
	c.messages = nil
	c.lastError = ""
	c.mu.Unlock()
}

// SessionID reports the token announced by the server, empty until the
// greeting arrived.
func (c *Chat) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Snapshot returns a copy of the client-visible state.
func (c *Chat) Snapshot() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]chat.Message, len(c.messages))
	copy(messages, c.messages)

	return ChatState{
		Messages:  messages,
		Pending:   c.pendingID != "",
		LastError: c.lastError,
	}
}

func (c *Chat) appendLocked(sender, content string) {
	c.nextID++
	c.messages = append(c.messages, chat.Message{
		ID:        c.nextID,
		SessionID: c.sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

func (c *Chat) failLocked(message string) {
	c.lastError = message
	c.pendingID = ""
}
