package chat

import "time"

// Sender values carried by Message. The wire and the transcript only ever
// use these two.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message persists individual turns for audit/debug. IDs are assigned by
// whoever owns the log (registry on the server, state machine on the client)
// and increase monotonically within one session. Never mutated after append.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
