package chat

import "time"

// Session captures a transient anonymous conversation. It lives exactly as
// long as the connection that minted it; at most one question is in flight
// for it at any time, which the client enforces.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
