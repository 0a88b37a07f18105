// Package answer produces tutor replies for chat sessions. The session
// registry only sees the Generator interface; the production implementation
// drives an Ark chat model through an eino chain.
package answer

import "context"

// Generator is the external answer-generation contract consumed by the
// session registry. GenerateAnswer may mutate per-session conversational
// context, so implementations must tolerate overlapping calls for the same
// session without corrupting that context. The call is not idempotent.
type Generator interface {
	// GenerateAnswer returns the answer text for a question asked within a
	// session, or an error carrying a human-readable message.
	GenerateAnswer(ctx context.Context, sessionID, question string) (string, error)

	// Forget drops any conversational context held for the session. Called
	// when the owning connection goes away.
	Forget(sessionID string)
}
