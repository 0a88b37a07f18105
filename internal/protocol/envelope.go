// Package protocol defines the JSON frames exchanged over the /api/ask
// WebSocket. One JSON object per text frame, discriminated by "type", and
// every request carries an id that the matching reply echoes back.
package protocol

import (
	"encoding/json"
	"errors"
	"strings"
)

// Frame type discriminators.
const (
	TypeChat    = "chat"    // client -> server question
	TypeSession = "session" // server -> client greeting carrying the session token
	TypeAnswer  = "answer"  // server -> client successful reply
	TypeError   = "error"   // server -> client failure reply
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownType    = errors.New("unknown frame type")
)

// Ask is the canonical client request envelope. SessionID is optional; when
// set it must match the session bound to the connection.
type Ask struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	SessionID string `json:"sessionId,omitempty"`
	Question  string `json:"question"`
}

// Reply is the server envelope. Exactly one of Answer or Error is populated,
// except for the session greeting which only carries SessionID.
type Reply struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewAsk builds a chat request frame.
func NewAsk(id, sessionID, question string) Ask {
	return Ask{Type: TypeChat, ID: id, SessionID: sessionID, Question: question}
}

// SessionGreeting announces the freshly minted session token to the client.
func SessionGreeting(sessionID string) Reply {
	return Reply{Type: TypeSession, SessionID: sessionID}
}

// AnswerReply builds the success envelope for a request id.
func AnswerReply(id, answer string) Reply {
	return Reply{Type: TypeAnswer, ID: id, Answer: answer}
}

// ErrorReply builds the failure envelope for a request id. The id may be
// empty when the failure is not tied to a specific request.
func ErrorReply(id, message string) Reply {
	return Reply{Type: TypeError, ID: id, Error: message}
}

// ParseAsk decodes and validates a client frame. Anything that is not a
// well-formed chat request is rejected as malformed rather than guessed at.
func ParseAsk(data []byte) (Ask, error) {
	var ask Ask
	if err := json.Unmarshal(data, &ask); err != nil {
		return Ask{}, ErrMalformedFrame
	}
	if ask.Type != TypeChat {
		return Ask{}, ErrUnknownType
	}
	if ask.ID == "" || strings.TrimSpace(ask.Question) == "" {
		return Ask{}, ErrMalformedFrame
	}
	return ask, nil
}

// ParseReply decodes and validates a server frame on the client side.
func ParseReply(data []byte) (Reply, error) {
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, ErrMalformedFrame
	}
	switch reply.Type {
	case TypeSession:
		if reply.SessionID == "" {
			return Reply{}, ErrMalformedFrame
		}
	case TypeAnswer:
		if reply.Error != "" {
			return Reply{}, ErrMalformedFrame
		}
	case TypeError:
		if reply.Error == "" || reply.Answer != "" {
			return Reply{}, ErrMalformedFrame
		}
	default:
		return Reply{}, ErrUnknownType
	}
	return reply, nil
}
