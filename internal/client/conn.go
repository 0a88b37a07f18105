// Package client implements the session side of the ask protocol: a
// connection manager owning one WebSocket, and the chat state machine that
// arbitrates a single pending question.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/eduline/eduline/internal/protocol"
)

// ErrNotConnected is returned by Send unless the connection is Open. The
// caller surfaces it to the user; nothing retries silently.
var ErrNotConnected = errors.New("not connected")

// State is the connection lifecycle. There is no automatic reconnect:
// Closed and Errored are terminal until the owner dials again.
type State int32

const (
	Connecting State = iota
	Open
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Conn owns exactly one WebSocket connection. Inbound frames are decoded
// and handed to onReply in wire order; a frame that fails to parse is
// delivered as an error reply instead of crashing the session. onClose
// fires exactly once when the connection dies, with a nil error for a
// locally requested close.
type Conn struct {
	ws      *websocket.Conn
	onReply func(protocol.Reply)
	onClose func(error)

	mu     sync.Mutex
	state  State
	closed bool // Close was requested locally

	closeOnce sync.Once
}

// Dial establishes the connection and starts the read loop. A Conn is
// single-use: to reconnect, dial a new one.
func Dial(ctx context.Context, url string, onReply func(protocol.Reply), onClose func(error)) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		ws:      ws,
		onReply: onReply,
		onClose: onClose,
		state:   Open,
	}

	go c.readLoop()
	return c, nil
}

// State reports the current connection state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send writes one request frame. Accepted only while Open.
func (c *Conn) Send(ask protocol.Ask) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Open {
		return ErrNotConnected
	}
	if err := c.ws.WriteJSON(ask); err != nil {
		c.state = Errored
		return err
	}
	return nil
}

// Close releases the connection. Safe to call on every exit path and more
// than once.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.state == Open {
		c.state = Closed
	}
	c.closed = true
	c.mu.Unlock()

	c.ws.Close()
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}

		reply, perr := protocol.ParseReply(data)
		if perr != nil {
			reply = protocol.ErrorReply("", "malformed reply from server")
		}
		if c.onReply != nil {
			c.onReply(reply)
		}
	}
}

// finish records the terminal state and fires onClose once.
func (c *Conn) finish(err error) {
	c.mu.Lock()
	local := c.closed
	if local || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.state = Closed
		err = nil
	} else {
		c.state = Errored
	}
	c.mu.Unlock()

	c.ws.Close()

	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose(err)
		}
	})
}
