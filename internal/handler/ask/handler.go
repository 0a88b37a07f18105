// Package ask exposes the /api/ask endpoint: a WebSocket upgrade for live
// sessions on GET, and a sessionless one-shot fallback on POST.
package ask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/eduline/eduline/internal/protocol"
	sessionservice "github.com/eduline/eduline/internal/service/session"
	"github.com/eduline/eduline/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler upgrades connections and routes their questions through the
// session registry.
type Handler struct {
	registry *sessionservice.Registry
	upgrader websocket.Upgrader
}

// New creates the ask handler.
func New(registry *sessionservice.Registry) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ask", h.handleWebSocket)
	r.Post("/ask", h.handleOneShot)
}

// wsConn serializes writes: replies come from the read loop while pings come
// from their own goroutine, and gorilla allows only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeReply(reply protocol.Reply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(reply)
}

func (c *wsConn) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := h.registry.Begin(ctx)
	defer h.registry.End(context.WithoutCancel(ctx), session.ID)

	log.Info().Str("session", session.ID).Msg("client connected")
	defer log.Info().Str("session", session.ID).Msg("client disconnected")

	ws := &wsConn{conn: conn}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, ws)

	if err := ws.writeReply(protocol.SessionGreeting(session.ID)); err != nil {
		log.Warn().Err(err).Str("session", session.ID).Msg("greeting write failed")
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", session.ID).Msg("websocket read error")
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		ask, err := protocol.ParseAsk(data)
		if err != nil {
			h.sendError(ws, session.ID, "", "malformed request")
			continue
		}
		if ask.SessionID != "" && ask.SessionID != session.ID {
			h.sendError(ws, session.ID, ask.ID, "session mismatch")
			continue
		}

		// Questions are answered synchronously in arrival order, so replies
		// leave in send order even if a client overlaps requests.
		answer, err := h.registry.Ask(ctx, session.ID, ask.Question)
		if err != nil {
			h.sendError(ws, session.ID, ask.ID, err.Error())
			continue
		}

		if err := ws.writeReply(protocol.AnswerReply(ask.ID, answer)); err != nil {
			log.Warn().Err(err).Str("session", session.ID).Msg("answer write failed")
			return
		}
	}
}

func (h *Handler) sendError(ws *wsConn, sessionID, requestID, message string) {
	if err := ws.writeReply(protocol.ErrorReply(requestID, message)); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("error write failed")
	}
}

func (h *Handler) pingLoop(ctx context.Context, ws *wsConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.writePing(); err != nil {
				return
			}
		}
	}
}

// handleOneShot answers a single question without retaining any session
// state: a throwaway session exists only for the duration of the call.
func (h *Handler) handleOneShot(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question string `json:"question"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Question) == "" {
		utils.RespondError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx := r.Context()
	session := h.registry.Begin(ctx)
	defer h.registry.End(context.WithoutCancel(ctx), session.ID)

	answer, err := h.registry.Ask(ctx, session.ID, payload.Question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sessionservice.ErrGeneratorUnavailable) {
			status = http.StatusServiceUnavailable
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
