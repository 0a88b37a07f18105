// Package chat serves read-only session endpoints for debugging and UI
// hydration: the transcript of a live session.
package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionservice "github.com/eduline/eduline/internal/service/session"
	"github.com/eduline/eduline/pkg/utils"
)

// Handler exposes session lookups over HTTP.
type Handler struct {
	registry *sessionservice.Registry
}

// New creates the chat handler.
func New(registry *sessionservice.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Get("/sessions/{sessionID}/transcript", h.handleGetTranscript)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.registry.Lookup(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.registry.Transcript(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sessionservice.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"messages":  messages,
	})
}
