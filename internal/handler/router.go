package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eduline/eduline/internal/handler/ask"
	"github.com/eduline/eduline/internal/handler/chat"
	middlewarePkg "github.com/eduline/eduline/internal/middleware"
	sessionservice "github.com/eduline/eduline/internal/service/session"
	"github.com/eduline/eduline/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(registry *sessionservice.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	askHandler := ask.New(registry)
	chatHandler := chat.New(registry)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		askHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
	})

	return r
}
