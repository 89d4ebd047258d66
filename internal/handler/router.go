package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tarabot/scheduler/backend/internal/handler/conversation"
	"github.com/tarabot/scheduler/backend/internal/handler/live"
	middlewarePkg "github.com/tarabot/scheduler/backend/internal/middleware"
	"github.com/tarabot/scheduler/backend/internal/service/agent"
	"github.com/tarabot/scheduler/backend/internal/service/session"
	"github.com/tarabot/scheduler/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(agt *agent.Agent, store *session.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	conversationHandler := conversation.New(agt, store)
	liveHandler := live.New(agt)

	r.Route("/api", func(api chi.Router) {
		conversationHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
	})

	return r
}
