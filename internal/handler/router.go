package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	batchHandler "github.com/modelmatrix/ava-console/internal/handler/batch"
	"github.com/modelmatrix/ava-console/internal/handler/events"
	sessionHandler "github.com/modelmatrix/ava-console/internal/handler/session"
	"github.com/modelmatrix/ava-console/internal/middleware"
	"github.com/modelmatrix/ava-console/internal/model/agent"
	batchService "github.com/modelmatrix/ava-console/internal/service/batch"
	"github.com/modelmatrix/ava-console/internal/service/conversation"
	sessionService "github.com/modelmatrix/ava-console/internal/service/session"
	"github.com/modelmatrix/ava-console/pkg/utils"
)

// ModelLister proxies the upstream model provider. Satisfied by
// *upstream.Client.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Deps collects everything the API routes need.
type Deps struct {
	Sessions       *sessionService.Service
	Conversations  *conversation.Service
	Batch          *batchService.Service
	Agents         agent.Store
	Models         ModelLister
	Hub            *events.Hub
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(middleware.CORS(origins))

	sessions := sessionHandler.New(deps.Sessions, deps.Conversations)
	batch := batchHandler.New(deps.Batch)

	r.Route("/api", func(api chi.Router) {
		sessions.RegisterRoutes(api)
		batch.RegisterRoutes(api)
		if deps.Hub != nil {
			deps.Hub.RegisterRoutes(api)
		}

		api.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			models, err := deps.Models.ListModels(r.Context())
			if err != nil {
				utils.RespondError(w, http.StatusBadGateway, err.Error())
				return
			}
			utils.RespondJSON(w, http.StatusOK, map[string]any{"models": models})
		})

		api.Get("/agents", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, deps.Agents.List())
		})

		api.Get("/agents/{name}", func(w http.ResponseWriter, r *http.Request) {
			found, ok := deps.Agents.FindByName(chi.URLParam(r, "name"))
			if !ok {
				utils.RespondError(w, http.StatusNotFound, "unknown agent")
				return
			}
			utils.RespondJSON(w, http.StatusOK, found)
		})
	})

	return r
}
