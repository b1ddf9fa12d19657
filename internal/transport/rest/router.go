package rest

import (
	"log/slog"
	"net/http"

	"github.com/curriculab/curricula-backend/internal/config"
	"github.com/curriculab/curricula-backend/internal/transport/middleware"
)

// NewRouter assembles the HTTP mux with the shared middleware chain.
func NewRouter(logger *slog.Logger, cfg config.CORSConfig, treeHandler *TreeHandler, healthHandler *HealthHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("POST /v1/nodes", treeHandler.Create)
	mux.HandleFunc("GET /v1/nodes", treeHandler.List)
	mux.HandleFunc("POST /v1/nodes/reorder", treeHandler.Reorder)
	mux.HandleFunc("GET /v1/nodes/{id}", treeHandler.Get)
	mux.HandleFunc("PATCH /v1/nodes/{id}", treeHandler.Update)
	mux.HandleFunc("DELETE /v1/nodes/{id}", treeHandler.Delete)
	mux.HandleFunc("POST /v1/nodes/{id}/move", treeHandler.Move)
	mux.HandleFunc("GET /v1/nodes/{id}/children", treeHandler.Children)
	mux.HandleFunc("GET /v1/nodes/{id}/ancestors", treeHandler.Ancestors)
	mux.HandleFunc("GET /v1/nodes/{id}/descendants", treeHandler.Descendants)
	mux.HandleFunc("GET /v1/nodes/{id}/subtree", treeHandler.Subtree)
	mux.HandleFunc("GET /v1/nodes/{id}/stats", treeHandler.Stats)
	mux.HandleFunc("GET /v1/node-types", treeHandler.NodeTypes)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg),
		middleware.Actor,
	)(mux)
}
