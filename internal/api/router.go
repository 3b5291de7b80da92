// Package api exposes the analysis service over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"persona-mcp/internal/api/handler"
	"persona-mcp/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

type Router struct {
	handler *handler.Handler
	version string
}

func NewRouter(h *handler.Handler, version string) *Router {
	return &Router{handler: h, version: version}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(middleware.Tracing)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": rt.version})
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/snapshot", rt.handler.GetSnapshot)
		r.Get("/anomalies", rt.handler.ListAnomalies)
		r.Get("/forecasts", rt.handler.ListForecasts)
		r.Get("/readiness", rt.handler.GetReadiness)
		r.Get("/decomposition/{persona}", rt.handler.GetDecomposition)
		r.Post("/optimize", rt.handler.Optimize)
		r.Post("/refresh", rt.handler.Refresh)
	})

	return r
}
