package httpadapter

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adpilot/internal/core/port"
)

// Handler is the inbound HTTP adapter. It exposes the engine's execute
// entry point along with health and metrics endpoints on a chi.Router.
type Handler struct {
	engine port.Engine
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(engine port.Engine, logger *slog.Logger) *Handler {
	h := &Handler{engine: engine, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/execute", h.handleExecute)
		r.Post("/rules/check", h.handleCheckRules)
	})
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
