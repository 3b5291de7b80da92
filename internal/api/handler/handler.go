// Package handler implements the HTTP endpoints of the analytics service.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"persona-mcp/internal/analysis"
	"persona-mcp/internal/anomaly"
	"persona-mcp/internal/api/problem"
	"persona-mcp/internal/forecast"
	"persona-mcp/internal/optimizer"
	"persona-mcp/internal/persona"
	"persona-mcp/internal/readiness"
	"persona-mcp/internal/source"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Handler serves read-only analysis results and the optimizer.
type Handler struct {
	svc      *analysis.Service
	defaults optimizer.Config
}

// NewHandler creates a new Handler. defaults is the base for every optimize request.
func NewHandler(svc *analysis.Service, defaults optimizer.Config) *Handler {
	return &Handler{svc: svc, defaults: defaults}
}

// GetSnapshot handles GET /v1/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListAnomalies handles GET /v1/anomalies?persona=&severity=
func (h *Handler) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	p, filter, err := optionalPersona(r.URL.Query().Get("persona"))
	if err != nil {
		writeError(w, err)
		return
	}
	severity := r.URL.Query().Get("severity")

	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	selected := []anomaly.Anomaly{}
	for _, a := range snap.Anomalies {
		if filter && a.Persona != p.Label() {
			continue
		}
		if severity != "" && !strings.EqualFold(string(a.Severity), severity) {
			continue
		}
		selected = append(selected, a)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"anomalies": selected,
		"summary":   anomaly.Summarize(selected),
	})
}

// ListForecasts handles GET /v1/forecasts?persona=
func (h *Handler) ListForecasts(w http.ResponseWriter, r *http.Request) {
	p, single, err := optionalPersona(r.URL.Query().Get("persona"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make(map[string]forecast.Result)
	for c, res := range snap.Forecasts {
		if single && c != p {
			continue
		}
		out[c.Label()] = res
	}
	writeJSON(w, http.StatusOK, out)
}

// GetReadiness handles GET /v1/readiness?window_days=&end_date=
func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	windowDays := parseIntParam(r, "window_days", h.svc.Engine.ReadinessWindowDays)
	if windowDays < 1 || windowDays > 365 {
		problem.BadRequest("window_days must be between 1 and 365").Write(w)
		return
	}

	entries, err := h.svc.Entries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	_, end, _ := persona.Span(entries)
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		if end, err = persona.ParseDate(raw); err != nil {
			problem.BadRequest("end_date must be formatted as YYYY-MM-DD").Write(w)
			return
		}
	}

	writeJSON(w, http.StatusOK, readiness.ScoreWindow(entries, end, windowDays))
}

// GetDecomposition handles GET /v1/decomposition/{persona}
func (h *Handler) GetDecomposition(w http.ResponseWriter, r *http.Request) {
	p, err := persona.Parse(chi.URLParam(r, "persona"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	pd, ok := snap.Decomposition(p)
	if !ok {
		problem.NotFound(p.Label() + " has less than two weeks of daily history").Write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"persona":       p.Label(),
		"dates":         pd.Series.Labels(),
		"decomposition": pd.Result,
		"outliers":      pd.Outliers(),
	})
}

// Optimize handles POST /v1/optimize with an optional optimizer.Overrides body.
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	var in optimizer.Overrides
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	cfg, err := in.Apply(h.defaults)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	sol, err := snap.Optimize(r.Context(), cfg, in.HasReadiness())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

// Refresh handles POST /v1/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    h.svc.Provider.Version(),
		"fetched_at": h.svc.Provider.FetchedAt().UTC().Format(time.RFC3339),
	})
}

func optionalPersona(label string) (persona.Persona, bool, error) {
	if strings.TrimSpace(label) == "" {
		return 0, false, nil
	}
	p, err := persona.Parse(label)
	return p, err == nil, err
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return i
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, err error) {
	var verr *optimizer.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]problem.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = problem.FieldError{Field: f.Field, Message: f.Message}
		}
		problem.ValidationError("Optimization constraints are invalid", fields).Write(w)
	case errors.Is(err, optimizer.ErrInvalidConfig), errors.Is(err, persona.ErrUnknownPersona):
		problem.BadRequest(err.Error()).Write(w)
	case source.IsNoEntries(err), errors.Is(err, source.ErrAllSourcesFailed):
		problem.Unavailable(err.Error()).Write(w)
	default:
		log.Error().Err(err).Msg("Request failed")
		problem.InternalError("Analysis failed").Write(w)
	}
}
