// Package analysis splits the pipeline into a heavy phase (anomalies,
// forecasts, readiness) computed once per dataset and a light phase
// (allocation solve) re-run per constraint change against the cached results.
package analysis

import (
	"context"
	"time"

	"persona-mcp/internal/anomaly"
	"persona-mcp/internal/forecast"
	"persona-mcp/internal/optimizer"
	"persona-mcp/internal/persona"
	"persona-mcp/internal/readiness"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "persona-mcp/analysis"

// Snapshot holds every heavy-phase result for one dataset. It is read-only once built.
type Snapshot struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	EntryCount int       `json:"entry_count"`
	FirstDate  string    `json:"first_date,omitempty"`
	LastDate   string    `json:"last_date,omitempty"`

	Anomalies []anomaly.Anomaly                                `json:"anomalies"`
	Summary   anomaly.Summary                                  `json:"summary"`
	Forecasts map[persona.Persona]forecast.Result              `json:"forecasts"`
	Means     map[persona.Persona]float64                      `json:"run_rates"`
	Readiness readiness.Breakdown                              `json:"readiness"`
	Decomp    map[persona.Persona]anomaly.PersonaDecomposition `json:"-"`
}

// Engine runs the heavy phase.
type Engine struct {
	Forecasts           *forecast.Service
	ReadinessWindowDays int
}

// NewEngine wires an engine with the given forecast service.
func NewEngine(svc *forecast.Service, readinessWindowDays int) *Engine {
	if readinessWindowDays <= 0 {
		readinessWindowDays = readiness.DefaultWindowDays
	}
	return &Engine{Forecasts: svc, ReadinessWindowDays: readinessWindowDays}
}

// Prepare computes a snapshot for the entries.
func (e *Engine) Prepare(ctx context.Context, entries []persona.Entry) (*Snapshot, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "analysis.prepare")
	defer span.End()
	span.SetAttributes(attribute.Int("entries", len(entries)))

	start := time.Now()
	s := &Snapshot{
		ID:         uuid.NewString(),
		CreatedAt:  start.UTC(),
		EntryCount: len(entries),
		Decomp:     make(map[persona.Persona]anomaly.PersonaDecomposition),
	}
	if first, last, ok := persona.Span(entries); ok {
		s.FirstDate = first.Format(persona.DateLayout)
		s.LastDate = last.Format(persona.DateLayout)
	}

	// 1. Anomalies, keeping each decomposition for later inspection
	var statistical []anomaly.Anomaly
	for _, p := range persona.All() {
		pd, ok := anomaly.DecomposePersona(entries, p)
		if !ok {
			continue
		}
		s.Decomp[p] = pd
		statistical = append(statistical, anomaly.FromOutliers(p, pd.Outliers())...)
	}
	s.Anomalies = anomaly.Aggregate(anomaly.CheckStructure(entries), statistical)
	s.Summary = anomaly.Summarize(s.Anomalies)

	// 2. Forecasts
	forecasts, err := e.Forecasts.ForecastAll(ctx, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.Forecasts = forecasts
	s.Means = optimizer.MeansFrom(forecasts)

	// 3. Readiness
	s.Readiness = readiness.Latest(entries, e.ReadinessWindowDays)

	span.SetAttributes(
		attribute.String("snapshot.id", s.ID),
		attribute.Int("anomalies", len(s.Anomalies)),
		attribute.Float64("readiness", s.Readiness.Score),
	)
	log.Info().
		Str("id", s.ID).
		Int("entries", s.EntryCount).
		Int("anomalies", len(s.Anomalies)).
		Float64("readiness", s.Readiness.Score).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis snapshot prepared")
	return s, nil
}

// Decomposition returns the daily decomposition for p, if p had enough history.
func (s *Snapshot) Decomposition(p persona.Persona) (anomaly.PersonaDecomposition, bool) {
	pd, ok := s.Decomp[p]
	return pd, ok
}

// Optimize runs the light phase against the cached run-rates. The snapshot's
// readiness replaces cfg.Readiness unless useConfigReadiness is set.
func (s *Snapshot) Optimize(ctx context.Context, cfg optimizer.Config, useConfigReadiness bool) (optimizer.Solution, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "analysis.optimize")
	defer span.End()

	if !useConfigReadiness {
		cfg.Readiness = s.Readiness.Score
	}
	if err := cfg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return optimizer.Solution{}, err
	}

	sol := optimizer.Solve(s.Means, cfg)
	span.SetAttributes(
		attribute.Bool("scaled", sol.Scaled),
		attribute.Float64("ambition", sol.AmbitionFactor),
	)
	return sol, nil
}
