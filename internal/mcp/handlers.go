package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"persona-mcp/internal/anomaly"
	"persona-mcp/internal/forecast"
	"persona-mcp/internal/optimizer"
	"persona-mcp/internal/persona"
	"persona-mcp/internal/readiness"
	"persona-mcp/internal/stats"
	"persona-mcp/internal/visuals"
)

const defaultAnomalyLimit = 50

type personaTotals struct {
	Persona    string  `json:"persona"`
	Entries    int     `json:"entries"`
	Days       int     `json:"days"`
	TotalHours float64 `json:"total_hours"`
}

func (s *Server) handleLoadEntries(ctx context.Context, refresh bool) (any, error) {
	if refresh {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}

	first, last, _ := persona.Span(entries)
	var totals []personaTotals
	for _, p := range persona.All() {
		matching := persona.Filter(entries, p)
		days := make(map[time.Time]struct{})
		sum := 0.0
		for _, e := range matching {
			sum += e.Hours
			days[persona.Day(e.Date)] = struct{}{}
		}
		totals = append(totals, personaTotals{
			Persona:    p.Label(),
			Entries:    len(matching),
			Days:       len(days),
			TotalHours: stats.Round(sum, 2),
		})
	}

	data := map[string]any{
		"entries":    len(entries),
		"first_date": first.Format(persona.DateLayout),
		"last_date":  last.Format(persona.DateLayout),
		"personas":   totals,
		"version":    s.svc.Provider.Version(),
		"fetched_at": s.svc.Provider.FetchedAt().Format(time.RFC3339),
	}
	guidance := []string{
		"Call 'detect_anomalies' to audit data integrity before trusting forecasts.",
		"Call 'forecast_personas' and 'get_readiness' before 'optimize_allocation'.",
	}
	return WrapResponse(data, guidance, nil, nil), nil
}

func (s *Server) handleDetectAnomalies(ctx context.Context, personaLabel, severity string, limit int) (any, error) {
	p, filterPersona, err := parseOptionalPersona(personaLabel)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultAnomalyLimit
	}

	var selected []anomaly.Anomaly
	for _, a := range snap.Anomalies {
		if filterPersona && a.Persona != p.Label() {
			continue
		}
		if severity != "" && !strings.EqualFold(string(a.Severity), severity) {
			continue
		}
		selected = append(selected, a)
	}

	var warnings []string
	if len(selected) > limit {
		warnings = append(warnings, fmt.Sprintf("Showing the %d most recent of %d anomalies.", limit, len(selected)))
	}
	summary := anomaly.Summarize(selected)
	if len(selected) > limit {
		selected = selected[:limit]
	}

	var charts []string
	if s.cfg.EnableMermaidCharts {
		charts = append(charts, visuals.GenerateAnomalyChart(selected))
	}

	data := map[string]any{
		"anomalies": selected,
		"summary":   summary,
	}
	guidance := []string{
		"Structural anomalies are fixed policy checks; statistical anomalies compare each day to its weekly pattern.",
		"Critical data-integrity findings (days over 24h) usually indicate double-logged entries.",
	}
	return WrapResponse(data, guidance, warnings, charts), nil
}

type forecastView struct {
	Persona string  `json:"persona"`
	RunRate float64 `json:"monthly_run_rate"`
	forecast.Result
}

func (s *Server) handleForecastPersonas(ctx context.Context, personaLabel string) (any, error) {
	p, single, err := parseOptionalPersona(personaLabel)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var views []forecastView
	var warnings, charts []string
	for _, c := range persona.All() {
		if single && c != p {
			continue
		}
		r := snap.Forecasts[c]
		views = append(views, forecastView{Persona: c.Label(), RunRate: stats.Round(r.Mean(), 2), Result: r})
		switch r.Method {
		case forecast.MethodFlatMean:
			warnings = append(warnings, fmt.Sprintf("%s: only %d months of history, forecast is a flat average.", c.Label(), r.History))
		case forecast.MethodSabbatical:
			warnings = append(warnings, fmt.Sprintf("%s: last year was atypically low, forecast uses the multi-year baseline.", c.Label()))
		}
		if s.cfg.EnableMermaidCharts && single {
			charts = append(charts, visuals.GenerateForecastChart(c, r))
		}
	}

	if s.cfg.EnableMermaidCharts && !single {
		entries, err := s.entries(ctx)
		if err != nil {
			return nil, err
		}
		history := make(map[persona.Persona]stats.DenseSeries)
		for _, c := range persona.All() {
			history[c] = s.svc.Engine.Forecasts.MonthlyHistory(entries, c)
		}
		charts = append(charts, visuals.GenerateRunRateChart(history, snap.Forecasts))
	}

	guidance := []string{
		"Forecasts are monthly hours for the next 12 months, trained on complete calendar years only.",
		"Confidence bounds widen with the horizon; treat far months as rough guides.",
	}
	return WrapResponse(views, guidance, warnings, charts), nil
}

func (s *Server) handleDecomposeSeries(ctx context.Context, personaLabel string) (any, error) {
	p, ok, err := parseOptionalPersona(personaLabel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("persona is required. Available personas: %s", strings.Join(personaLabels(), ", "))
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pd, ok := snap.Decomposition(p)
	if !ok {
		return nil, fmt.Errorf("%s has fewer than %d days of history; decomposition needs at least two weeks", p.Label(), anomaly.MinDailyPoints)
	}

	data := map[string]any{
		"persona":  p.Label(),
		"period":   pd.Result.Period,
		"dates":    pd.Series.Labels(),
		"observed": pd.Result.Observed,
		"trend":    pd.Result.Trend,
		"seasonal": pd.Result.Seasonal,
		"residual": pd.Result.Residual,
		"pattern":  pd.Result.Pattern,
		"outliers": pd.Outliers(),
	}

	var charts []string
	if s.cfg.EnableMermaidCharts {
		charts = append(charts, visuals.GenerateDecompositionChart(pd))
	}
	return WrapResponse(data, []string{"observed = trend + seasonal + residual for every day."}, nil, charts), nil
}

func (s *Server) handleGetReadiness(ctx context.Context, windowDays int, endDate string) (any, error) {
	if windowDays <= 0 && endDate == "" {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return WrapResponse(snap.Readiness, readinessGuidance(snap.Readiness), nil, nil), nil
	}

	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = s.svc.Engine.ReadinessWindowDays
	}

	_, end, _ := persona.Span(entries)
	if endDate != "" {
		if end, err = persona.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", endDate)
		}
	}

	b := readiness.ScoreWindow(entries, end, windowDays)
	return WrapResponse(b, readinessGuidance(b), nil, nil), nil
}

func readinessGuidance(b readiness.Breakdown) []string {
	if b.Entries == 0 {
		return []string{"No entries in the window; the neutral score 0.5 was returned."}
	}
	if b.Score < 0.5 {
		return []string{"Readiness is low: growth targets in 'optimize_allocation' will be damped by half."}
	}
	return []string{"Readiness is sufficient for full growth targets."}
}

func (s *Server) handleOptimizeAllocation(ctx context.Context, in optimizer.Overrides) (any, error) {
	cfg, err := in.Apply(s.cfg.Optimizer)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sol, err := snap.Optimize(ctx, cfg, in.HasReadiness())
	if err != nil {
		return nil, err
	}

	var charts []string
	if s.cfg.EnableMermaidCharts {
		charts = append(charts, visuals.GenerateProfilePie(sol.Profile))
	}

	guidance := []string{
		"The profile is monthly hours per category and never exceeds 24h x 30.4 days in total.",
		"Sleep and work are fixed first; growth categories are scaled down together when capacity runs out.",
	}
	if !in.HasReadiness() {
		guidance = append(guidance, fmt.Sprintf("Readiness %.2f was taken from the last %d days of entries.", snap.Readiness.Score, s.svc.Engine.ReadinessWindowDays))
	}
	return WrapResponse(sol, guidance, sol.Warnings, charts), nil
}
