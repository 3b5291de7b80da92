package forecast

import (
	"context"
	"time"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service produces monthly forecasts for every persona.
type Service struct {
	Model HoltWinters
	// Anchor is the first month of history. Zero means the earliest entry's month.
	Anchor time.Time
	// Now supplies the clock; the training window never reaches the current year.
	Now func() time.Time
}

// NewService returns a service using the default model and the wall clock.
func NewService(anchor time.Time) *Service {
	return &Service{
		Model:  NewHoltWinters(),
		Anchor: anchor,
		Now:    time.Now,
	}
}

// LastCompleteYear is the most recent year whose twelve months are all in the
// past and covered by the entry log. A log ending before December counts only
// up to the year before its last entry.
func (s *Service) LastCompleteYear(entries []persona.Entry) int {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	year := now().UTC().Year() - 1

	_, last, ok := persona.Span(entries)
	if !ok {
		return year
	}
	covered := last.Year()
	if last.Month() != time.December {
		covered--
	}
	return min(year, covered)
}

// MonthlyHistory returns the zero-filled monthly series for p from the anchor
// through December of the last complete year of the log.
func (s *Service) MonthlyHistory(entries []persona.Entry, p persona.Persona) stats.DenseSeries {
	start := s.Anchor
	if start.IsZero() {
		first, _, ok := persona.Span(entries)
		if !ok {
			return stats.DenseSeries{Bucket: stats.BucketMonth}
		}
		start = first
	}
	return stats.ExtractSeries(entries, p, stats.SeriesOptions{
		Bucket: stats.BucketMonth,
		Start:  start,
		End:    stats.ThroughYear(s.LastCompleteYear(entries)),
	})
}

// Forecast fits the model on p's monthly history. Professional forecasts are
// subject to the sabbatical override.
func (s *Service) Forecast(entries []persona.Entry, p persona.Persona) Result {
	history := s.MonthlyHistory(entries, p)
	result := s.Model.Fit(history.Values)

	if p == persona.Professional {
		year := s.LastCompleteYear(entries)
		if override, applied := s.Model.ApplySabbatical(result, history, year); applied {
			log.Debug().
				Int("year", year).
				Float64("baseline", override.Mean()).
				Msg("Atypical work year detected, forecasting from multi-year baseline")
			result = override
		}
	}
	return result
}

// ForecastAll forecasts every persona concurrently.
func (s *Service) ForecastAll(ctx context.Context, entries []persona.Entry) (map[persona.Persona]Result, error) {
	all := persona.All()
	results := make([]Result, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Forecast(entries, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[persona.Persona]Result, len(all))
	for i, p := range all {
		out[p] = results[i]
		log.Debug().Str("persona", p.Label()).Str("method", string(results[i].Method)).Int("history", results[i].History).Msg("Forecast computed")
	}
	return out, nil
}
