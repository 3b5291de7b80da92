package anomaly

import (
	"fmt"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"

	"github.com/rs/zerolog/log"
)

// MinDailyPoints is the shortest daily history a persona needs for statistical detection.
const MinDailyPoints = 14

// PersonaDecomposition binds a persona's daily series to its decomposition.
type PersonaDecomposition struct {
	Persona persona.Persona     `json:"persona"`
	Series  stats.DenseSeries   `json:"series"`
	Result  stats.Decomposition `json:"decomposition"`
}

// DecomposePersona extracts the daily series for p and decomposes it with a weekly period.
// ok is false when the history is shorter than MinDailyPoints.
func DecomposePersona(entries []persona.Entry, p persona.Persona) (PersonaDecomposition, bool) {
	series := stats.ExtractSeries(entries, p, stats.SeriesOptions{Bucket: stats.BucketDay})
	if series.Len() < MinDailyPoints {
		return PersonaDecomposition{Persona: p, Series: series}, false
	}
	return PersonaDecomposition{
		Persona: p,
		Series:  series,
		Result:  stats.Decompose(series.Values, stats.WeeklyPeriod),
	}, true
}

// Outliers runs the MAD detector over the decomposition residuals.
func (pd PersonaDecomposition) Outliers() []stats.Outlier {
	return stats.DetectOutliers(stats.NewOutlierInput(pd.Series, pd.Result))
}

// DetectStatistical runs decomposition plus MAD outlier detection for every persona.
// Personas with too little history are skipped silently.
func DetectStatistical(entries []persona.Entry) []Anomaly {
	var found []Anomaly
	for _, p := range persona.All() {
		pd, ok := DecomposePersona(entries, p)
		if !ok {
			log.Debug().Str("persona", p.Label()).Int("points", pd.Series.Len()).Msg("Skipping statistical detection: insufficient history")
			continue
		}
		found = append(found, FromOutliers(p, pd.Outliers())...)
	}
	return found
}

// FromOutliers converts detector output into anomalies for p.
func FromOutliers(p persona.Persona, outliers []stats.Outlier) []Anomaly {
	found := make([]Anomaly, 0, len(outliers))
	for _, o := range outliers {
		severity := Warning
		if o.Critical {
			severity = Critical
		}

		direction := "above"
		if o.Observed < o.Expected {
			direction = "below"
		}

		expected := stats.Round(o.Expected, 2)
		score := stats.Round(o.Score, 2)
		found = append(found, Anomaly{
			Date:        o.Date.Format(persona.DateLayout),
			Type:        Statistical,
			Severity:    severity,
			Category:    p.Label(),
			Persona:     p.Label(),
			Description: fmt.Sprintf("Unusual %s activity: %.1fh logged, %s the expected %.1fh", p.Name(), o.Observed, direction, o.Expected),
			Value:       o.Observed,
			Expected:    &expected,
			Score:       &score,
		})
	}
	return found
}
