package stats

import (
	"time"

	"persona-mcp/internal/persona"
)

// DenseSeries is a gap-free series with exactly one value per bucket.
type DenseSeries struct {
	Bucket string      `json:"bucket"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of buckets.
func (s DenseSeries) Len() int {
	return len(s.Values)
}

// Labels renders every bucket date with the bucket's label format.
func (s DenseSeries) Labels() []string {
	w := AnalysisWindow{Bucket: s.Bucket}
	labels := make([]string, len(s.Dates))
	for i, d := range s.Dates {
		labels[i] = w.GenerateLabel(d)
	}
	return labels
}

// SeriesOptions bound an extraction. Zero Start/End default to the first/last matching entry.
type SeriesOptions struct {
	Bucket string
	Start  time.Time
	End    time.Time
}

// ThroughYear returns the last day of the given year, for use as SeriesOptions.End.
func ThroughYear(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// ExtractSeries sums the hours logged for a persona into day or month buckets,
// zero-filling every bucket without entries. A persona without any entries yields an empty series.
func ExtractSeries(entries []persona.Entry, p persona.Persona, opts SeriesOptions) DenseSeries {
	bucket := opts.Bucket
	if bucket == "" {
		bucket = BucketDay
	}
	result := DenseSeries{Bucket: bucket}

	matching := persona.Filter(entries, p)
	first, last, ok := persona.Span(matching)
	if !ok {
		return result
	}

	start, end := opts.Start, opts.End
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = last
	}
	if end.Before(start) {
		return result
	}

	window := NewAnalysisWindow(start, end, bucket)
	result.Dates = window.Subdivide()
	result.Values = make([]float64, len(result.Dates))

	for _, e := range matching {
		idx := window.FindBucketIndex(e.Date)
		if idx >= 0 && idx < len(result.Values) {
			result.Values[idx] += e.Hours
		}
	}

	return result
}

// DailyTotals sums every entry per calendar date regardless of persona.
func DailyTotals(entries []persona.Entry) map[time.Time]float64 {
	totals := make(map[time.Time]float64)
	for _, e := range entries {
		totals[persona.Day(e.Date)] += e.Hours
	}
	return totals
}
