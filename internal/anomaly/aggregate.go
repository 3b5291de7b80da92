package anomaly

import (
	"slices"
	"strings"

	"persona-mcp/internal/persona"
)

// Aggregate concatenates structural and statistical findings and sorts them
// most recent first. Overlapping findings are kept as distinct entries.
func Aggregate(structural, statistical []Anomaly) []Anomaly {
	all := make([]Anomaly, 0, len(structural)+len(statistical))
	all = append(all, structural...)
	all = append(all, statistical...)

	slices.SortStableFunc(all, func(a, b Anomaly) int {
		return strings.Compare(b.Date, a.Date)
	})
	return all
}

// Detect runs every detector over the entries and returns the unified incident list.
func Detect(entries []persona.Entry) []Anomaly {
	return Aggregate(CheckStructure(entries), DetectStatistical(entries))
}

// Summarize counts anomalies by severity and type.
func Summarize(anomalies []Anomaly) Summary {
	s := Summary{
		Total:      len(anomalies),
		BySeverity: make(map[Severity]int),
		ByType:     make(map[Type]int),
	}
	for _, a := range anomalies {
		s.BySeverity[a.Severity]++
		s.ByType[a.Type]++
		if a.Date > s.Latest {
			s.Latest = a.Date
		}
	}
	return s
}
