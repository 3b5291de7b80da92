package anomaly

import (
	"fmt"
	"slices"
	"time"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"
)

// Policy thresholds for structural checks. These are fixed, not learned from data.
const (
	MaxDailyHours       = 24.0
	MinCompleteDayHours = 4.0
	MaxWeekendWorkHours = 4.0
)

// CheckStructure flags impossible or incomplete days (by summing every entry
// on a date) and weekend work entries that exceed the work-life policy.
func CheckStructure(entries []persona.Entry) []Anomaly {
	var found []Anomaly

	totals := stats.DailyTotals(entries)
	dates := make([]time.Time, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	for _, d := range dates {
		total := totals[d]
		switch {
		case total > MaxDailyHours:
			found = append(found, Anomaly{
				Date:        d.Format(persona.DateLayout),
				Type:        Structural,
				Severity:    Critical,
				Category:    CategoryDataIntegrity,
				Description: fmt.Sprintf("Impossible day: %.1fh logged exceeds %.0fh", total, MaxDailyHours),
				Value:       total,
			})
		case total > 0 && total < MinCompleteDayHours:
			found = append(found, Anomaly{
				Date:        d.Format(persona.DateLayout),
				Type:        Structural,
				Severity:    Warning,
				Category:    CategoryDataIntegrity,
				Description: fmt.Sprintf("Incomplete day: only %.1fh logged", total),
				Value:       total,
			})
		}
	}

	for _, e := range entries {
		if e.DayType == persona.Weekend && e.Persona == persona.Professional && e.Hours > MaxWeekendWorkHours {
			found = append(found, Anomaly{
				Date:        e.Date.Format(persona.DateLayout),
				Type:        Behavioral,
				Severity:    Warning,
				Category:    CategoryWorkLifeBalance,
				Persona:     e.Persona.Label(),
				Description: fmt.Sprintf("Weekend work: %.1fh of professional work on a weekend", e.Hours),
				Value:       e.Hours,
			})
		}
	}

	return found
}
