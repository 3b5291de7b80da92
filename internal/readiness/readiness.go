// Package readiness derives a 0-1 behavioural capacity score from recent
// sleep, work and recovery averages.
package readiness

import (
	"time"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"
)

const (
	// DefaultWindowDays is the trailing window the score is computed over.
	DefaultWindowDays = 30
	// Neutral is returned when there is nothing to score.
	Neutral = 0.5

	sleepFloor     = 4.0
	sleepTarget    = 7.5
	workComfort    = 6.0
	workLimit      = 10.0
	recoveryTarget = 2.0

	weightSleep    = 0.5
	weightWork     = 0.3
	weightRecovery = 0.2
)

// Breakdown exposes the sub-scores behind a readiness score.
type Breakdown struct {
	Score         float64 `json:"score"`
	SleepScore    float64 `json:"sleep_score"`
	WorkScore     float64 `json:"work_score"`
	RecoveryScore float64 `json:"recovery_score"`
	AvgSleep      float64 `json:"avg_sleep_hours"`
	AvgWork       float64 `json:"avg_work_hours"`
	AvgIndividual float64 `json:"avg_individual_hours"`
	Entries       int     `json:"entries"`
}

// dailyAverage divides a persona's total hours by the number of distinct dates
// it was logged on.
func dailyAverage(entries []persona.Entry, p persona.Persona) float64 {
	total := 0.0
	days := make(map[time.Time]struct{})
	for _, e := range entries {
		if e.Persona != p {
			continue
		}
		total += e.Hours
		days[persona.Day(e.Date)] = struct{}{}
	}
	if len(days) == 0 {
		return 0
	}
	return total / float64(len(days))
}

// Compute scores entries that are already restricted to the scoring window.
func Compute(entries []persona.Entry) Breakdown {
	if len(entries) == 0 {
		return Breakdown{Score: Neutral}
	}

	b := Breakdown{
		AvgSleep:      dailyAverage(entries, persona.Sleep),
		AvgWork:       dailyAverage(entries, persona.Professional),
		AvgIndividual: dailyAverage(entries, persona.Individual),
		Entries:       len(entries),
	}
	b.SleepScore = stats.Clamp((b.AvgSleep-sleepFloor)/(sleepTarget-sleepFloor), 0, 1)
	b.WorkScore = stats.Clamp(1-(b.AvgWork-workComfort)/(workLimit-workComfort), 0, 1)
	b.RecoveryScore = stats.Clamp(b.AvgIndividual/recoveryTarget, 0, 1)
	b.Score = stats.Round(weightSleep*b.SleepScore+weightWork*b.WorkScore+weightRecovery*b.RecoveryScore, 2)
	return b
}

// Score returns the rounded readiness of pre-windowed entries.
func Score(entries []persona.Entry) float64 {
	return Compute(entries).Score
}

// Window keeps the entries dated within (end-days, end].
func Window(entries []persona.Entry, end time.Time, days int) []persona.Entry {
	if days <= 0 {
		days = DefaultWindowDays
	}
	last := persona.Day(end)
	first := last.AddDate(0, 0, -days)

	var out []persona.Entry
	for _, e := range entries {
		d := persona.Day(e.Date)
		if d.After(first) && !d.After(last) {
			out = append(out, e)
		}
	}
	return out
}

// ScoreWindow scores the trailing window ending at end.
func ScoreWindow(entries []persona.Entry, end time.Time, days int) Breakdown {
	return Compute(Window(entries, end, days))
}

// Latest scores the trailing window ending at the most recent entry.
func Latest(entries []persona.Entry, days int) Breakdown {
	_, last, ok := persona.Span(entries)
	if !ok {
		return Compute(nil)
	}
	return ScoreWindow(entries, last, days)
}
