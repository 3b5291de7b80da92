package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/source"
)

// Scenarios understood by Generate.
const (
	ScenarioSteady     = "steady"
	ScenarioSabbatical = "sabbatical"
	ScenarioChaos      = "chaos"
)

type GeneratorConfig struct {
	Scenario string
	Years    int
	Seed     int64
	Now      time.Time
}

// dailyPlan is the baseline weekday/weekend hours per persona.
var dailyPlan = map[persona.Persona][2]float64{
	persona.Sleep:        {7.5, 8.5},
	persona.Spiritual:    {1.0, 1.5},
	persona.Individual:   {1.5, 3.0},
	persona.Professional: {8.0, 0},
	persona.Husband:      {1.5, 4.0},
	persona.Family:       {1.0, 3.5},
	persona.Social:       {0.5, 2.0},
}

// Generate produces one entry per persona and day from January of Now-Years
// through the day before Now.
func Generate(cfg GeneratorConfig) ([]persona.Entry, error) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Years < 1 {
		cfg.Years = 5
	}
	switch cfg.Scenario {
	case ScenarioSteady, ScenarioSabbatical, ScenarioChaos:
	default:
		return nil, fmt.Errorf("unknown scenario %q (use steady, sabbatical, chaos)", cfg.Scenario)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	end := persona.Day(cfg.Now)
	start := time.Date(end.Year()-cfg.Years, time.January, 1, 0, 0, 0, 0, time.UTC)
	sabbaticalYear := end.Year() - 1

	var entries []persona.Entry
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		weekend := 0
		if persona.DayTypeOf(d) == persona.Weekend {
			weekend = 1
		}

		for _, p := range persona.All() {
			base := dailyPlan[p][weekend]
			if p == persona.Professional && cfg.Scenario == ScenarioSabbatical && d.Year() == sabbaticalYear {
				base *= 0.35
			}
			if base == 0 {
				continue
			}

			hours := base + rng.NormFloat64()*base*0.1
			if cfg.Scenario == ScenarioChaos && rng.Float64() < 0.02 {
				hours *= 2.5 // spike
			}
			entries = append(entries, persona.NewEntry(d, p, round(math.Max(0, hours))))
		}

		// Double-logged sleep pushes the day past 24h.
		if cfg.Scenario == ScenarioChaos && rng.Float64() < 0.01 {
			entries = append(entries, persona.NewEntry(d, persona.Sleep, 9))
		}
	}

	return entries, nil
}

func round(v float64) float64 {
	return math.Round(v*4) / 4
}

// Save writes the entries as a JSON array to path.
func Save(path string, entries []persona.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// SaveSQLite appends the entries to the SQLite database at path.
func SaveSQLite(ctx context.Context, path string, entries []persona.Entry) error {
	store, err := source.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Insert(ctx, entries)
}
