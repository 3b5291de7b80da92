package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"persona-mcp/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", engine.ScenarioSteady, "Scenario to generate: steady, sabbatical, chaos")
	years := flag.Int("years", 5, "Number of complete years of history before the current one")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	out := flag.String("out", "./.cache/entries.json", "Output JSON file")
	db := flag.String("db", "", "Optional SQLite database to populate")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Years:    *years,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (%d years) to %s...\n", cfg.Scenario, cfg.Years, *out)

	entries, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}

	if err := engine.Save(*out, entries); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	if *db != "" {
		if err := engine.SaveSQLite(context.Background(), *db, entries); err != nil {
			fmt.Printf("Failed to write SQLite database: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Done. %d entries.\n", len(entries))
}
