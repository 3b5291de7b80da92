package commands

import (
	"fmt"

	"persona-mcp/internal/analysis"
	"persona-mcp/internal/config"
	"persona-mcp/internal/forecast"
	"persona-mcp/internal/source"

	"github.com/rs/zerolog/log"
)

const datasetName = "entries"

// buildSource assembles the configured strategies in priority order:
// HTTP feed, local file, SQLite database.
func buildSource(cfg *config.AppConfig) (source.Source, func() error, error) {
	chain := &source.Chain{Timeout: cfg.Sources.FetchTimeout}
	closer := func() error { return nil }

	if cfg.Sources.URL != "" {
		chain.Sources = append(chain.Sources, source.NewHTTPSource(cfg.Sources.URL, cfg.Sources.FetchTimeout))
	}
	if cfg.Sources.File != "" {
		chain.Sources = append(chain.Sources, &source.FileSource{Path: cfg.Sources.File})
	}
	if cfg.Sources.DB != "" {
		store, err := source.OpenSQLite(cfg.Sources.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("open entries database: %w", err)
		}
		chain.Sources = append(chain.Sources, store)
		closer = store.Close
	}

	if len(chain.Sources) == 0 {
		log.Warn().Msg("No entry source configured (ENTRIES_URL, ENTRIES_FILE, ENTRIES_DB); only the cached snapshot can be served")
	}
	return chain, closer, nil
}

func buildService(cfg *config.AppConfig) (*analysis.Service, func() error, error) {
	src, closer, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	provider := source.NewProvider(datasetName, src, &source.SnapshotCache{Dir: cfg.CacheDir})
	engine := analysis.NewEngine(forecast.NewService(cfg.ForecastAnchor), cfg.ReadinessWindowDays)
	return analysis.NewService(provider, engine), closer, nil
}
