package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"persona-mcp/internal/optimizer"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type loadEntriesInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"Refetch the entry log from its sources and drop cached analysis"`
}

type detectAnomaliesInput struct {
	Persona  string `json:"persona,omitempty" jsonschema:"Only report anomalies for this persona"`
	Severity string `json:"severity,omitempty" jsonschema:"Only report anomalies of this severity (Critical, Warning, Info)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of anomalies to return (default 50)"`
}

type forecastInput struct {
	Persona string `json:"persona,omitempty" jsonschema:"Forecast a single persona instead of all seven"`
}

type decomposeInput struct {
	Persona string `json:"persona" jsonschema:"The persona whose daily series is decomposed"`
}

type readinessInput struct {
	WindowDays int    `json:"window_days,omitempty" jsonschema:"Length of the trailing window in days (default 30)"`
	EndDate    string `json:"end_date,omitempty" jsonschema:"Last day of the window as YYYY-MM-DD (default: latest entry)"`
}

type optimizeInput struct {
	MaxDailyHours        *float64           `json:"max_daily_hours,omitempty" jsonschema:"Daily hour ceiling used for the sleep plus work sanity check"`
	MaxWorkHoursPerMonth *float64           `json:"max_work_hours_per_month,omitempty" jsonschema:"Monthly work ceiling"`
	MinWorkHoursPerMonth *float64           `json:"min_work_hours_per_month,omitempty" jsonschema:"Monthly work floor"`
	TargetSleepPerDay    *float64           `json:"target_sleep_per_day,omitempty" jsonschema:"Daily sleep target in hours"`
	GrowthMultipliers    map[string]float64 `json:"growth_multipliers,omitempty" jsonschema:"Growth multiplier per growth persona (family, husband, individual, spiritual)"`
	Readiness            *float64           `json:"readiness,omitempty" jsonschema:"Readiness override in [0,1]; omitted means computed from recent entries"`
}

func (s *Server) registerTools(server *sdk.Server) error {
	if err := addTool(server, "load_entries",
		"Load the time-entry log and summarise it per persona. Guidance: Call this first; use 'refresh' after new entries were logged.",
		func(ctx context.Context, in loadEntriesInput) (any, error) {
			return s.handleLoadEntries(ctx, in.Refresh)
		}); err != nil {
		return err
	}

	if err := addTool(server, "detect_anomalies",
		"Audit the entry log with structural policy rules and statistical residual analysis. Guidance: Resolve Critical data-integrity findings before trusting forecasts.",
		func(ctx context.Context, in detectAnomaliesInput) (any, error) {
			return s.handleDetectAnomalies(ctx, in.Persona, in.Severity, in.Limit)
		}, "persona"); err != nil {
		return err
	}

	if err := addTool(server, "forecast_personas",
		"Forecast monthly hours per persona for the next 12 months with Holt-Winters smoothing and 95% confidence bounds. Guidance: Follow with 'optimize_allocation' to turn run-rates into a target profile.",
		func(ctx context.Context, in forecastInput) (any, error) {
			return s.handleForecastPersonas(ctx, in.Persona)
		}, "persona"); err != nil {
		return err
	}

	if err := addTool(server, "decompose_series",
		"Split a persona's daily hours into trend, weekly seasonal and residual components, and list residual outliers.",
		func(ctx context.Context, in decomposeInput) (any, error) {
			return s.handleDecomposeSeries(ctx, in.Persona)
		}, "persona"); err != nil {
		return err
	}

	if err := addTool(server, "get_readiness",
		"Score recent recovery (sleep, work load, individual time) on a 0..1 scale. Guidance: Scores below 0.5 halve growth targets in 'optimize_allocation'.",
		func(ctx context.Context, in readinessInput) (any, error) {
			return s.handleGetReadiness(ctx, in.WindowDays, in.EndDate)
		}); err != nil {
		return err
	}

	return addTool(server, "optimize_allocation",
		"Propose a monthly hour profile that fixes sleep and work, grows the growth personas by readiness, and fits everything into the month.",
		func(ctx context.Context, in optimizeInput) (any, error) {
			return s.handleOptimizeAllocation(ctx, optimizer.Overrides{
				MaxDailyHours:        in.MaxDailyHours,
				MaxWorkHoursPerMonth: in.MaxWorkHoursPerMonth,
				MinWorkHoursPerMonth: in.MinWorkHoursPerMonth,
				TargetSleepPerDay:    in.TargetSleepPerDay,
				GrowthMultipliers:    in.GrowthMultipliers,
				Readiness:            in.Readiness,
			})
		})
}

// addTool registers a handler whose input schema is inferred from In.
// Properties named in personaFields are restricted to the persona labels.
func addTool[In any](server *sdk.Server, name, description string, handle func(context.Context, In) (any, error), personaFields ...string) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("input schema for %s: %w", name, err)
	}
	for _, field := range personaFields {
		prop, ok := schema.Properties[field]
		if !ok {
			return fmt.Errorf("input schema for %s has no property %q", name, field)
		}
		for _, label := range personaLabels() {
			prop.Enum = append(prop.Enum, label)
		}
	}

	sdk.AddTool(server, &sdk.Tool{Name: name, Description: description, InputSchema: schema},
		func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
			start := time.Now()
			res, err := handle(ctx, in)
			if err != nil {
				log.Error().Err(err).Str("tool", name).Msg("Tool call failed")
				return nil, nil, err
			}
			out, err := json.Marshal(res)
			if err != nil {
				return nil, nil, err
			}
			log.Info().Str("tool", name).Dur("elapsed", time.Since(start)).Int("bytes", len(out)).Msg("Tool call completed")
			return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: string(out)}}}, nil, nil
		})
	return nil
}
