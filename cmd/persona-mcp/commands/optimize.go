package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"persona-mcp/internal/optimizer"

	"github.com/spf13/cobra"
)

var optimizeFlags struct {
	maxDaily  float64
	maxWork   float64
	minWork   float64
	sleep     float64
	readiness float64
	growth    map[string]string
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Propose a monthly allocation from the current forecasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := overridesFromFlags(cmd)
		if err != nil {
			return err
		}
		base, err := in.Apply(cfg.Optimizer)
		if err != nil {
			return err
		}

		snap, err := svc.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		sol, err := snap.Optimize(cmd.Context(), base, in.HasReadiness())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sol)
	},
}

// overridesFromFlags turns explicitly set flags into overrides; unset flags
// keep the configured defaults.
func overridesFromFlags(cmd *cobra.Command) (optimizer.Overrides, error) {
	var in optimizer.Overrides
	f := cmd.Flags()
	pick := func(name string, v float64) *float64 {
		if f.Changed(name) {
			return &v
		}
		return nil
	}
	in.MaxDailyHours = pick("max-daily-hours", optimizeFlags.maxDaily)
	in.MaxWorkHoursPerMonth = pick("max-work", optimizeFlags.maxWork)
	in.MinWorkHoursPerMonth = pick("min-work", optimizeFlags.minWork)
	in.TargetSleepPerDay = pick("sleep", optimizeFlags.sleep)
	in.Readiness = pick("readiness", optimizeFlags.readiness)
	if f.Changed("growth") {
		in.GrowthMultipliers = make(map[string]float64, len(optimizeFlags.growth))
		for label, raw := range optimizeFlags.growth {
			m, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return in, fmt.Errorf("invalid growth multiplier %s=%q", label, raw)
			}
			in.GrowthMultipliers[label] = m
		}
	}
	return in, nil
}

func addOptimizerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&optimizeFlags.maxDaily, "max-daily-hours", 24, "daily ceiling for sleep plus work")
	f.Float64Var(&optimizeFlags.maxWork, "max-work", 200, "monthly work ceiling in hours")
	f.Float64Var(&optimizeFlags.minWork, "min-work", 0, "monthly work floor in hours")
	f.Float64Var(&optimizeFlags.sleep, "sleep", 7.5, "daily sleep target in hours")
	f.Float64Var(&optimizeFlags.readiness, "readiness", 0.5, "readiness override in [0,1] (default: computed from recent entries)")
	f.StringToStringVar(&optimizeFlags.growth, "growth", nil, "growth multipliers, e.g. family=1.2,spiritual=1.5")
}

func init() {
	addOptimizerFlags(optimizeCmd)
	rootCmd.AddCommand(optimizeCmd)
}
