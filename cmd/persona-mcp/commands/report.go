package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"
	"persona-mcp/internal/visuals"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var reportFlags struct {
	out  string
	open bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown report with Mermaid charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in, err := overridesFromFlags(cmd)
		if err != nil {
			return err
		}
		base, err := in.Apply(cfg.Optimizer)
		if err != nil {
			return err
		}

		entries, err := svc.Entries(ctx)
		if err != nil {
			return err
		}
		snap, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		sol, err := snap.Optimize(ctx, base, in.HasReadiness())
		if err != nil {
			return err
		}

		history := make(map[persona.Persona]stats.DenseSeries)
		for _, p := range persona.All() {
			history[p] = svc.Engine.Forecasts.MonthlyHistory(entries, p)
		}

		out := reportFlags.out
		if out == "" {
			out = filepath.Join(cfg.DataPath, fmt.Sprintf("report-%s.md", time.Now().Format("20060102-150405")))
		}
		if err := os.WriteFile(out, []byte(visuals.GenerateReport(snap, sol, history, time.Now())), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info().Str("path", out).Msg("Report written")
		fmt.Println(out)

		if reportFlags.open {
			abs, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			return browser.OpenFile(abs)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFlags.out, "out", "o", "", "report path (default: DATA_PATH/report-<timestamp>.md)")
	reportCmd.Flags().BoolVar(&reportFlags.open, "open", false, "open the report with the system viewer")
	addOptimizerFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}
