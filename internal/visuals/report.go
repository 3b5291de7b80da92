package visuals

import (
	"fmt"
	"strings"
	"time"

	"persona-mcp/internal/analysis"
	"persona-mcp/internal/anomaly"
	"persona-mcp/internal/optimizer"
	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"
)

// maxReportAnomalies caps the anomaly table; the chart still counts all of them.
const maxReportAnomalies = 20

// GenerateReport renders a snapshot and an optimized profile as a Markdown
// document with embedded Mermaid charts.
func GenerateReport(snap *analysis.Snapshot, sol optimizer.Solution, history map[persona.Persona]stats.DenseSeries, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Persona Time Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated %s from %d entries (%s to %s). Snapshot `%s`.\n\n",
		generatedAt.UTC().Format(time.RFC3339), snap.EntryCount, snap.FirstDate, snap.LastDate, snap.ID))

	// Readiness
	r := snap.Readiness
	sb.WriteString("## Readiness\n\n")
	sb.WriteString("| Score | Sleep | Work | Recovery | Avg sleep (h) | Avg work (h) | Avg individual (h) |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| %.2f | %.2f | %.2f | %.2f | %.1f | %.1f | %.1f |\n\n",
		r.Score, r.SleepScore, r.WorkScore, r.RecoveryScore, r.AvgSleep, r.AvgWork, r.AvgIndividual))

	// Anomalies
	sb.WriteString("## Anomalies\n\n")
	if len(snap.Anomalies) == 0 {
		sb.WriteString("No anomalies detected.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("%d anomalies: %d critical, %d warning, %d info.\n\n",
			snap.Summary.Total, snap.Summary.BySeverity[anomaly.Critical], snap.Summary.BySeverity[anomaly.Warning], snap.Summary.BySeverity[anomaly.Info]))
		sb.WriteString(GenerateAnomalyChart(snap.Anomalies))
		sb.WriteString("\n\n| Date | Severity | Category | Description |\n|---|---|---|---|\n")
		for i, a := range snap.Anomalies {
			if i == maxReportAnomalies {
				break
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", a.Date, a.Severity, a.Category, escapeCell(a.Description)))
		}
		sb.WriteString("\n")
	}

	// Forecasts
	sb.WriteString("## Forecasts (next 12 months)\n\n")
	sb.WriteString("| Persona | Method | History (months) | Run-rate (h/month) |\n|---|---|---|---|\n")
	for _, p := range persona.All() {
		res, ok := snap.Forecasts[p]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.1f |\n", p.Label(), res.Method, res.History, res.Mean()))
	}
	sb.WriteString("\n")
	if chart := GenerateRunRateChart(history, snap.Forecasts); chart != "" {
		sb.WriteString(chart)
		sb.WriteString("\n\n")
	}

	// Allocation
	sb.WriteString("## Optimized Allocation\n\n")
	sb.WriteString(fmt.Sprintf("Ambition factor %.2f, capacity %.1f h/month", sol.AmbitionFactor, sol.Capacity))
	if sol.Scaled {
		sb.WriteString(fmt.Sprintf(", growth scaled by %.2f", sol.ScaleFactor))
	}
	sb.WriteString(".\n\n| Persona | Hours / month |\n|---|---|\n")
	for _, p := range persona.All() {
		sb.WriteString(fmt.Sprintf("| %s | %.1f |\n", p.Label(), sol.Profile.Get(p)))
	}
	sb.WriteString("\n")
	if chart := GenerateProfilePie(sol.Profile); chart != "" {
		sb.WriteString(chart)
		sb.WriteString("\n\n")
	}
	for _, w := range sol.Warnings {
		sb.WriteString("> ")
		sb.WriteString(w)
		sb.WriteString("\n")
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
