package visuals

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"persona-mcp/internal/anomaly"
	"persona-mcp/internal/forecast"
	"persona-mcp/internal/optimizer"
	"persona-mcp/internal/persona"
	"persona-mcp/internal/stats"
)

// maxPoints is roughly where Mermaid's xychart layout starts overlapping labels.
const maxPoints = 60

func formatValues(values []float64) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(out, ", ")
}

func quoteLabels(labels []string) string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = fmt.Sprintf("\"%s\"", l)
	}
	return strings.Join(out, ", ")
}

func maxOf(series ...[]float64) float64 {
	m := 0.0
	for _, s := range series {
		for _, v := range s {
			m = math.Max(m, v)
		}
	}
	return m
}

// GenerateForecastChart creates a Mermaid xychart-beta with the 12-month projection and its bounds.
func GenerateForecastChart(p persona.Persona, result forecast.Result) string {
	if len(result.Forecast) == 0 {
		return ""
	}

	labels := make([]string, len(result.Forecast))
	for i := range labels {
		labels[i] = fmt.Sprintf("M+%d", i+1)
	}
	maxY := maxOf(result.Forecast, result.ConfidenceUpper) * 1.1

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s Forecast (%s)\"\n", p.Name(), result.Method))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoteLabels(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours / Month\" 0 --> %d\n", int(math.Ceil(math.Max(1, maxY)))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", formatValues(result.Forecast)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", formatValues(result.ConfidenceUpper)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", formatValues(result.ConfidenceLower)))
	sb.WriteString("```")
	return sb.String()
}

// GenerateDecompositionChart plots the observed daily series against its trend.
func GenerateDecompositionChart(pd anomaly.PersonaDecomposition) string {
	if pd.Series.Len() == 0 || len(pd.Result.Trend) != pd.Series.Len() {
		return ""
	}

	// Subsample points if the chart is too wide for Mermaid's layout engine
	step := 1
	if pd.Series.Len() > maxPoints {
		step = int(math.Ceil(float64(pd.Series.Len()) / maxPoints))
	}

	var labels []string
	var observed, trend []float64
	for i, d := range pd.Series.Dates {
		if i%step == 0 || i == pd.Series.Len()-1 {
			labels = append(labels, d.Format("Jan02"))
			observed = append(observed, pd.Series.Values[i])
			trend = append(trend, pd.Result.Trend[i])
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s: Observed vs Trend\"\n", pd.Persona.Name()))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoteLabels(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours / Day\" 0 --> %d\n", int(math.Ceil(math.Max(1, maxOf(observed, trend)*1.1)))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", formatValues(observed)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", formatValues(trend)))
	sb.WriteString("```")
	return sb.String()
}

// GenerateAnomalyChart creates a Mermaid bar chart of anomaly counts per month.
func GenerateAnomalyChart(anomalies []anomaly.Anomaly) string {
	if len(anomalies) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, a := range anomalies {
		month := a.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		counts[month]++
	}

	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	slices.Sort(months)
	if len(months) > maxPoints {
		months = months[len(months)-maxPoints:]
	}

	values := make([]string, len(months))
	maxVal := 0
	for i, m := range months {
		values[i] = fmt.Sprintf("%d", counts[m])
		maxVal = max(maxVal, counts[m])
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Anomalies per Month\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoteLabels(months)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Anomalies\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateProfilePie creates a Mermaid pie chart of the optimized monthly allocation.
func GenerateProfilePie(profile optimizer.Profile) string {
	if profile.Total() <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Optimized Monthly Allocation (Hours)\n")
	for _, p := range persona.All() {
		if v := profile.Get(p); v > 0 {
			sb.WriteString(fmt.Sprintf("    \"%s\" : %.1f\n", p.Name(), v))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateRunRateChart compares the historical monthly average to the forecast run-rate per persona.
func GenerateRunRateChart(history map[persona.Persona]stats.DenseSeries, forecasts map[persona.Persona]forecast.Result) string {
	if len(forecasts) == 0 {
		return ""
	}

	var labels []string
	var past, next []float64
	for _, p := range persona.All() {
		r, ok := forecasts[p]
		if !ok {
			continue
		}
		labels = append(labels, p.Name())
		past = append(past, stats.Mean(history[p].Values))
		next = append(next, r.Mean())
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Monthly Run-Rate: History vs Forecast\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoteLabels(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours / Month\" 0 --> %d\n", int(math.Ceil(math.Max(1, maxOf(past, next)*1.2)))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", formatValues(past)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", formatValues(next)))
	sb.WriteString("```")
	return sb.String()
}
