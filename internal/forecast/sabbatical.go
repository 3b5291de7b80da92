package forecast

import (
	"persona-mcp/internal/stats"
)

const (
	// SabbaticalThreshold is the monthly work average under which a year counts as atypical.
	SabbaticalThreshold = 120.0
	// SabbaticalBaselineYears is how many years before the atypical one form the baseline.
	SabbaticalBaselineYears = 4
	// SabbaticalBand is the relative confidence band around the baseline.
	SabbaticalBand = 0.05
)

// yearAverage returns the mean monthly value for the years in [from, to].
func yearAverage(series stats.DenseSeries, from, to int) (float64, bool) {
	var values []float64
	for i, d := range series.Dates {
		if y := d.Year(); y >= from && y <= to {
			values = append(values, series.Values[i])
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	return stats.Mean(values), true
}

// ApplySabbatical replaces the forecast with the flat average of the
// SabbaticalBaselineYears preceding lastYear when lastYear's monthly work
// average falls below SabbaticalThreshold.
func (hw HoltWinters) ApplySabbatical(res Result, monthly stats.DenseSeries, lastYear int) (Result, bool) {
	recent, ok := yearAverage(monthly, lastYear, lastYear)
	if !ok || recent >= SabbaticalThreshold {
		return res, false
	}

	baseline, ok := yearAverage(monthly, lastYear-SabbaticalBaselineYears, lastYear-1)
	if !ok {
		return res, false
	}

	if hw.Horizon < 1 {
		hw.Horizon = len(res.Forecast)
	}
	override := hw.constant(MethodSabbatical, res.History, baseline, SabbaticalBand)
	override.StdErr = res.StdErr
	return override, true
}
