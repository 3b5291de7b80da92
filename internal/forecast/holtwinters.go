package forecast

import (
	"math"

	"persona-mcp/internal/stats"
)

// Method records how a forecast was produced.
type Method string

const (
	MethodHoltWinters Method = "holt_winters"
	MethodFlatMean    Method = "flat_mean"
	MethodSabbatical  Method = "sabbatical_baseline"
)

const (
	DefaultAlpha   = 0.2
	DefaultBeta    = 0.1
	DefaultGamma   = 0.1
	DefaultPeriod  = 12
	DefaultHorizon = 12

	// FallbackBand is the relative confidence band of the flat-mean fallback.
	FallbackBand = 0.10
	// zScore95 is the two-sided 95% normal quantile.
	zScore95 = 1.96
)

// Result is the projection for one persona. It is never mutated after creation.
type Result struct {
	Forecast        []float64 `json:"forecast"`
	ConfidenceUpper []float64 `json:"confidence_upper"`
	ConfidenceLower []float64 `json:"confidence_lower"`
	Alpha           float64   `json:"alpha"`
	Beta            float64   `json:"beta"`
	Gamma           float64   `json:"gamma"`
	Method          Method    `json:"method"`
	History         int       `json:"history_points"`
	StdErr          float64   `json:"std_err"`
}

// Mean returns the average forecast value (the monthly run-rate).
func (r Result) Mean() float64 {
	return stats.Mean(r.Forecast)
}

// HoltWinters is an additive triple exponential smoothing model.
type HoltWinters struct {
	Alpha   float64 // level
	Beta    float64 // trend
	Gamma   float64 // seasonal
	Period  int
	Horizon int
}

// NewHoltWinters returns the model with the default monthly configuration.
func NewHoltWinters() HoltWinters {
	return HoltWinters{
		Alpha:   DefaultAlpha,
		Beta:    DefaultBeta,
		Gamma:   DefaultGamma,
		Period:  DefaultPeriod,
		Horizon: DefaultHorizon,
	}
}

// Fit trains on the history and projects Horizon steps ahead. Histories shorter
// than two full periods fall back to a flat forecast at the overall mean.
func (hw HoltWinters) Fit(values []float64) Result {
	if hw.Period < 1 {
		hw.Period = DefaultPeriod
	}
	if hw.Horizon < 1 {
		hw.Horizon = DefaultHorizon
	}

	if len(values) < 2*hw.Period {
		return hw.flat(values)
	}

	p := hw.Period
	n := len(values)

	// 1. Initialization from the first two cycles
	level := stats.Mean(values[:p])
	trend := 0.0
	for i := 0; i < p; i++ {
		trend += (values[i+p] - values[i]) / float64(p)
	}
	trend /= float64(p)

	seasonal := make([]float64, p)
	for i := 0; i < p; i++ {
		seasonal[i] = values[i] - level
	}

	// 2. Single forward training pass
	sumSq := 0.0
	for t, actual := range values {
		phase := t % p
		prevSeason := seasonal[phase]

		fitted := level + trend + prevSeason
		residual := actual - fitted
		sumSq += residual * residual

		newLevel := hw.Alpha*(actual-prevSeason) + (1-hw.Alpha)*(level+trend)
		trend = hw.Beta*(newLevel-level) + (1-hw.Beta)*trend
		seasonal[phase] = hw.Gamma*(actual-newLevel) + (1-hw.Gamma)*prevSeason
		level = newLevel
	}
	stdErr := math.Sqrt(sumSq / float64(n))

	// 3. Projection with horizon-widening bounds
	result := hw.newResult(MethodHoltWinters, n)
	result.StdErr = stdErr
	for h := 1; h <= hw.Horizon; h++ {
		f := math.Max(0, level+float64(h)*trend+seasonal[(n-1+h)%p])
		margin := zScore95 * stdErr * math.Sqrt(float64(h))
		result.Forecast[h-1] = f
		result.ConfidenceUpper[h-1] = f + margin
		result.ConfidenceLower[h-1] = math.Max(0, f-margin)
	}

	return result
}

func (hw HoltWinters) flat(values []float64) Result {
	mean := math.Max(0, stats.Mean(values))
	return hw.constant(MethodFlatMean, len(values), mean, FallbackBand)
}

func (hw HoltWinters) constant(method Method, history int, value, band float64) Result {
	result := hw.newResult(method, history)
	for i := range result.Forecast {
		result.Forecast[i] = value
		result.ConfidenceUpper[i] = value * (1 + band)
		result.ConfidenceLower[i] = value * (1 - band)
	}
	return result
}

func (hw HoltWinters) newResult(method Method, history int) Result {
	return Result{
		Forecast:        make([]float64, hw.Horizon),
		ConfidenceUpper: make([]float64, hw.Horizon),
		ConfidenceLower: make([]float64, hw.Horizon),
		Alpha:           hw.Alpha,
		Beta:            hw.Beta,
		Gamma:           hw.Gamma,
		Method:          method,
		History:         history,
	}
}
