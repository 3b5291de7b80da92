package stats

// WeeklyPeriod is the seasonal period used for daily series.
const WeeklyPeriod = 7

// Decomposition splits a series into additive components:
// Observed[i] == Trend[i] + Seasonal[i] + Residual[i].
type Decomposition struct {
	Period   int       `json:"period"`
	Observed []float64 `json:"observed"`
	Trend    []float64 `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Residual []float64 `json:"residual"`
	// Pattern holds one seasonal index per phase. The indices are not
	// renormalised to sum to zero, so the residual mean can drift from zero.
	Pattern []float64 `json:"pattern"`
}

// Decompose performs a single-pass seasonal-trend decomposition: a centered
// moving average (shrinking at the edges) for the trend, and per-phase means
// of the detrended values for the seasonal pattern.
func Decompose(values []float64, period int) Decomposition {
	if period < 1 {
		period = 1
	}
	n := len(values)
	result := Decomposition{
		Period:   period,
		Observed: values,
		Trend:    make([]float64, n),
		Seasonal: make([]float64, n),
		Residual: make([]float64, n),
		Pattern:  make([]float64, period),
	}
	if n == 0 {
		return result
	}

	// 1. Trend: centered moving average over whatever points fall in the window.
	half := period / 2
	for i := range values {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		result.Trend[i] = sum / float64(hi-lo+1)
	}

	// 2. Seasonal pattern: mean detrended value per phase.
	sums := make([]float64, period)
	counts := make([]int, period)
	for i, v := range values {
		phase := i % period
		sums[phase] += v - result.Trend[i]
		counts[phase]++
	}
	for phase := range result.Pattern {
		if counts[phase] > 0 {
			result.Pattern[phase] = sums[phase] / float64(counts[phase])
		}
	}

	// 3. Broadcast the pattern and take what is left as residual.
	for i, v := range values {
		result.Seasonal[i] = result.Pattern[i%period]
		result.Residual[i] = v - result.Trend[i] - result.Seasonal[i]
	}

	return result
}
