package stats

import (
	"math"
	"time"
)

const (
	// ModifiedZConstant scales MAD to be consistent with the standard deviation of a normal distribution.
	ModifiedZConstant = 0.6745
	// OutlierThreshold is the |z| above which a residual is flagged.
	OutlierThreshold = 3.5
	// CriticalThreshold is the |z| above which a flagged residual is critical.
	CriticalThreshold = 6.0
	// MinPracticalDeviation suppresses flags whose hour delta is negligible.
	MinPracticalDeviation = 1.0
)

// OutlierInput carries the aligned arrays produced by Decompose for one series.
type OutlierInput struct {
	Dates    []time.Time
	Observed []float64
	Trend    []float64
	Seasonal []float64
	Residual []float64
}

// NewOutlierInput aligns a dense series with its decomposition.
func NewOutlierInput(series DenseSeries, d Decomposition) OutlierInput {
	return OutlierInput{
		Dates:    series.Dates,
		Observed: series.Values,
		Trend:    d.Trend,
		Seasonal: d.Seasonal,
		Residual: d.Residual,
	}
}

// Outlier is a residual that deviates beyond the modified z-score threshold.
type Outlier struct {
	Index    int       `json:"index"`
	Date     time.Time `json:"date"`
	Observed float64   `json:"observed"`
	Expected float64   `json:"expected"`
	Score    float64   `json:"score"`
	Critical bool      `json:"critical"`
}

// DetectOutliers flags residuals whose modified z-score exceeds OutlierThreshold.
// Constant residuals (MAD == 0) yield no outliers.
func DetectOutliers(in OutlierInput) []Outlier {
	median, mad := CalculateMAD(in.Residual)
	if mad == 0 {
		return nil
	}

	var outliers []Outlier
	for i, r := range in.Residual {
		z := ModifiedZConstant * (r - median) / mad
		if math.Abs(z) <= OutlierThreshold {
			continue
		}

		expected := in.Trend[i] + in.Seasonal[i]
		if math.Abs(in.Observed[i]-expected) < MinPracticalDeviation {
			continue
		}

		o := Outlier{
			Index:    i,
			Observed: in.Observed[i],
			Expected: expected,
			Score:    z,
			Critical: math.Abs(z) > CriticalThreshold,
		}
		if i < len(in.Dates) {
			o.Date = in.Dates[i]
		}
		outliers = append(outliers, o)
	}
	return outliers
}
