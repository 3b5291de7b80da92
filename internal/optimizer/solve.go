// Package optimizer allocates a monthly hour budget across the life
// categories in a single deterministic goal-programming pass.
package optimizer

import (
	"fmt"
	"math"

	"persona-mcp/internal/forecast"
	"persona-mcp/internal/persona"

	"github.com/rs/zerolog/log"
)

const (
	// DaysPerMonth is the average month length used for every monthly conversion.
	DaysPerMonth = 30.4
	// HoursPerDay bounds the monthly capacity.
	HoursPerDay = 24.0
	// MinGrowthBaseline keeps multiplicative growth meaningful for categories with no history.
	MinGrowthBaseline = 5.0
	// LowReadiness is the score under which growth deltas are halved.
	LowReadiness = 0.5
)

// Capacity is the total number of hours available in an average month.
func Capacity() float64 {
	return HoursPerDay * DaysPerMonth
}

// Profile is the monthly allocation per life category. Every value is >= 0.
type Profile struct {
	Work       float64 `json:"work"`
	Sleep      float64 `json:"sleep"`
	Family     float64 `json:"family"`
	Husband    float64 `json:"husband"`
	Individual float64 `json:"individual"`
	Social     float64 `json:"social"`
	Spiritual  float64 `json:"spiritual"`
}

// Total sums every category.
func (p Profile) Total() float64 {
	return p.Work + p.Sleep + p.flexible()
}

func (p Profile) flexible() float64 {
	return p.Family + p.Husband + p.Individual + p.Social + p.Spiritual
}

// Get returns the allocation for a persona.
func (p Profile) Get(c persona.Persona) float64 {
	switch c {
	case persona.Sleep:
		return p.Sleep
	case persona.Spiritual:
		return p.Spiritual
	case persona.Individual:
		return p.Individual
	case persona.Professional:
		return p.Work
	case persona.Husband:
		return p.Husband
	case persona.Family:
		return p.Family
	case persona.Social:
		return p.Social
	}
	return 0
}

// AsMap keys the profile by persona.
func (p Profile) AsMap() map[persona.Persona]float64 {
	out := make(map[persona.Persona]float64, len(persona.All()))
	for _, c := range persona.All() {
		out[c] = p.Get(c)
	}
	return out
}

// Solution is a solved profile plus how it was reached.
type Solution struct {
	Profile        Profile  `json:"profile"`
	AmbitionFactor float64  `json:"ambition_factor"`
	Capacity       float64  `json:"capacity"`
	Scaled         bool     `json:"scaled"`
	ScaleFactor    float64  `json:"scale_factor"`
	Surplus        float64  `json:"surplus"`
	Warnings       []string `json:"warnings,omitempty"`
}

// MeansFrom reduces forecasts to their monthly run-rates.
func MeansFrom(results map[persona.Persona]forecast.Result) map[persona.Persona]float64 {
	means := make(map[persona.Persona]float64, len(results))
	for p, r := range results {
		means[p] = r.Mean()
	}
	return means
}

// AmbitionFactor damps growth when readiness is low.
func AmbitionFactor(readiness float64) float64 {
	if readiness < LowReadiness {
		return 0.5
	}
	return 1.0
}

func grow(mean, multiplier, ambition float64) float64 {
	baseline := math.Max(mean, MinGrowthBaseline)
	return baseline + baseline*(multiplier-1)*ambition
}

// Solve computes the optimized profile. means holds the forecast run-rate per
// persona; missing personas count as zero. cfg is assumed valid.
func Solve(means map[persona.Persona]float64, cfg Config) Solution {
	ambition := AmbitionFactor(cfg.Readiness)
	capacity := Capacity()

	// 1. Fixed allocations
	work := means[persona.Professional]
	work = math.Max(work, cfg.MinWorkHoursPerMonth)
	work = math.Min(work, cfg.MaxWorkHoursPerMonth)

	p := Profile{
		Sleep:      cfg.TargetSleepPerDay * DaysPerMonth,
		Work:       work,
		Family:     grow(means[persona.Family], cfg.Growth.Family, ambition),
		Husband:    grow(means[persona.Husband], cfg.Growth.Husband, ambition),
		Individual: grow(means[persona.Individual], cfg.Growth.Individual, ambition),
		Spiritual:  grow(means[persona.Spiritual], cfg.Growth.Spiritual, ambition),
		Social:     means[persona.Social],
	}

	sol := Solution{AmbitionFactor: ambition, Capacity: capacity, ScaleFactor: 1}

	// 2. Feasibility
	total := p.Total()
	switch {
	case total > capacity:
		remaining := capacity - p.Sleep - p.Work
		flexible := p.flexible()
		if flexible == 0 {
			sol.Warnings = append(sol.Warnings, "Allocation exceeds capacity but there is nothing flexible to scale down")
			log.Debug().Float64("total", total).Msg("Skipping capacity scaling: flexible total is zero")
			break
		}
		if remaining < 0 {
			sol.Warnings = append(sol.Warnings, fmt.Sprintf("Sleep and work alone need %.1fh, more than the %.1fh available", p.Sleep+p.Work, capacity))
		}
		factor := math.Max(0, remaining) / flexible
		p.Family *= factor
		p.Husband *= factor
		p.Individual *= factor
		p.Social *= factor
		p.Spiritual *= factor
		sol.Scaled = true
		sol.ScaleFactor = factor
	case total < capacity:
		sol.Surplus = capacity - total
		p.Individual += sol.Surplus
	}

	if daily := (p.Sleep + p.Work) / DaysPerMonth; daily > cfg.MaxDailyHours {
		sol.Warnings = append(sol.Warnings, fmt.Sprintf("Sleep and work average %.1fh per day, above the %.1fh limit", daily, cfg.MaxDailyHours))
	}

	sol.Profile = p
	return sol
}
