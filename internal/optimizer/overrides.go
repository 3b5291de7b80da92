package optimizer

import (
	"fmt"

	"persona-mcp/internal/persona"
)

// Set changes the multiplier of a growth persona. Sleep, work and social are
// not growth categories.
func (g *Growth) Set(p persona.Persona, multiplier float64) error {
	switch p {
	case persona.Family:
		g.Family = multiplier
	case persona.Husband:
		g.Husband = multiplier
	case persona.Individual:
		g.Individual = multiplier
	case persona.Spiritual:
		g.Spiritual = multiplier
	default:
		return fmt.Errorf("%w: %s is not a growth category", ErrInvalidConfig, p.Label())
	}
	return nil
}

// Overrides is a partial Config. Nil fields keep the base value.
type Overrides struct {
	MaxDailyHours        *float64           `json:"max_daily_hours,omitempty"`
	MaxWorkHoursPerMonth *float64           `json:"max_work_hours_per_month,omitempty"`
	MinWorkHoursPerMonth *float64           `json:"min_work_hours_per_month,omitempty"`
	TargetSleepPerDay    *float64           `json:"target_sleep_per_day,omitempty"`
	GrowthMultipliers    map[string]float64 `json:"growth_multipliers,omitempty"`
	Readiness            *float64           `json:"readiness,omitempty"`
}

// HasReadiness reports whether the caller pinned readiness instead of
// letting it be derived from recent entries.
func (o Overrides) HasReadiness() bool {
	return o.Readiness != nil
}

// Apply returns base with the overrides applied. Growth keys accept any persona
// label, name or alias. The result is not validated.
func (o Overrides) Apply(base Config) (Config, error) {
	cfg := base
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.MaxDailyHours, o.MaxDailyHours)
	set(&cfg.MaxWorkHoursPerMonth, o.MaxWorkHoursPerMonth)
	set(&cfg.MinWorkHoursPerMonth, o.MinWorkHoursPerMonth)
	set(&cfg.TargetSleepPerDay, o.TargetSleepPerDay)
	set(&cfg.Readiness, o.Readiness)

	for label, m := range o.GrowthMultipliers {
		p, err := persona.Parse(label)
		if err != nil {
			return base, err
		}
		if err := cfg.Growth.Set(p, m); err != nil {
			return base, err
		}
	}
	return cfg, nil
}
