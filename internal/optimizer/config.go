package optimizer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid optimization config")

// Growth holds the per-category growth multipliers (1.0 keeps the baseline).
type Growth struct {
	Family     float64 `json:"family" validate:"gte=0,lte=10"`
	Husband    float64 `json:"husband" validate:"gte=0,lte=10"`
	Individual float64 `json:"individual" validate:"gte=0,lte=10"`
	Spiritual  float64 `json:"spiritual" validate:"gte=0,lte=10"`
}

// Config is the full set of constraints for one solve. It is passed by value.
type Config struct {
	// Hard constraints
	MaxDailyHours        float64 `json:"max_daily_hours" validate:"gt=0,lte=24"`
	MaxWorkHoursPerMonth float64 `json:"max_work_hours_per_month" validate:"gte=0"`
	MinWorkHoursPerMonth float64 `json:"min_work_hours_per_month" validate:"gte=0"`

	// Soft constraints
	TargetSleepPerDay float64 `json:"target_sleep_per_day" validate:"gte=0,lte=24"`
	Growth            Growth  `json:"growth_multipliers"`

	Readiness float64 `json:"readiness" validate:"gte=0,lte=1"`
}

// DefaultConfig returns maintenance-only constraints: no growth, neutral readiness.
func DefaultConfig() Config {
	return Config{
		MaxDailyHours:        24,
		MaxWorkHoursPerMonth: 200,
		MinWorkHoursPerMonth: 0,
		TargetSleepPerDay:    7.5,
		Growth: Growth{
			Family:     1,
			Husband:    1,
			Individual: 1,
			Spiritual:  1,
		},
		Readiness: 0.5,
	}
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field and unwraps to ErrInvalidConfig.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the config against its field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field:   strings.TrimPrefix(fe.Namespace(), "Config."),
			Message: validationMessage(fe),
		})
	}
	return ve
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
