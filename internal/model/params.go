package model

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Per-MW profit in EUR. The daily ×24 factor is not applied here, only to
// emissions; these are the literal coefficients behind the 5700 EUR optimum.
const (
	SolarProfitPerMW = 45.0
	WindProfitPerMW  = 60.0
)

// Maintenance time in hours per MW produced.
const (
	SolarMaintenancePerMW = 0.5
	WindMaintenancePerMW  = 0.8
)

// Life-cycle emission factors in kg CO₂/MWh.
const (
	SolarEmissionFactor = 45.0
	WindEmissionFactor  = 12.0
	HoursPerDay         = 24.0
)

// Daily emissions in kg CO₂ per MW of production (1080 and 288).
const (
	SolarEmissionsPerMW = SolarEmissionFactor * HoursPerDay
	WindEmissionsPerMW  = WindEmissionFactor * HoursPerDay
)

var ErrInvalidParams = errors.New("invalid parameters")

// Params is the parameter set of one LP instance. It is passed by value into
// every solve.
type Params struct {
	SolarCapacityMax    float64 `mapstructure:"solar_capacity_max" json:"solar_capacity_max" validate:"gte=0"`
	WindCapacityMax     float64 `mapstructure:"wind_capacity_max" json:"wind_capacity_max" validate:"gte=0"`
	MinTotalDemand      float64 `mapstructure:"min_total_demand" json:"min_total_demand" validate:"gte=0"`
	MaxMaintenanceHours float64 `mapstructure:"max_maintenance_hours" json:"max_maintenance_hours" validate:"gte=0"`
	MaxEmissions        float64 `mapstructure:"max_emissions" json:"max_emissions" validate:"gte=0"`
}

// DefaultParams returns the reference scenario: 60 MW solar, 80 MW wind,
// 90 MW demand, 70 maintenance hours and 100 t CO₂ per day.
func DefaultParams() Params {
	return Params{
		SolarCapacityMax:    60,
		WindCapacityMax:     80,
		MinTotalDemand:      90,
		MaxMaintenanceHours: 70,
		MaxEmissions:        100000,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(paramKey)
	return v
}

// paramKey names a field by its configuration key so that every message
// matches what the user wrote in the config file.
func paramKey(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validate reports every negative or non-finite field.
func (p Params) Validate() error {
	var problems []string

	rv := reflect.ValueOf(p)
	for i := 0; i < rv.NumField(); i++ {
		v := rv.Field(i).Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			problems = append(problems, fmt.Sprintf("%s must be finite, got %v", paramKey(rv.Type().Field(i)), v))
		}
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		for _, fe := range verrs {
			// Non-finite values are already reported above.
			if v, ok := fe.Value().(float64); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
				continue
			}
			problems = append(problems, fmt.Sprintf("%s must be >= %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(problems, "; "))
	}
	return nil
}

// Get returns the value of a sweepable field.
func (p Params) Get(f Field) (float64, error) {
	switch f {
	case FieldSolarCapacity:
		return p.SolarCapacityMax, nil
	case FieldWindCapacity:
		return p.WindCapacityMax, nil
	case FieldMinDemand:
		return p.MinTotalDemand, nil
	case FieldMaintenanceHours:
		return p.MaxMaintenanceHours, nil
	case FieldMaxEmissions:
		return p.MaxEmissions, nil
	}
	return 0, fmt.Errorf("unknown field %q", f)
}

// With returns a copy of p with field f set to v.
func (p Params) With(f Field, v float64) (Params, error) {
	switch f {
	case FieldSolarCapacity:
		p.SolarCapacityMax = v
	case FieldWindCapacity:
		p.WindCapacityMax = v
	case FieldMinDemand:
		p.MinTotalDemand = v
	case FieldMaintenanceHours:
		p.MaxMaintenanceHours = v
	case FieldMaxEmissions:
		p.MaxEmissions = v
	default:
		return p, fmt.Errorf("unknown field %q", f)
	}
	return p, nil
}
