package model

import (
	"fmt"
	"math"
)

// GridSpec describes the (x1, x2) sampling grid of the objective surface.
// Both axes start at zero and exclude their max, matching a half-open arange.
type GridSpec struct {
	SolarMax float64 `mapstructure:"solar_max" json:"solar_max" validate:"gt=0"`
	WindMax  float64 `mapstructure:"wind_max" json:"wind_max" validate:"gt=0"`
	Step     float64 `mapstructure:"step" json:"step" validate:"gt=0"`
}

// MaxGridCells bounds the number of surface points sampled.
const MaxGridCells = 4_000_000

func DefaultGridSpec() GridSpec {
	return GridSpec{SolarMax: 100, WindMax: 100, Step: 0.5}
}

func (g GridSpec) Validate() error {
	if !(g.Step > 0) || !(g.SolarMax > 0) || !(g.WindMax > 0) {
		return fmt.Errorf("%w: grid needs positive step and bounds, got %+v", ErrInvalidRange, g)
	}
	if math.IsInf(g.SolarMax, 0) || math.IsInf(g.WindMax, 0) {
		return fmt.Errorf("%w: grid bounds must be finite", ErrInvalidRange)
	}
	if n := math.Ceil(g.SolarMax/g.Step) * math.Ceil(g.WindMax/g.Step); n > MaxGridCells {
		return fmt.Errorf("%w: %.0f grid cells exceed the limit of %d", ErrInvalidRange, n, MaxGridCells)
	}
	return nil
}

// Surface holds the objective over the grid. Z[j][i] is the objective at
// (Solar[i], Wind[j]) or NaN outside the feasible region.
type Surface struct {
	Solar []float64
	Wind  []float64
	Z     [][]float64
}

// Best returns the grid point with the largest objective.
func (s Surface) Best() (solar, wind, objective float64, ok bool) {
	objective = math.Inf(-1)
	for j, row := range s.Z {
		for i, z := range row {
			if math.IsNaN(z) || z <= objective {
				continue
			}
			solar, wind, objective, ok = s.Solar[i], s.Wind[j], z, true
		}
	}
	if !ok {
		return 0, 0, math.NaN(), false
	}
	return solar, wind, objective, true
}

// FeasibleCells returns how many grid points lie in the feasible region.
func (s Surface) FeasibleCells() int {
	n := 0
	for _, row := range s.Z {
		for _, z := range row {
			if !math.IsNaN(z) {
				n++
			}
		}
	}
	return n
}
