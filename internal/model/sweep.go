package model

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidRange = errors.New("invalid sweep range")

// MaxRangePoints bounds the number of values one range may expand to.
const MaxRangePoints = 100_000

// Range is an inclusive start..stop walk with a fixed positive step.
type Range struct {
	Start float64 `mapstructure:"start" json:"start"`
	Stop  float64 `mapstructure:"stop" json:"stop"`
	Step  float64 `mapstructure:"step" json:"step" validate:"gt=0"`
}

func (r Range) Validate() error {
	for _, v := range []float64{r.Start, r.Stop, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite, got %v", ErrInvalidRange, r)
		}
	}
	if r.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %v", ErrInvalidRange, r.Step)
	}
	if r.Stop < r.Start {
		return fmt.Errorf("%w: stop %v is below start %v", ErrInvalidRange, r.Stop, r.Start)
	}
	if n := (r.Stop-r.Start)/r.Step + 1; n > MaxRangePoints {
		return fmt.Errorf("%w: %.0f points exceed the limit of %d", ErrInvalidRange, n, MaxRangePoints)
	}
	return nil
}

// Values expands the range. Values are computed as start + i*step so that
// rounding does not accumulate; stop is included when it lies on the grid.
func (r Range) Values() []float64 {
	if r.Validate() != nil {
		return nil
	}
	n := int(math.Floor((r.Stop-r.Start)/r.Step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = r.Start + float64(i)*r.Step
	}
	return values
}

// Sweep varies one field over a range while the others stay at base values.
type Sweep struct {
	Field Field `mapstructure:"field" json:"field" validate:"required"`
	Range Range `mapstructure:"range" json:"range"`
}

// DefaultSweeps returns the five reference sweeps.
func DefaultSweeps() []Sweep {
	return []Sweep{
		{Field: FieldMaxEmissions, Range: Range{Start: 70000, Stop: 140000, Step: 500}},
		{Field: FieldMaintenanceHours, Range: Range{Start: 50, Stop: 140, Step: 5}},
		{Field: FieldMinDemand, Range: Range{Start: 0, Stop: 200, Step: 20}},
		{Field: FieldSolarCapacity, Range: Range{Start: 20, Stop: 110, Step: 5}},
		{Field: FieldWindCapacity, Range: Range{Start: 20, Stop: 110, Step: 5}},
	}
}

// Point is one entry of a sensitivity series. Objective is NaN whenever
// Status is not StatusOptimal.
type Point struct {
	Value     float64 `json:"value"`
	Objective float64 `json:"objective"`
	Status    Status  `json:"status"`
	Err       string  `json:"error,omitempty"`
}

func (p Point) HasObjective() bool {
	return p.Status == StatusOptimal && !math.IsNaN(p.Objective)
}

// Series is the ordered result of one sweep.
type Series struct {
	Field  Field   `json:"field"`
	Points []Point `json:"points"`
}

func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Objectives returns the objective per point, NaN where there is none.
func (s Series) Objectives() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		if p.HasObjective() {
			out[i] = p.Objective
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Feasible returns the number of points with an optimum.
func (s Series) Feasible() int {
	n := 0
	for _, p := range s.Points {
		if p.HasObjective() {
			n++
		}
	}
	return n
}

// Marginals returns Δobjective/Δvalue against the previous point. Entries
// are NaN for the first point and wherever either neighbour has no optimum.
func (s Series) Marginals() []float64 {
	out := make([]float64, len(s.Points))
	for i := range s.Points {
		out[i] = math.NaN()
		if i == 0 {
			continue
		}
		prev, cur := s.Points[i-1], s.Points[i]
		if !prev.HasObjective() || !cur.HasObjective() {
			continue
		}
		if dv := cur.Value - prev.Value; dv != 0 {
			out[i] = (cur.Objective - prev.Objective) / dv
		}
	}
	return out
}

// Saturation returns the smallest swept value from which every later
// feasible point stays at the series maximum (within tol), along with that
// maximum. ok is false when the series has no optimum at all.
func (s Series) Saturation(tol float64) (value, objective float64, ok bool) {
	best := math.Inf(-1)
	for _, p := range s.Points {
		if p.HasObjective() && p.Objective > best {
			best = p.Objective
		}
	}
	if math.IsInf(best, -1) {
		return 0, 0, false
	}

	idx := -1
	for i := len(s.Points) - 1; i >= 0; i-- {
		p := s.Points[i]
		if !p.HasObjective() {
			continue
		}
		if math.Abs(p.Objective-best) > tol {
			break
		}
		idx = i
	}
	if idx < 0 {
		// The last feasible point is below the maximum.
		return 0, best, false
	}
	return s.Points[idx].Value, best, true
}
