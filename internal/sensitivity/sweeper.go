// Package sensitivity re-solves the production LP while varying one
// parameter at a time.
package sensitivity

import (
	"fmt"
	"math"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"energy_optimizer/internal/model"
)

// Solver is the single-instance solve the sweeper repeats.
type Solver interface {
	Solve(p model.Params) (model.Solution, error)
}

// Callback receives sweep events in series order.
type Callback interface {
	OnPoint(field model.Field, point model.Point)
	OnSeries(series model.Series)
}

// Sweeper runs one-field sensitivity sweeps.
type Sweeper struct {
	solver   Solver
	callback Callback
	workers  int
	log      *zap.Logger
}

// New creates a sweeper. workers <= 1 solves points one after another;
// larger values solve up to that many points concurrently. callback and log
// may be nil.
func New(solver Solver, callback Callback, workers int, log *zap.Logger) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{solver: solver, callback: callback, workers: workers, log: log}
}

// Run produces the series for one sweep. The base parameters and every swept
// value are validated before any solve; infeasible and failed points are
// recorded in the series and do not stop the sweep.
func (s *Sweeper) Run(base model.Params, sw model.Sweep) (model.Series, error) {
	inputs, err := expand(base, sw)
	if err != nil {
		return model.Series{}, err
	}

	solve := func(p *model.Params) model.Point {
		v, _ := p.Get(sw.Field)
		return s.solvePoint(sw.Field, v, *p)
	}

	var points []model.Point
	if s.workers == 1 {
		points = make([]model.Point, len(inputs))
		for i := range inputs {
			points[i] = solve(&inputs[i])
		}
	} else {
		mapper := iter.Mapper[model.Params, model.Point]{MaxGoroutines: s.workers}
		points = mapper.Map(inputs, solve)
	}

	series := model.Series{Field: sw.Field, Points: points}
	if s.callback != nil {
		for _, p := range points {
			s.callback.OnPoint(sw.Field, p)
		}
		s.callback.OnSeries(series)
	}

	s.log.Info("sweep finished",
		zap.String("field", string(sw.Field)),
		zap.Int("points", len(points)),
		zap.Int("feasible", series.Feasible()))
	return series, nil
}

// RunAll runs the sweeps in order. It stops at the first sweep whose
// definition is invalid.
func (s *Sweeper) RunAll(base model.Params, sweeps []model.Sweep) ([]model.Series, error) {
	out := make([]model.Series, 0, len(sweeps))
	for _, sw := range sweeps {
		series, err := s.Run(base, sw)
		if err != nil {
			return out, err
		}
		out = append(out, series)
	}
	return out, nil
}

func (s *Sweeper) solvePoint(field model.Field, value float64, p model.Params) model.Point {
	sol, err := s.solver.Solve(p)
	if err != nil {
		s.log.Warn("sweep point failed",
			zap.String("field", string(field)),
			zap.Float64("value", value),
			zap.Error(err))
		return model.Point{Value: value, Objective: math.NaN(), Status: model.StatusError, Err: err.Error()}
	}
	if !sol.HasObjective() {
		return model.Point{Value: value, Objective: math.NaN(), Status: sol.Status}
	}
	return model.Point{Value: value, Objective: sol.Objective, Status: sol.Status}
}

// expand builds one independent parameter set per swept value.
func expand(base model.Params, sw model.Sweep) ([]model.Params, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("base parameters: %w", err)
	}
	if _, ok := model.FieldCatalog[sw.Field]; !ok {
		return nil, fmt.Errorf("sweep: unknown field %q", sw.Field)
	}
	if err := sw.Range.Validate(); err != nil {
		return nil, fmt.Errorf("sweep %s: %w", sw.Field, err)
	}

	values := sw.Range.Values()
	inputs := make([]model.Params, len(values))
	for i, v := range values {
		p, err := base.With(sw.Field, v)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("sweep %s at %v: %w", sw.Field, v, err)
		}
		inputs[i] = p
	}
	return inputs, nil
}
