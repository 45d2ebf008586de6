// Package optimizer builds and solves the solar/wind production LP.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"energy_optimizer/internal/linprog"
	"energy_optimizer/internal/model"
)

// Constraint names used by BuildProblem.
const (
	ConstraintSolarCapacity = "solar_capacity"
	ConstraintWindCapacity  = "wind_capacity"
	ConstraintMinDemand     = "min_demand"
	ConstraintMaintenance   = "maintenance"
	ConstraintEmissions     = "emissions"
)

const (
	varSolar = "solar"
	varWind  = "wind"
)

// CheckTolerance is the slack tolerance used when verifying a solution.
const CheckTolerance = 1e-6

// BuildProblem returns the production LP for p. The primary solve, every
// sweep point, the verification and the surface all go through it.
func BuildProblem(p model.Params) *linprog.Problem {
	prob := linprog.NewProblem("renewable_production", true, varSolar, varWind)
	prob.SetObjective(model.SolarProfitPerMW, model.WindProfitPerMW)
	prob.AddConstraint(ConstraintSolarCapacity, model.LessEq, p.SolarCapacityMax, 1, 0)
	prob.AddConstraint(ConstraintWindCapacity, model.LessEq, p.WindCapacityMax, 0, 1)
	prob.AddConstraint(ConstraintMinDemand, model.GreaterEq, p.MinTotalDemand, 1, 1)
	prob.AddConstraint(ConstraintMaintenance, model.LessEq, p.MaxMaintenanceHours,
		model.SolarMaintenancePerMW, model.WindMaintenancePerMW)
	prob.AddConstraint(ConstraintEmissions, model.LessEq, p.MaxEmissions,
		model.SolarEmissionsPerMW, model.WindEmissionsPerMW)
	return prob
}

// Optimizer solves production LPs with a configurable solver.
type Optimizer struct {
	solver linprog.Solver
	log    *zap.Logger
}

func New(solver linprog.Solver, log *zap.Logger) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{solver: solver, log: log}
}

// Solve validates p and solves one fresh LP instance. Infeasible and
// unbounded instances are returned as solutions with that status and a nil
// error. Invalid parameters and solver failures return an error.
func (o *Optimizer) Solve(p model.Params) (model.Solution, error) {
	if err := p.Validate(); err != nil {
		return model.NoSolution(p, model.StatusError), err
	}

	res, err := o.solver.Solve(BuildProblem(p))
	switch {
	case err == nil:
	case errors.Is(err, linprog.ErrInfeasible):
		o.log.Debug("no feasible production plan", zap.Any("params", p))
		return model.NoSolution(p, model.StatusInfeasible), nil
	case errors.Is(err, linprog.ErrUnbounded):
		o.log.Warn("production LP is unbounded", zap.Any("params", p))
		return model.NoSolution(p, model.StatusUnbounded), nil
	default:
		return model.NoSolution(p, model.StatusError), fmt.Errorf("solving production LP: %w", err)
	}

	return model.Solution{
		Status:    model.StatusOptimal,
		Params:    p,
		Solar:     clampZero(res.X[0]),
		Wind:      clampZero(res.X[1]),
		Objective: res.Objective,
	}, nil
}

// Verify evaluates every constraint of the solution's own parameter set at
// its optimum. It returns nil when the solution has no optimum.
func (o *Optimizer) Verify(s model.Solution) []model.ConstraintCheck {
	if !s.HasObjective() {
		return nil
	}
	return BuildProblem(s.Params).Check([]float64{s.Solar, s.Wind}, CheckTolerance)
}

// Surface samples the objective over the grid, leaving NaN wherever a point
// violates any constraint.
func (o *Optimizer) Surface(p model.Params, g model.GridSpec) (model.Surface, error) {
	if err := p.Validate(); err != nil {
		return model.Surface{}, err
	}
	if err := g.Validate(); err != nil {
		return model.Surface{}, err
	}

	prob := BuildProblem(p)
	solar := axis(g.SolarMax, g.Step)
	wind := axis(g.WindMax, g.Step)

	z := make([][]float64, len(wind))
	x := make([]float64, 2)
	for j, w := range wind {
		row := make([]float64, len(solar))
		for i, s := range solar {
			x[0], x[1] = s, w
			if prob.Feasible(x, 1e-9) {
				row[i] = prob.Evaluate(x)
			} else {
				row[i] = math.NaN()
			}
		}
		z[j] = row
	}

	o.log.Debug("objective surface sampled",
		zap.Int("solar_points", len(solar)),
		zap.Int("wind_points", len(wind)))
	return model.Surface{Solar: solar, Wind: wind, Z: z}, nil
}

// axis returns 0, step, 2*step, ... strictly below limit.
func axis(limit, step float64) []float64 {
	n := int(math.Ceil(limit/step - 1e-9))
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	return floats.Span(out, 0, float64(n-1)*step)
}

func clampZero(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}
