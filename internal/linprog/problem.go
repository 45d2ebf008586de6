// Package linprog builds small linear programs over non-negative variables and
// solves them with interchangeable solvers.
package linprog

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"energy_optimizer/internal/model"
)

var (
	ErrInfeasible    = errors.New("linear program is infeasible")
	ErrUnbounded     = errors.New("linear program is unbounded")
	ErrSolverFailure = errors.New("solver failure")
)

// Constraint is a named linear inequality or equality: Coeffs·x Sense RHS.
type Constraint struct {
	Name   string
	Coeffs []float64
	Sense  model.Sense
	RHS    float64
}

// Problem is a linear program whose variables are all bounded below by zero.
type Problem struct {
	Name        string
	Variables   []string
	Objective   []float64
	Maximize    bool
	Constraints []Constraint
}

func NewProblem(name string, maximize bool, variables ...string) *Problem {
	return &Problem{
		Name:      name,
		Variables: variables,
		Objective: make([]float64, len(variables)),
		Maximize:  maximize,
	}
}

func (p *Problem) SetObjective(coeffs ...float64) {
	p.Objective = append(p.Objective[:0], coeffs...)
}

func (p *Problem) AddConstraint(name string, sense model.Sense, rhs float64, coeffs ...float64) {
	p.Constraints = append(p.Constraints, Constraint{
		Name:   name,
		Coeffs: append([]float64(nil), coeffs...),
		Sense:  sense,
		RHS:    rhs,
	})
}

// Validate checks dimensions and that every number is finite.
func (p *Problem) Validate() error {
	n := len(p.Variables)
	if n == 0 {
		return fmt.Errorf("problem %q has no variables", p.Name)
	}
	if len(p.Objective) != n {
		return fmt.Errorf("problem %q: objective has %d coefficients, want %d", p.Name, len(p.Objective), n)
	}
	if floats.HasNaN(p.Objective) {
		return fmt.Errorf("problem %q: objective contains NaN", p.Name)
	}
	for _, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("constraint %q has %d coefficients, want %d", c.Name, len(c.Coeffs), n)
		}
		switch c.Sense {
		case model.LessEq, model.GreaterEq, model.Equal:
		default:
			return fmt.Errorf("constraint %q: unknown sense %q", c.Name, c.Sense)
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) || floats.HasNaN(c.Coeffs) {
			return fmt.Errorf("constraint %q is not finite", c.Name)
		}
	}
	return nil
}

// Evaluate returns the objective at x.
func (p *Problem) Evaluate(x []float64) float64 {
	return floats.Dot(p.Objective, x)
}

// Check evaluates every constraint, plus non-negativity of each variable,
// at x. A constraint is binding when its slack is within tol.
func (p *Problem) Check(x []float64, tol float64) []model.ConstraintCheck {
	checks := make([]model.ConstraintCheck, 0, len(p.Variables)+len(p.Constraints))
	for i, name := range p.Variables {
		checks = append(checks, check(name+"_nonneg", x[i], model.GreaterEq, 0, tol))
	}
	for _, c := range p.Constraints {
		checks = append(checks, check(c.Name, floats.Dot(c.Coeffs, x), c.Sense, c.RHS, tol))
	}
	return checks
}

// Feasible reports whether x satisfies every constraint within tol.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	for _, v := range x {
		if v < -tol {
			return false
		}
	}
	for _, c := range p.Constraints {
		if slack(floats.Dot(c.Coeffs, x), c.Sense, c.RHS) < -tol {
			return false
		}
	}
	return true
}

func check(name string, lhs float64, sense model.Sense, rhs, tol float64) model.ConstraintCheck {
	s := slack(lhs, sense, rhs)
	return model.ConstraintCheck{
		Name:      name,
		LHS:       lhs,
		Sense:     sense,
		RHS:       rhs,
		Slack:     s,
		Satisfied: s >= -tol,
		Binding:   math.Abs(s) <= tol,
	}
}

func slack(lhs float64, sense model.Sense, rhs float64) float64 {
	switch sense {
	case model.LessEq:
		return rhs - lhs
	case model.GreaterEq:
		return lhs - rhs
	default:
		return -math.Abs(lhs - rhs)
	}
}

// Result is an optimal point of a Problem.
type Result struct {
	X         []float64
	Objective float64
}

// Solver finds an optimum of a Problem. Implementations return ErrInfeasible
// or ErrUnbounded (possibly wrapped) for those outcomes and wrap anything
// else in ErrSolverFailure.
type Solver interface {
	Solve(p *Problem) (Result, error)
}
