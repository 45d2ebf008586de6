package linprog

import (
	"errors"
	"fmt"
)

// Fallback tries Primary and, only when it fails for numerical or internal
// reasons, retries with Secondary. Infeasible and unbounded outcomes from
// Primary are final.
type Fallback struct {
	Primary   Solver
	Secondary Solver
}

func (f Fallback) Solve(p *Problem) (Result, error) {
	res, err := f.Primary.Solve(p)
	if err == nil || !errors.Is(err, ErrSolverFailure) || f.Secondary == nil {
		return res, err
	}
	res, err2 := f.Secondary.Solve(p)
	if err2 != nil && errors.Is(err2, ErrSolverFailure) {
		return Result{}, fmt.Errorf("%w (fallback: %v)", err, err2)
	}
	return res, err2
}

// Method names accepted by NewSolver.
const (
	MethodSimplex = "simplex"
	MethodVertex  = "vertex"
)

// NewSolver returns the solver for method. With fallback set, simplex
// failures are retried by vertex enumeration. Vertex enumeration uses tol
// but never less than DefaultVertexTolerance, since its vertices come from
// dense solves rather than pivoting.
func NewSolver(method string, tol float64, fallback bool) (Solver, error) {
	vertex := Vertex{Tol: max(tol, DefaultVertexTolerance)}
	switch method {
	case MethodSimplex, "":
		s := Simplex{Tol: tol}
		if fallback {
			return Fallback{Primary: s, Secondary: vertex}, nil
		}
		return s, nil
	case MethodVertex:
		return vertex, nil
	}
	return nil, fmt.Errorf("unknown solver method %q", method)
}
