package linprog

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"energy_optimizer/internal/model"
)

const DefaultTolerance = 1e-10

// Simplex solves problems with gonum's two-phase simplex.
type Simplex struct {
	Tol float64
}

// Solve never panics: gonum's simplex panics on some degenerate bases, which
// is reported as ErrSolverFailure so that a Fallback can take over.
func (s Simplex) Solve(p *Problem) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: simplex panicked: %v", ErrSolverFailure, r)
		}
	}()

	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSolverFailure, err)
	}
	tol := s.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}

	if len(p.Constraints) == 0 {
		return solveUnconstrained(p)
	}

	c, a, b := standardForm(p)
	if rows, cols := a.Dims(); rows > cols {
		return Result{}, fmt.Errorf("%w: %q has more equality rows than columns", ErrSolverFailure, p.Name)
	}
	optF, optX, err := lp.Simplex(c, a, b, tol, nil)
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return Result{}, ErrInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return Result{}, ErrUnbounded
	default:
		return Result{}, fmt.Errorf("%w: simplex on %q: %v", ErrSolverFailure, p.Name, err)
	}

	n := len(p.Variables)
	x := make([]float64, n)
	copy(x, optX[:n])
	obj := optF
	if p.Maximize {
		obj = -optF
	}
	return Result{X: x, Objective: obj}, nil
}

// solveUnconstrained handles the orthant x >= 0 with no further rows: the
// origin is optimal unless some objective term improves without bound.
func solveUnconstrained(p *Problem) (Result, error) {
	for _, v := range p.Objective {
		if (p.Maximize && v > 0) || (!p.Maximize && v < 0) {
			return Result{}, ErrUnbounded
		}
	}
	return Result{X: make([]float64, len(p.Variables))}, nil
}

// standardForm rewrites p as: minimize cᵀz subject to A z = b, z >= 0, b >= 0.
// z holds the original variables followed by one slack or surplus column per
// inequality. Rows are negated where needed to keep b non-negative.
func standardForm(p *Problem) (c []float64, a *mat.Dense, b []float64) {
	n := len(p.Variables)
	slacks := 0
	for _, con := range p.Constraints {
		if con.Sense != model.Equal {
			slacks++
		}
	}

	rows := len(p.Constraints)
	cols := n + slacks
	c = make([]float64, cols)
	for j, v := range p.Objective {
		if p.Maximize {
			c[j] = -v
		} else {
			c[j] = v
		}
	}

	a = mat.NewDense(rows, cols, nil)
	b = make([]float64, rows)
	col := n
	for i, con := range p.Constraints {
		for j, v := range con.Coeffs {
			a.Set(i, j, v)
		}
		switch con.Sense {
		case model.LessEq:
			a.Set(i, col, 1)
			col++
		case model.GreaterEq:
			a.Set(i, col, -1)
			col++
		}
		b[i] = con.RHS
		if b[i] < 0 {
			row := a.RawRowView(i)
			for j := range row {
				row[j] = -row[j]
			}
			b[i] = -b[i]
		}
	}
	return c, a, b
}
