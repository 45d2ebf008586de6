package linprog

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"energy_optimizer/internal/model"
)

// boxBound caps every variable when enumerating vertices. An optimum that
// touches the cap means the original problem is unbounded.
const boxBound = 1e12

// DefaultVertexTolerance is the feasibility tolerance used when Tol is unset,
// and the smallest one NewSolver hands to Vertex.
const DefaultVertexTolerance = 1e-7

// maxVertexVariables keeps enumeration to problems where C(rows, n) stays small.
const maxVertexVariables = 4

// Vertex solves a problem by enumerating the vertices of its feasible
// polytope. The optimum of a bounded LP lies at one of them.
type Vertex struct {
	Tol float64
}

type halfspace struct {
	coeffs []float64
	rhs    float64
	equal  bool
}

func (v Vertex) Solve(p *Problem) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSolverFailure, err)
	}
	n := len(p.Variables)
	if n > maxVertexVariables {
		return Result{}, fmt.Errorf("%w: vertex enumeration supports at most %d variables, %q has %d",
			ErrSolverFailure, maxVertexVariables, p.Name, n)
	}
	tol := v.Tol
	if tol <= 0 {
		tol = DefaultVertexTolerance
	}

	hs := halfspaces(p)

	var (
		best     Result
		found    bool
		atBox    bool
		idx      = make([]int, n)
		sys      = mat.NewDense(n, n, nil)
		rhs      = mat.NewVecDense(n, nil)
		solution mat.VecDense
	)

	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == n {
			for r, h := range idx {
				sys.SetRow(r, hs[h].coeffs)
				rhs.SetVec(r, hs[h].rhs)
			}
			if err := solution.SolveVec(sys, rhs); err != nil {
				// Parallel or ill-conditioned boundaries meet at no usable vertex.
				return
			}
			x := make([]float64, n)
			for i := range x {
				x[i] = solution.AtVec(i)
			}
			if !satisfies(hs, x, tol) {
				return
			}
			obj := p.Evaluate(x)
			if !found || better(obj, best.Objective, p.Maximize, tol) {
				best = Result{X: x, Objective: obj}
				found = true
			}
			return
		}
		for h := start; h < len(hs); h++ {
			idx[depth] = h
			walk(h+1, depth+1)
		}
	}
	walk(0, 0)

	if !found {
		return Result{}, ErrInfeasible
	}
	for _, xi := range best.X {
		if xi >= boxBound*(1-1e-9) {
			atBox = true
		}
	}
	if atBox {
		return Result{}, ErrUnbounded
	}
	for i, xi := range best.X {
		// Clean solver noise around the zero bound.
		if math.Abs(xi) <= tol {
			best.X[i] = 0
		}
	}
	best.Objective = p.Evaluate(best.X)
	return best, nil
}

// halfspaces turns every constraint into a·x <= b rows (equalities kept as
// marked rows) and appends x >= 0 and the bounding box.
func halfspaces(p *Problem) []halfspace {
	n := len(p.Variables)
	hs := make([]halfspace, 0, len(p.Constraints)+2*n)
	for _, c := range p.Constraints {
		switch c.Sense {
		case model.GreaterEq:
			neg := make([]float64, n)
			for j, v := range c.Coeffs {
				neg[j] = -v
			}
			hs = append(hs, halfspace{coeffs: neg, rhs: -c.RHS})
		case model.Equal:
			hs = append(hs, halfspace{coeffs: c.Coeffs, rhs: c.RHS, equal: true})
		default:
			hs = append(hs, halfspace{coeffs: c.Coeffs, rhs: c.RHS})
		}
	}
	for j := 0; j < n; j++ {
		lower := make([]float64, n)
		lower[j] = -1
		upper := make([]float64, n)
		upper[j] = 1
		hs = append(hs,
			halfspace{coeffs: lower, rhs: 0},
			halfspace{coeffs: upper, rhs: boxBound},
		)
	}
	return hs
}

func satisfies(hs []halfspace, x []float64, tol float64) bool {
	for _, h := range hs {
		lhs := 0.0
		for j, v := range h.coeffs {
			lhs += v * x[j]
		}
		// Scale tolerance with the row so 1080·x rows are not held to 1e-7.
		scale := math.Max(1, math.Abs(h.rhs))
		if h.equal {
			if math.Abs(lhs-h.rhs) > tol*scale {
				return false
			}
			continue
		}
		if lhs-h.rhs > tol*scale {
			return false
		}
	}
	return true
}

func better(candidate, incumbent float64, maximize bool, tol float64) bool {
	if maximize {
		return candidate > incumbent+tol
	}
	return candidate < incumbent-tol
}
