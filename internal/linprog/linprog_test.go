package linprog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_optimizer/internal/model"
)

func textbook() *Problem {
	p := NewProblem("textbook", true, "x", "y")
	p.SetObjective(3, 5)
	p.AddConstraint("x_cap", model.LessEq, 4, 1, 0)
	p.AddConstraint("y_cap", model.LessEq, 12, 0, 2)
	p.AddConstraint("mix", model.LessEq, 18, 3, 2)
	return p
}

func diet() *Problem {
	p := NewProblem("diet", false, "x", "y")
	p.SetObjective(1, 1)
	p.AddConstraint("a", model.GreaterEq, 4, 1, 2)
	p.AddConstraint("b", model.GreaterEq, 6, 3, 1)
	return p
}

func infeasibleProblem() *Problem {
	p := NewProblem("infeasible", true, "x")
	p.SetObjective(1)
	p.AddConstraint("low", model.GreaterEq, 5, 1)
	p.AddConstraint("high", model.LessEq, 3, 1)
	return p
}

func unboundedProblem() *Problem {
	p := NewProblem("unbounded", true, "x", "y")
	p.SetObjective(1, 0)
	p.AddConstraint("spread", model.LessEq, 1, 1, -1)
	return p
}

func equalityProblem() *Problem {
	p := NewProblem("equality", true, "x", "y")
	p.SetObjective(2, 1)
	p.AddConstraint("total", model.Equal, 3, 1, 1)
	p.AddConstraint("x_cap", model.LessEq, 1, 1, 0)
	return p
}

func solvers() map[string]Solver {
	return map[string]Solver{
		"simplex": Simplex{},
		"vertex":  Vertex{},
	}
}

func TestSolvers_Optimal(t *testing.T) {
	tests := []struct {
		name    string
		problem func() *Problem
		x       []float64
		obj     float64
	}{
		{"maximize", textbook, []float64{2, 6}, 36},
		{"minimize", diet, []float64{1.6, 1.2}, 2.8},
		{"equality", equalityProblem, []float64{1, 2}, 4},
	}

	for solverName, s := range solvers() {
		for _, tt := range tests {
			t.Run(solverName+"/"+tt.name, func(t *testing.T) {
				res, err := s.Solve(tt.problem())
				require.NoError(t, err)
				require.Len(t, res.X, len(tt.x))
				for i := range tt.x {
					assert.InDelta(t, tt.x[i], res.X[i], 1e-6)
				}
				assert.InDelta(t, tt.obj, res.Objective, 1e-6)
			})
		}
	}
}

func TestSolvers_Infeasible(t *testing.T) {
	for name, s := range solvers() {
		t.Run(name, func(t *testing.T) {
			_, err := s.Solve(infeasibleProblem())
			assert.ErrorIs(t, err, ErrInfeasible)
		})
	}
}

func TestSolvers_Unbounded(t *testing.T) {
	for name, s := range solvers() {
		t.Run(name, func(t *testing.T) {
			_, err := s.Solve(unboundedProblem())
			assert.ErrorIs(t, err, ErrUnbounded)
		})
	}
}

func TestSimplex_NoConstraints(t *testing.T) {
	p := NewProblem("free", false, "x")
	p.SetObjective(2)
	res, err := Simplex{}.Solve(p)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.X[0], 1e-12)

	p.Maximize = true
	_, err = Simplex{}.Solve(p)
	assert.ErrorIs(t, err, ErrUnbounded)
}

func TestProblem_ValidateRejectsMismatch(t *testing.T) {
	p := NewProblem("bad", true, "x", "y")
	p.AddConstraint("short", model.LessEq, 1, 1)

	_, err := Simplex{}.Solve(p)
	assert.ErrorIs(t, err, ErrSolverFailure)
	_, err = Vertex{}.Solve(p)
	assert.ErrorIs(t, err, ErrSolverFailure)
}

func TestProblem_Check(t *testing.T) {
	p := textbook()
	checks := p.Check([]float64{2, 6}, 1e-9)
	require.Len(t, checks, 5)

	byName := map[string]model.ConstraintCheck{}
	for _, c := range checks {
		byName[c.Name] = c
		assert.True(t, c.Satisfied, c.Name)
	}
	assert.True(t, byName["y_cap"].Binding)
	assert.True(t, byName["mix"].Binding)
	assert.False(t, byName["x_cap"].Binding)
	assert.InDelta(t, 2, byName["x_cap"].Slack, 1e-9)

	assert.True(t, p.Feasible([]float64{2, 6}, 1e-9))
	assert.False(t, p.Feasible([]float64{5, 0}, 1e-9))
	assert.False(t, p.Feasible([]float64{-1, 0}, 1e-9))
}

type failingSolver struct{ calls int }

func (f *failingSolver) Solve(*Problem) (Result, error) {
	f.calls++
	return Result{}, errors.Join(ErrSolverFailure, errors.New("singular basis"))
}

func TestFallback(t *testing.T) {
	t.Run("retries on failure", func(t *testing.T) {
		primary := &failingSolver{}
		res, err := Fallback{Primary: primary, Secondary: Vertex{}}.Solve(textbook())
		require.NoError(t, err)
		assert.Equal(t, 1, primary.calls)
		assert.InDelta(t, 36, res.Objective, 1e-6)
	})

	t.Run("infeasible is final", func(t *testing.T) {
		secondary := &failingSolver{}
		_, err := Fallback{Primary: Simplex{}, Secondary: secondary}.Solve(infeasibleProblem())
		assert.ErrorIs(t, err, ErrInfeasible)
		assert.Equal(t, 0, secondary.calls)
	})

	t.Run("both fail", func(t *testing.T) {
		_, err := Fallback{Primary: &failingSolver{}, Secondary: &failingSolver{}}.Solve(textbook())
		assert.ErrorIs(t, err, ErrSolverFailure)
	})
}

func TestNewSolver(t *testing.T) {
	s, err := NewSolver("simplex", 0, true)
	require.NoError(t, err)
	assert.IsType(t, Fallback{}, s)

	s, err = NewSolver("vertex", 0, false)
	require.NoError(t, err)
	assert.Equal(t, Vertex{Tol: DefaultVertexTolerance}, s)

	s, err = NewSolver("vertex", 1e-3, false)
	require.NoError(t, err)
	assert.Equal(t, Vertex{Tol: 1e-3}, s)

	s, err = NewSolver("simplex", 1e-9, true)
	require.NoError(t, err)
	assert.Equal(t, Fallback{Primary: Simplex{Tol: 1e-9}, Secondary: Vertex{Tol: DefaultVertexTolerance}}, s)

	_, err = NewSolver("interior-point", 0, false)
	assert.Error(t, err)
}

// degenerateProduction builds the solar/wind LP with a huge emissions cap; gonum's
// simplex cannot pick an initial basis for it.
func degenerateProduction(solarCap, windCap, demand, maintenance, emissions float64) *Problem {
	p := NewProblem("degenerate", true, "solar", "wind")
	p.SetObjective(45, 60)
	p.AddConstraint("solar_capacity", model.LessEq, solarCap, 1, 0)
	p.AddConstraint("wind_capacity", model.LessEq, windCap, 0, 1)
	p.AddConstraint("min_demand", model.GreaterEq, demand, 1, 1)
	p.AddConstraint("maintenance", model.LessEq, maintenance, 0.5, 0.8)
	p.AddConstraint("emissions", model.LessEq, emissions, 1080, 288)
	return p
}

func TestSimplex_DegenerateBasisDoesNotPanic(t *testing.T) {
	tests := []struct {
		name string
		prob *Problem
	}{
		{"large emissions cap", degenerateProduction(5, 80, 90, 70, 1e9)},
		{"large maintenance and emissions", degenerateProduction(0, 80, 90, 1e9, 1e9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Simplex{}.Solve(tt.prob) })
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInfeasible) || errors.Is(err, ErrSolverFailure), err.Error())

			solver, nerr := NewSolver(MethodSimplex, DefaultTolerance, true)
			require.NoError(t, nerr)
			require.NotPanics(t, func() { _, err = solver.Solve(tt.prob) })
			assert.ErrorIs(t, err, ErrInfeasible)
		})
	}
}
