package sensitivity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_optimizer/internal/linprog"
	"energy_optimizer/internal/model"
	"energy_optimizer/internal/optimizer"
)

// recorder implements Callback, keeping every event.
type recorder struct {
	points []model.Point
	series []model.Series
}

func (r *recorder) OnPoint(_ model.Field, p model.Point) { r.points = append(r.points, p) }
func (r *recorder) OnSeries(s model.Series)             { r.series = append(r.series, s) }

func newSweeper(workers int, cb Callback) *Sweeper {
	return New(optimizer.New(linprog.Simplex{}, nil), cb, workers, nil)
}

func sweepFor(t *testing.T, f model.Field) model.Sweep {
	t.Helper()
	for _, sw := range model.DefaultSweeps() {
		if sw.Field == f {
			return sw
		}
	}
	t.Fatalf("no default sweep for %s", f)
	return model.Sweep{}
}

func pointAt(t *testing.T, s model.Series, v float64) model.Point {
	t.Helper()
	for _, p := range s.Points {
		if math.Abs(p.Value-v) < 1e-9 {
			return p
		}
	}
	t.Fatalf("no point at %v", v)
	return model.Point{}
}

func TestRun_DefaultSweeps(t *testing.T) {
	series, err := newSweeper(1, nil).RunAll(model.DefaultParams(), model.DefaultSweeps())
	require.NoError(t, err)
	require.Len(t, series, 5)

	counts := map[model.Field]int{
		model.FieldMaxEmissions:     141,
		model.FieldMaintenanceHours: 19,
		model.FieldMinDemand:        11,
		model.FieldSolarCapacity:    19,
		model.FieldWindCapacity:     19,
	}
	for _, s := range series {
		assert.Len(t, s.Points, counts[s.Field], s.Field)
	}
}

func TestRun_PreservesInputOrder(t *testing.T) {
	sw := sweepFor(t, model.FieldMaintenanceHours)
	s, err := newSweeper(1, nil).Run(model.DefaultParams(), sw)
	require.NoError(t, err)
	assert.Equal(t, sw.Range.Values(), s.Values())
}

func TestRun_MaintenanceMonotone(t *testing.T) {
	sw := model.Sweep{Field: model.FieldMaintenanceHours, Range: model.Range{Start: 70, Stop: 140, Step: 2.5}}
	s, err := newSweeper(1, nil).Run(model.DefaultParams(), sw)
	require.NoError(t, err)
	assertNonDecreasing(t, s)

	first := s.Points[0]
	assert.InDelta(t, 5700, first.Objective, 1e-6)
	assert.InDelta(t, 7500, pointAt(t, s, 140).Objective, 1e-6)
}

func TestRun_EmissionsMonotone(t *testing.T) {
	s, err := newSweeper(1, nil).Run(model.DefaultParams(), sweepFor(t, model.FieldMaxEmissions))
	require.NoError(t, err)
	assertNonDecreasing(t, s)

	// the default optimum emits 79200 kg, so any cap above it leaves profit unchanged
	assert.InDelta(t, 5700, pointAt(t, s, 79500).Objective, 1e-6)
	v, obj, ok := s.Saturation(1e-6)
	require.True(t, ok)
	assert.InDelta(t, 79500, v, 1e-9)
	assert.InDelta(t, 5700, obj, 1e-6)
}

func TestRun_InfeasiblePointsAreMarked(t *testing.T) {
	s, err := newSweeper(1, nil).Run(model.DefaultParams(), sweepFor(t, model.FieldMinDemand))
	require.NoError(t, err)

	for _, v := range []float64{0, 20, 40, 60, 80, 100} {
		p := pointAt(t, s, v)
		assert.Equal(t, model.StatusOptimal, p.Status)
		assert.InDelta(t, 5700, p.Objective, 1e-6)
	}
	for _, v := range []float64{120, 140, 160, 180, 200} {
		p := pointAt(t, s, v)
		assert.Equal(t, model.StatusInfeasible, p.Status)
		assert.True(t, math.IsNaN(p.Objective), "infeasible point must not carry a number")
	}
}

func TestRun_SolarSaturation(t *testing.T) {
	s, err := newSweeper(1, nil).Run(model.DefaultParams(), sweepFor(t, model.FieldSolarCapacity))
	require.NoError(t, err)

	v, obj, ok := s.Saturation(1e-6)
	require.True(t, ok)
	assert.InDelta(t, 85, v, 1e-9)
	assert.InDelta(t, 5873.333333, obj, 1e-4)
}

func TestRun_WindShortageIsInfeasible(t *testing.T) {
	s, err := newSweeper(1, nil).Run(model.DefaultParams(), sweepFor(t, model.FieldWindCapacity))
	require.NoError(t, err)

	assert.Equal(t, model.StatusInfeasible, pointAt(t, s, 20).Status)
	assert.Equal(t, model.StatusInfeasible, pointAt(t, s, 25).Status)
	assert.InDelta(t, 4500, pointAt(t, s, 30).Objective, 1e-6)
	assert.InDelta(t, 5700, pointAt(t, s, 110).Objective, 1e-6)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	seq, err := newSweeper(1, nil).RunAll(model.DefaultParams(), model.DefaultSweeps())
	require.NoError(t, err)
	par, err := newSweeper(4, nil).RunAll(model.DefaultParams(), model.DefaultSweeps())
	require.NoError(t, err)

	require.Len(t, par, len(seq))
	for i := range seq {
		assert.Equal(t, seq[i].Field, par[i].Field)
		assert.Equal(t, seq[i].Values(), par[i].Values())
		assertSameObjectives(t, seq[i], par[i], 0)
	}
}

func TestRun_SimplexAndVertexAgree(t *testing.T) {
	simplex := New(optimizer.New(linprog.Simplex{}, nil), nil, 1, nil)
	vertex := New(optimizer.New(linprog.Vertex{}, nil), nil, 1, nil)

	for _, sw := range model.DefaultSweeps() {
		t.Run(string(sw.Field), func(t *testing.T) {
			a, err := simplex.Run(model.DefaultParams(), sw)
			require.NoError(t, err)
			b, err := vertex.Run(model.DefaultParams(), sw)
			require.NoError(t, err)
			assertSameObjectives(t, a, b, 1e-5)
		})
	}
}

func TestRun_Callback(t *testing.T) {
	rec := &recorder{}
	sw := sweepFor(t, model.FieldWindCapacity)
	s, err := newSweeper(3, rec).Run(model.DefaultParams(), sw)
	require.NoError(t, err)

	require.Len(t, rec.points, len(s.Points))
	for i := range s.Points {
		assert.InDelta(t, s.Points[i].Value, rec.points[i].Value, 1e-12)
	}
	require.Len(t, rec.series, 1)
	assert.Equal(t, model.FieldWindCapacity, rec.series[0].Field)
}

// flaky fails for one specific solar capacity.
type flaky struct {
	inner  Solver
	failAt float64
}

func (f flaky) Solve(p model.Params) (model.Solution, error) {
	if p.SolarCapacityMax == f.failAt {
		return model.Solution{}, errors.New("numerical trouble")
	}
	return f.inner.Solve(p)
}

func TestRun_SolverFailureRecordedAndSweepContinues(t *testing.T) {
	solver := flaky{inner: optimizer.New(linprog.Simplex{}, nil), failAt: 40}
	s, err := New(solver, nil, 1, nil).Run(model.DefaultParams(), sweepFor(t, model.FieldSolarCapacity))
	require.NoError(t, err)
	require.Len(t, s.Points, 19)

	failed := pointAt(t, s, 40)
	assert.Equal(t, model.StatusError, failed.Status)
	assert.Equal(t, "numerical trouble", failed.Err)
	assert.True(t, math.IsNaN(failed.Objective))

	assert.Equal(t, model.StatusOptimal, pointAt(t, s, 45).Status)
	assert.Equal(t, 18, s.Feasible())
}

func TestRun_FailFast(t *testing.T) {
	counting := &countingSolver{inner: optimizer.New(linprog.Simplex{}, nil)}
	sweeper := New(counting, nil, 1, nil)

	tests := []struct {
		name   string
		base   model.Params
		sweep  model.Sweep
		target error
	}{
		{
			name:   "negative base",
			base:   model.Params{SolarCapacityMax: -1, WindCapacityMax: 80},
			sweep:  sweepFor(t, model.FieldWindCapacity),
			target: model.ErrInvalidParams,
		},
		{
			name:   "negative swept values",
			base:   model.DefaultParams(),
			sweep:  model.Sweep{Field: model.FieldSolarCapacity, Range: model.Range{Start: -10, Stop: 10, Step: 5}},
			target: model.ErrInvalidParams,
		},
		{
			name:   "zero step",
			base:   model.DefaultParams(),
			sweep:  model.Sweep{Field: model.FieldSolarCapacity, Range: model.Range{Start: 0, Stop: 10, Step: 0}},
			target: model.ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sweeper.Run(tt.base, tt.sweep)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := sweeper.Run(model.DefaultParams(), model.Sweep{Field: "tidal", Range: model.Range{Start: 0, Stop: 1, Step: 1}})
	assert.Error(t, err)
	assert.Equal(t, 0, counting.calls)
}

type countingSolver struct {
	inner Solver
	calls int
}

func (c *countingSolver) Solve(p model.Params) (model.Solution, error) {
	c.calls++
	return c.inner.Solve(p)
}

func assertNonDecreasing(t *testing.T, s model.Series) {
	t.Helper()
	prev := math.Inf(-1)
	for _, p := range s.Points {
		if !p.HasObjective() {
			continue
		}
		assert.GreaterOrEqual(t, p.Objective, prev-1e-6, "objective dropped at %v", p.Value)
		prev = p.Objective
	}
}

func assertSameObjectives(t *testing.T, a, b model.Series, delta float64) {
	t.Helper()
	require.Len(t, b.Points, len(a.Points))
	for i := range a.Points {
		pa, pb := a.Points[i], b.Points[i]
		assert.Equal(t, pa.Status, pb.Status, "status at %v", pa.Value)
		if pa.HasObjective() && pb.HasObjective() {
			assert.InDelta(t, pa.Objective, pb.Objective, delta, "objective at %v", pa.Value)
		}
	}
}

func TestRun_DemandSweepWithHugeEmissionsCap(t *testing.T) {
	base := model.DefaultParams()
	base.MaxEmissions = 1e9
	sw := sweepFor(t, model.FieldMinDemand)

	t.Run("with fallback", func(t *testing.T) {
		solver, err := linprog.NewSolver(linprog.MethodSimplex, linprog.DefaultTolerance, true)
		require.NoError(t, err)
		sweeper := New(optimizer.New(solver, nil), nil, 1, nil)

		var s model.Series
		require.NotPanics(t, func() { s, err = sweeper.Run(base, sw) })
		require.NoError(t, err)
		require.Len(t, s.Points, 11)
		for _, p := range s.Points {
			if p.Value <= 100 {
				assert.Equal(t, model.StatusOptimal, p.Status, "demand %v", p.Value)
				assert.InDelta(t, 5700, p.Objective, 1e-6)
			} else {
				assert.Equal(t, model.StatusInfeasible, p.Status, "demand %v", p.Value)
				assert.True(t, math.IsNaN(p.Objective))
			}
		}
	})

	t.Run("simplex alone keeps sweeping", func(t *testing.T) {
		var s model.Series
		var err error
		require.NotPanics(t, func() { s, err = newSweeper(2, nil).Run(base, sw) })
		require.NoError(t, err)
		assert.Len(t, s.Points, 11)
	})
}
