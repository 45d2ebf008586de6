package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_optimizer/internal/model"
)

func maintenanceSeries() model.Series {
	return model.Series{
		Field: model.FieldMaintenanceHours,
		Points: []model.Point{
			{Value: 50, Objective: math.NaN(), Status: model.StatusInfeasible},
			{Value: 55, Objective: 4575, Status: model.StatusOptimal},
			{Value: 60, Objective: 4950, Status: model.StatusOptimal},
		},
	}
}

func TestWriteSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeries(&buf, maintenanceSeries()))

	want := "value,objective,status\n50,,infeasible\n55,4575,optimal\n60,4950,optimal\n"
	assert.Equal(t, want, buf.String())
}

func TestReadSeries_FromWriteSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeries(&buf, maintenanceSeries()))

	got, err := ReadSeries(&buf, model.FieldMaintenanceHours)
	require.NoError(t, err)
	require.Len(t, got.Points, 3)

	assert.Equal(t, model.FieldMaintenanceHours, got.Field)
	assert.Equal(t, model.StatusInfeasible, got.Points[0].Status)
	assert.True(t, math.IsNaN(got.Points[0].Objective))
	assert.InDelta(t, 4575, got.Points[1].Objective, 1e-9)
	assert.Equal(t, 2, got.Feasible())
}

func TestReadSeries_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "header"},
		{"wrong header", "x,objective,status\n", "value"},
		{"bad value", "value,objective,status\nabc,1,optimal\n", "parsing value"},
		{"bad objective", "value,objective,status\n1,abc,optimal\n", "parsing objective"},
		{"unknown status", "value,objective,status\n1,2,maybe\n", "unknown status"},
		{"optimal without objective", "value,objective,status\n1,,optimal\n", "without objective"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeries(strings.NewReader(tt.input), model.FieldMinDemand)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadSeries_IgnoresObjectiveOfInfeasibleRow(t *testing.T) {
	input := "value,objective,status\n120,0,infeasible\n"
	got, err := ReadSeries(strings.NewReader(input), model.FieldMinDemand)
	require.NoError(t, err)
	require.Len(t, got.Points, 1)
	assert.True(t, math.IsNaN(got.Points[0].Objective))
}

func TestWriteSurface(t *testing.T) {
	surface := model.Surface{
		Solar: []float64{0, 0.5},
		Wind:  []float64{0, 0.5},
		Z:     [][]float64{{math.NaN(), 22.5}, {30, 52.5}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSurface(&buf, surface))

	want := "x1,x2,objective\n0,0,\n0.5,0,22.5\n0,0.5,30\n0.5,0.5,52.5\n"
	assert.Equal(t, want, buf.String())
}

func TestSaveSeriesAndSurface(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")

	paths, err := SaveSeries(dir, []model.Series{maintenanceSeries()})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "sweep_maintenance_hours.csv"), paths[0])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	got, err := ReadSeries(f, model.FieldMaintenanceHours)
	require.NoError(t, err)
	assert.Len(t, got.Points, 3)

	path, err := SaveSurface(dir, model.Surface{Solar: []float64{0}, Wind: []float64{0}, Z: [][]float64{{0}}})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x1,x2,objective\n0,0,0\n", string(data))
}
