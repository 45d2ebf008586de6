// Package export writes sweep series and the objective surface as CSV and
// reads series files back.
//
// Series format:
//
//	value,objective,status
//	70000,5623.333333333333,optimal
//	50,,infeasible
//
// Surface format:
//
//	x1,x2,objective
//	0,0,
//	60,50,5700
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"energy_optimizer/internal/model"
)

var (
	seriesHeader  = []string{"value", "objective", "status"}
	surfaceHeader = []string{"x1", "x2", "objective"}
)

// SeriesFileName returns the file name used for a field's series.
func SeriesFileName(f model.Field) string {
	return "sweep_" + string(f) + ".csv"
}

const SurfaceFileName = "surface.csv"

// WriteSeries writes one row per point. Points without an optimum get an
// empty objective so that no reader mistakes them for a zero profit.
func WriteSeries(w io.Writer, s model.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, p := range s.Points {
		obj := ""
		if p.HasObjective() {
			obj = formatFloat(p.Objective)
		}
		if err := cw.Write([]string{formatFloat(p.Value), obj, string(p.Status)}); err != nil {
			return fmt.Errorf("writing %s row: %w", s.Field, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSeries parses a file produced by WriteSeries.
func ReadSeries(r io.Reader, field model.Field) (model.Series, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return model.Series{}, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateHeader(header, seriesHeader); err != nil {
		return model.Series{}, err
	}

	series := model.Series{Field: field}
	lineNum := 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Series{}, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		p, err := parsePoint(record, lineNum)
		if err != nil {
			return model.Series{}, err
		}
		series.Points = append(series.Points, p)
	}
	return series, nil
}

func parsePoint(record []string, lineNum int) (model.Point, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("line %d: parsing value %q: %w", lineNum, record[0], err)
	}

	status := model.Status(strings.TrimSpace(record[2]))
	switch status {
	case model.StatusOptimal, model.StatusInfeasible, model.StatusUnbounded, model.StatusError:
	default:
		return model.Point{}, fmt.Errorf("line %d: unknown status %q", lineNum, record[2])
	}

	objective := math.NaN()
	if raw := strings.TrimSpace(record[1]); raw != "" {
		objective, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Point{}, fmt.Errorf("line %d: parsing objective %q: %w", lineNum, record[1], err)
		}
	}
	if status == model.StatusOptimal && math.IsNaN(objective) {
		return model.Point{}, fmt.Errorf("line %d: optimal point without objective", lineNum)
	}
	if status != model.StatusOptimal {
		objective = math.NaN()
	}

	return model.Point{Value: value, Objective: objective, Status: status}, nil
}

// WriteSurface writes the grid in row-major order, wind outer.
func WriteSurface(w io.Writer, s model.Surface) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(surfaceHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for j, row := range s.Z {
		for i, z := range row {
			obj := ""
			if !math.IsNaN(z) {
				obj = formatFloat(z)
			}
			if err := cw.Write([]string{formatFloat(s.Solar[i]), formatFloat(s.Wind[j]), obj}); err != nil {
				return fmt.Errorf("writing surface row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveSeries writes every series into dir and returns the paths written.
func SaveSeries(dir string, series []model.Series) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	paths := make([]string, 0, len(series))
	for _, s := range series {
		path := filepath.Join(dir, SeriesFileName(s.Field))
		if err := writeFile(path, func(w io.Writer) error { return WriteSeries(w, s) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveSurface writes the surface into dir and returns the path written.
func SaveSurface(dir string, s model.Surface) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, SurfaceFileName)
	if err := writeFile(path, func(w io.Writer) error { return WriteSurface(w, s) }); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func validateHeader(header, expected []string) error {
	if len(header) < len(expected) {
		return fmt.Errorf("expected at least %d columns, got %d", len(expected), len(header))
	}
	for i, col := range expected {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
