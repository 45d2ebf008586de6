// Package chart renders sweep series as line charts and the objective
// surface as a heatmap.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"energy_optimizer/internal/model"
)

var ErrEmptySurface = errors.New("surface needs at least 2 points per axis")

// Options control the size and format of saved charts.
type Options struct {
	WidthIn  float64
	HeightIn float64
	Format   string // png, svg or pdf
}

func DefaultOptions() Options {
	return Options{WidthIn: 7, HeightIn: 4, Format: "png"}
}

var (
	lineColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	optimumColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// SeriesPlot draws profit against the swept value. Points without an
// optimum leave a gap in the line.
func SeriesPlot(s model.Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = string(s.Field)
	if info, ok := model.FieldCatalog[s.Field]; ok {
		p.Title.Text = info.Title
	}
	p.X.Label.Text = s.Field.Label()
	p.Y.Label.Text = "Optimal profit (€)"
	p.Add(plotter.NewGrid())

	xs := s.Values()
	for _, seg := range segments(xs, s.Objectives()) {
		line, points, err := plotter.NewLinePoints(seg)
		if err != nil {
			return nil, fmt.Errorf("plotting %s: %w", s.Field, err)
		}
		line.Color = lineColor
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = lineColor
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
	}

	if len(xs) > 0 {
		p.X.Min, p.X.Max = xs[0], xs[len(xs)-1]
	}
	if s.Feasible() == 0 {
		p.Title.Text += " (no feasible point)"
		p.Y.Min, p.Y.Max = 0, 1
	}
	return p, nil
}

// segments splits (x, y) into runs of consecutive finite y values.
func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range xs {
		if i >= len(ys) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// surfaceGrid adapts model.Surface to plotter.GridXYZ. Columns follow the
// solar axis and rows the wind axis.
type surfaceGrid struct {
	s model.Surface
}

func (g surfaceGrid) Dims() (c, r int)   { return len(g.s.Solar), len(g.s.Wind) }
func (g surfaceGrid) Z(c, r int) float64 { return g.s.Z[r][c] }
func (g surfaceGrid) X(c int) float64    { return g.s.Solar[c] }
func (g surfaceGrid) Y(r int) float64    { return g.s.Wind[r] }

// SurfacePlot draws the objective over the feasible region and marks the
// best grid point. Infeasible cells stay transparent.
func SurfacePlot(s model.Surface) (*plot.Plot, error) {
	if len(s.Solar) < 2 || len(s.Wind) < 2 {
		return nil, ErrEmptySurface
	}

	p := plot.New()
	p.Title.Text = "Optimal profit over the feasible region"
	p.X.Label.Text = "Solar x1 (MW)"
	p.Y.Label.Text = "Wind x2 (MW)"

	hm := plotter.NewHeatMap(surfaceGrid{s: s}, palette.Heat(12, 1))
	hm.NaN = color.Transparent
	lo, hi := finiteRange(s.Z)
	if lo > hi {
		lo, hi = 0, 1
	} else if lo == hi {
		hi = lo + 1
	}
	hm.Min, hm.Max = lo, hi
	p.Add(hm)

	if solar, wind, obj, ok := s.Best(); ok {
		marker, err := plotter.NewScatter(plotter.XYs{{X: solar, Y: wind}})
		if err != nil {
			return nil, fmt.Errorf("plotting optimum: %w", err)
		}
		marker.GlyphStyle.Color = optimumColor
		marker.GlyphStyle.Shape = draw.CrossGlyph{}
		marker.GlyphStyle.Radius = vg.Points(5)

		labels, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: solar, Y: wind}},
			Labels: []string{fmt.Sprintf(" (%.1f, %.1f) €%.2f", solar, wind, obj)},
		})
		if err != nil {
			return nil, fmt.Errorf("labelling optimum: %w", err)
		}
		p.Add(marker, labels)
		p.Legend.Add("optimum", marker)
	}
	return p, nil
}

func finiteRange(z [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range z {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// SeriesFileName returns the chart file name for a field.
func SeriesFileName(f model.Field, format string) string {
	return "sweep_" + string(f) + "." + format
}

// SaveSeries renders one chart per series into dir.
func SaveSeries(dir string, series []model.Series, opt Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	paths := make([]string, 0, len(series))
	for _, s := range series {
		p, err := SeriesPlot(s)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, SeriesFileName(s.Field, opt.Format))
		if err := save(p, path, opt); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveSurface renders the heatmap into dir.
func SaveSurface(dir string, s model.Surface, opt Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	p, err := SurfacePlot(s)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "surface."+opt.Format)
	if err := save(p, path, opt); err != nil {
		return "", err
	}
	return path, nil
}

func save(p *plot.Plot, path string, opt Options) error {
	w := vg.Length(opt.WidthIn) * vg.Inch
	h := vg.Length(opt.HeightIn) * vg.Inch
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}
