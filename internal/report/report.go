// Package report prints solutions, constraint checks, sweep tables and the
// surface summary as console tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"energy_optimizer/internal/model"
)

// SaturationTolerance is the profit difference treated as "no change" when
// locating the point where a sweep stops mattering.
const SaturationTolerance = 1e-6

// Printer writes report sections to w.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Euro formats an amount with two decimals, e.g. "€5700.00".
func Euro(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return "€" + decimal.NewFromFloat(v).StringFixed(2)
}

func (p *Printer) Solution(s model.Solution) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "Production Plan")
	fmt.Fprintf(p.w, "  Limits: solar ≤ %s MW, wind ≤ %s MW, demand ≥ %s MW, maintenance ≤ %s h, emissions ≤ %s kg CO₂/day\n",
		num(s.Params.SolarCapacityMax), num(s.Params.WindCapacityMax), num(s.Params.MinTotalDemand),
		num(s.Params.MaxMaintenanceHours), num(s.Params.MaxEmissions))
	fmt.Fprintf(p.w, "  Status:      %s\n", s.Status)
	if !s.HasObjective() {
		fmt.Fprintln(p.w, "  No production plan satisfies all constraints.")
		fmt.Fprintln(p.w)
		return
	}
	fmt.Fprintf(p.w, "  Solar (x1):  %8.2f MW\n", s.Solar)
	fmt.Fprintf(p.w, "  Wind (x2):   %8.2f MW\n", s.Wind)
	fmt.Fprintf(p.w, "  Total:       %8.2f MW\n", s.TotalProduction())
	fmt.Fprintf(p.w, "  Profit:      %s\n", Euro(s.Objective))
	fmt.Fprintln(p.w)
}

// Verification prints one row per constraint check.
func (p *Printer) Verification(checks []model.ConstraintCheck) {
	if len(checks) == 0 {
		return
	}
	fmt.Fprintln(p.w, "Constraint Verification")
	fmt.Fprintf(p.w, " %-16s │ %12s │ %2s │ %12s │ %12s │ %s\n",
		"Constraint", "LHS", "", "RHS", "Slack", "State")
	fmt.Fprintf(p.w, "──────────────────┼──────────────┼────┼──────────────┼──────────────┼──────────\n")
	for _, c := range checks {
		state := "ok"
		switch {
		case !c.Satisfied:
			state = "VIOLATED"
		case c.Binding:
			state = "binding"
		}
		fmt.Fprintf(p.w, " %-16s │ %12.2f │ %2s │ %12.2f │ %12.2f │ %s\n",
			c.Name, c.LHS, c.Sense, c.RHS, c.Slack, state)
	}
	fmt.Fprintln(p.w)
}

// Series prints a sweep table with a Marginal column (profit change per
// unit of the swept field) and the saturation line.
func (p *Printer) Series(s model.Series) {
	title := string(s.Field)
	if info, ok := model.FieldCatalog[s.Field]; ok {
		title = info.Title
	}
	fmt.Fprintln(p.w, title)
	fmt.Fprintf(p.w, "  %d points, %d feasible\n", len(s.Points), s.Feasible())
	fmt.Fprintln(p.w)

	fmt.Fprintf(p.w, " %12s │ %12s │ %10s │ %10s\n", "Value", "Profit", "Status", "Marginal")
	fmt.Fprintf(p.w, "──────────────┼──────────────┼────────────┼────────────\n")

	marginals := s.Marginals()
	for i, pt := range s.Points {
		profit := "-"
		if pt.HasObjective() {
			profit = Euro(pt.Objective)
		}
		marginal := "-"
		if !math.IsNaN(marginals[i]) {
			marginal = fmt.Sprintf("%.2f", marginals[i])
		}
		fmt.Fprintf(p.w, " %12s │ %12s │ %10s │ %10s\n", num(pt.Value), profit, pt.Status, marginal)
	}

	unit := ""
	if info, ok := model.FieldCatalog[s.Field]; ok {
		unit = " " + info.Unit
	}
	if v, obj, ok := s.Saturation(SaturationTolerance); ok {
		fmt.Fprintf(p.w, "  Profit stops changing at %s%s (%s)\n", num(v), unit, Euro(obj))
	} else if s.Feasible() == 0 {
		fmt.Fprintln(p.w, "  No feasible point in range")
	} else {
		fmt.Fprintln(p.w, "  Profit still changing at the end of the range")
	}
	fmt.Fprintln(p.w)
}

func (p *Printer) AllSeries(series []model.Series) {
	for _, s := range series {
		p.Series(s)
	}
}

// Surface prints the grid size, feasible share and best grid point.
func (p *Printer) Surface(s model.Surface) {
	total := len(s.Solar) * len(s.Wind)
	feasible := s.FeasibleCells()
	fmt.Fprintln(p.w, "Objective Surface")
	fmt.Fprintf(p.w, "  Grid: %d × %d points\n", len(s.Solar), len(s.Wind))
	share := 0.0
	if total > 0 {
		share = float64(feasible) / float64(total) * 100
	}
	fmt.Fprintf(p.w, "  Feasible: %d (%.1f%%)\n", feasible, share)
	if solar, wind, obj, ok := s.Best(); ok {
		fmt.Fprintf(p.w, "  Best grid point: x1 = %s MW, x2 = %s MW, profit %s\n", num(solar), num(wind), Euro(obj))
	} else {
		fmt.Fprintln(p.w, "  No feasible grid point")
	}
	fmt.Fprintln(p.w)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
