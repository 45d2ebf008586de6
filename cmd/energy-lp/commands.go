package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energy_optimizer/internal/chart"
	"energy_optimizer/internal/export"
	"energy_optimizer/internal/model"
	"energy_optimizer/internal/report"
	"energy_optimizer/internal/sensitivity"
	"energy_optimizer/internal/store"
)

func (a *app) solveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve",
		Short: "Solve the production LP once and verify the optimum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSolve(cmd.OutOrStdout())
		},
	}
}

func (a *app) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [field...]",
		Short: "Re-solve while varying one parameter at a time",
		Long: `sweep runs the configured sensitivity sweeps. Naming fields restricts the run
to those fields: max_emissions, maintenance_hours, min_demand, solar_capacity,
wind_capacity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweeps, err := selectSweeps(a.cfg.Sweep.Sweeps, args)
			if err != nil {
				return err
			}
			return a.runSweeps(cmd.OutOrStdout(), sweeps)
		},
	}
}

func (a *app) surfaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surface",
		Short: "Sample the objective over the feasible region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSurface(cmd.OutOrStdout())
		},
	}
}

func (a *app) allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Solve, run every sweep and sample the surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if err := a.runSolve(w); err != nil {
				return err
			}
			if err := a.runSweeps(w, a.cfg.Sweep.Sweeps); err != nil {
				return err
			}
			return a.runSurface(w)
		},
	}
}

func (a *app) runSolve(w io.Writer) error {
	sol, err := a.opt.Solve(a.cfg.Params)
	if err != nil {
		return err
	}
	a.results.SetSolution(sol)

	printer := report.New(w)
	printer.Solution(sol)
	printer.Verification(a.opt.Verify(sol))
	return nil
}

func (a *app) runSweeps(w io.Writer, sweeps []model.Sweep) error {
	cb := progress{log: a.log.Named("sweep"), collector: store.Collector{Store: a.results}}
	sweeper := sensitivity.New(a.opt, cb, a.cfg.Sweep.Workers, a.log.Named("sweep"))
	if _, err := sweeper.RunAll(a.cfg.Params, sweeps); err != nil {
		return err
	}

	series := a.results.AllSeries()
	report.New(w).AllSeries(series)

	out := a.cfg.Output
	if out.ChartDir != "" {
		paths, err := chart.SaveSeries(out.ChartDir, series, a.chartOptions())
		if err != nil {
			return err
		}
		a.announce(w, paths...)
	}
	if out.CSVDir != "" {
		paths, err := export.SaveSeries(out.CSVDir, series)
		if err != nil {
			return err
		}
		a.announce(w, paths...)
	}
	return nil
}

func (a *app) runSurface(w io.Writer) error {
	surface, err := a.opt.Surface(a.cfg.Params, a.cfg.Surface)
	if err != nil {
		return err
	}
	a.results.SetSurface(surface)
	report.New(w).Surface(surface)

	out := a.cfg.Output
	if out.ChartDir != "" {
		path, err := chart.SaveSurface(out.ChartDir, surface, a.chartOptions())
		if err != nil {
			return err
		}
		a.announce(w, path)
	}
	if out.CSVDir != "" {
		path, err := export.SaveSurface(out.CSVDir, surface)
		if err != nil {
			return err
		}
		a.announce(w, path)
	}
	return nil
}

func (a *app) chartOptions() chart.Options {
	return chart.Options{
		WidthIn:  a.cfg.Output.ChartWidth,
		HeightIn: a.cfg.Output.ChartHeight,
		Format:   a.cfg.Output.ChartFormat,
	}
}

func (a *app) announce(w io.Writer, paths ...string) {
	for _, p := range paths {
		fmt.Fprintf(w, "  wrote %s\n", p)
	}
}

// selectSweeps keeps the configured sweeps whose field is named in args.
// A named field without a configured sweep falls back to its default range.
func selectSweeps(configured []model.Sweep, args []string) ([]model.Sweep, error) {
	if len(args) == 0 {
		return configured, nil
	}

	byField := make(map[model.Field]model.Sweep, len(configured))
	for _, sw := range configured {
		byField[sw.Field] = sw
	}
	for _, sw := range model.DefaultSweeps() {
		if _, ok := byField[sw.Field]; !ok {
			byField[sw.Field] = sw
		}
	}

	out := make([]model.Sweep, 0, len(args))
	for _, arg := range args {
		f, err := model.ParseField(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, byField[f])
	}
	return out, nil
}

// progress logs sweep events and files finished series into the store.
type progress struct {
	log       *zap.Logger
	collector store.Collector
}

func (p progress) OnPoint(field model.Field, pt model.Point) {
	p.log.Debug("sweep point",
		zap.String("field", string(field)),
		zap.Float64("value", pt.Value),
		zap.String("status", string(pt.Status)),
		zap.Float64("objective", pt.Objective))
	if pt.Err != "" {
		p.log.Warn("sweep point failed",
			zap.String("field", string(field)),
			zap.Float64("value", pt.Value),
			zap.String("error", pt.Err))
	}
	p.collector.OnPoint(field, pt)
}

func (p progress) OnSeries(series model.Series) {
	p.collector.OnSeries(series)
}
