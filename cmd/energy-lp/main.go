package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"energy_optimizer/internal/config"
	"energy_optimizer/internal/logging"
	"energy_optimizer/internal/model"
	"energy_optimizer/internal/optimizer"
	"energy_optimizer/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
	opt     *optimizer.Optimizer
	results *store.Store
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"solar-cap":         "params.solar_capacity_max",
	"wind-cap":          "params.wind_capacity_max",
	"min-demand":        "params.min_total_demand",
	"maintenance-hours": "params.max_maintenance_hours",
	"max-emissions":     "params.max_emissions",
	"method":            "solver.method",
	"workers":           "sweep.workers",
	"chart-dir":         "output.chart_dir",
	"chart-format":      "output.chart_format",
	"csv-dir":           "output.csv_dir",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), results: store.New()}
	defaults := model.DefaultParams()

	root := &cobra.Command{
		Use:   "energy-lp",
		Short: "Optimize solar and wind production under capacity, demand, maintenance and emission limits",
		Long: `energy-lp solves the daily solar/wind production LP, verifies the optimum
against every constraint and re-solves it while sweeping one parameter at a time.

Settings come from flags, ENERGY_LP_* environment variables and an optional
YAML file, in that order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "YAML configuration file")
	f.Float64("solar-cap", defaults.SolarCapacityMax, "solar capacity limit in MW")
	f.Float64("wind-cap", defaults.WindCapacityMax, "wind capacity limit in MW")
	f.Float64("min-demand", defaults.MinTotalDemand, "minimum total production in MW")
	f.Float64("maintenance-hours", defaults.MaxMaintenanceHours, "maintenance time budget in hours")
	f.Float64("max-emissions", defaults.MaxEmissions, "emissions cap in kg CO2 per day")
	f.String("method", "simplex", "LP method: simplex or vertex")
	f.Int("workers", 1, "concurrent solves per sweep")
	f.String("chart-dir", "", "write charts into this directory")
	f.String("chart-format", "png", "chart format: png, svg or pdf")
	f.String("csv-dir", "", "write CSV files into this directory")
	f.String("log-level", "warn", "log level: debug, info, warn or error")
	f.String("log-format", "console", "log format: console or json")
	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}

	root.AddCommand(a.solveCmd(), a.sweepCmd(), a.surfaceCmd(), a.allCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	solver, err := cfg.NewSolver()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.opt = optimizer.New(solver, log.Named("optimizer"))
	log.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config_file", a.cfgFile),
		zap.Any("params", cfg.Params),
		zap.String("method", cfg.Solver.Method),
		zap.Int("workers", cfg.Sweep.Workers))
	return nil
}
