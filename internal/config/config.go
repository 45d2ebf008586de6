// Package config loads run configuration from defaults, an optional YAML
// file, ENERGY_LP_* environment variables and bound CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"energy_optimizer/internal/linprog"
	"energy_optimizer/internal/logging"
	"energy_optimizer/internal/model"
)

const EnvPrefix = "ENERGY_LP"

type Config struct {
	Params  model.Params   `mapstructure:"params"`
	Solver  SolverConfig   `mapstructure:"solver"`
	Sweep   SweepConfig    `mapstructure:"sweep"`
	Surface model.GridSpec `mapstructure:"surface"`
	Output  OutputConfig   `mapstructure:"output"`
	Log     logging.Config `mapstructure:"log"`
}

type SolverConfig struct {
	Method    string  `mapstructure:"method" validate:"oneof=simplex vertex"`
	Tolerance float64 `mapstructure:"tolerance" validate:"gte=0"`
	Fallback  bool    `mapstructure:"fallback"`
}

type SweepConfig struct {
	Workers int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	Sweeps  []model.Sweep `mapstructure:"sweeps" validate:"dive"`
}

// OutputConfig controls the optional artefacts handed to the plotting
// collaborator. Empty directories disable the corresponding output.
type OutputConfig struct {
	ChartDir    string  `mapstructure:"chart_dir"`
	ChartFormat string  `mapstructure:"chart_format" validate:"oneof=png svg pdf"`
	ChartWidth  float64 `mapstructure:"chart_width_in" validate:"gt=0"`
	ChartHeight float64 `mapstructure:"chart_height_in" validate:"gt=0"`
	CSVDir      string  `mapstructure:"csv_dir"`
}

// SetDefaults registers every key so that environment variables and flags
// resolve during Unmarshal.
func SetDefaults(v *viper.Viper) {
	p := model.DefaultParams()
	v.SetDefault("params.solar_capacity_max", p.SolarCapacityMax)
	v.SetDefault("params.wind_capacity_max", p.WindCapacityMax)
	v.SetDefault("params.min_total_demand", p.MinTotalDemand)
	v.SetDefault("params.max_maintenance_hours", p.MaxMaintenanceHours)
	v.SetDefault("params.max_emissions", p.MaxEmissions)

	v.SetDefault("solver.method", linprog.MethodSimplex)
	v.SetDefault("solver.tolerance", linprog.DefaultTolerance)
	v.SetDefault("solver.fallback", true)

	v.SetDefault("sweep.workers", 1)

	g := model.DefaultGridSpec()
	v.SetDefault("surface.solar_max", g.SolarMax)
	v.SetDefault("surface.wind_max", g.WindMax)
	v.SetDefault("surface.step", g.Step)

	v.SetDefault("output.chart_dir", "")
	v.SetDefault("output.chart_format", "png")
	v.SetDefault("output.chart_width_in", 7.0)
	v.SetDefault("output.chart_height_in", 4.0)
	v.SetDefault("output.csv_dir", "")

	l := logging.DefaultConfig()
	v.SetDefault("log.level", l.Level)
	v.SetDefault("log.format", l.Format)
}

// Load reads path (when non-empty) into v, applies the environment and
// returns the validated configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Sweep.Sweeps) == 0 {
		cfg.Sweep.Sweeps = model.DefaultSweeps()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks structural rules and the domain rules of parameters,
// sweeps and the surface grid.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	for i, sw := range c.Sweep.Sweeps {
		if _, err := model.ParseField(string(sw.Field)); err != nil {
			return fmt.Errorf("invalid config: sweep %d: %w", i, err)
		}
		if err := sw.Range.Validate(); err != nil {
			return fmt.Errorf("invalid config: sweep %d (%s): %w", i, sw.Field, err)
		}
	}
	if err := c.Surface.Validate(); err != nil {
		return fmt.Errorf("invalid config: surface: %w", err)
	}
	return nil
}

// NewSolver returns the LP solver selected by the configuration.
func (c *Config) NewSolver() (linprog.Solver, error) {
	return linprog.NewSolver(c.Solver.Method, c.Solver.Tolerance, c.Solver.Fallback)
}
