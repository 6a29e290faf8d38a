// Package config loads planner settings and instance files from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/alloc"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/logging"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// PrioritizedName selects the prioritized baseline instead of a search variant.
const PrioritizedName = "prioritized"

// Config holds planner settings.
type Config struct {
	Variant string `yaml:"variant"`

	// NoCollisionProb and Alpha override the instance's robustness target
	// when non-zero.
	NoCollisionProb float64 `yaml:"no_collision_prob"`
	Alpha           float64 `yaml:"alpha"`
	// DefaultDelay applies to agents whose instance entry has no delay.
	DefaultDelay float64 `yaml:"default_delay"`

	MaxGoals     int           `yaml:"max_goals"`
	MaxSamples   int           `yaml:"max_samples"`
	ConflictSeed int64         `yaml:"conflict_seed"`
	VerifySeed   int64         `yaml:"verify_seed"`
	Timeout      time.Duration `yaml:"timeout"`

	Log         LogConfig `yaml:"log"`
	MetricsAddr string    `yaml:"metrics_addr"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Variant:      core.RCbssEff.Name,
		MaxGoals:     alloc.DefaultMaxGoals,
		MaxSamples:   algo.DefaultMaxSamples,
		ConflictSeed: algo.DefaultConflictSeed,
		VerifySeed:   algo.DefaultVerifySeed,
		Timeout:      5 * time.Minute,
		Log:          LogConfig{Level: "info"},
	}
}

// Load reads a YAML config from path. Fields missing from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Variant != PrioritizedName {
		if _, err := core.ParseVariant(c.Variant); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.NoCollisionProb < 0 || c.NoCollisionProb >= 1 {
		return fmt.Errorf("%w: no_collision_prob %v outside [0,1)", ErrInvalidConfig, c.NoCollisionProb)
	}
	if c.Alpha < 0 || c.Alpha >= 1 {
		return fmt.Errorf("%w: alpha %v outside [0,1)", ErrInvalidConfig, c.Alpha)
	}
	if c.DefaultDelay < 0 || c.DefaultDelay >= 1 {
		return fmt.Errorf("%w: default_delay %v outside [0,1)", ErrInvalidConfig, c.DefaultDelay)
	}
	if c.MaxGoals < 1 {
		return fmt.Errorf("%w: max_goals must be positive", ErrInvalidConfig)
	}
	if c.MaxSamples < 30 {
		return fmt.Errorf("%w: max_samples %d below the first batch size", ErrInvalidConfig, c.MaxSamples)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.New(logging.Config{Level: level, JSON: c.Log.JSON, Service: "rcbss"})
}

// Apply copies the robustness overrides onto inst.
func (c Config) Apply(inst *core.Instance) {
	if c.NoCollisionProb > 0 {
		inst.NoCollisionProb = c.NoCollisionProb
	}
	if c.Alpha > 0 {
		inst.Alpha = c.Alpha
	}
}

// Solver builds the configured planner.
func (c Config) Solver(logger *slog.Logger, opts ...algo.Option) (algo.Solver, error) {
	if c.Variant == PrioritizedName {
		p := algo.NewPrioritized(false)
		p.MaxGoals = c.MaxGoals
		return p, nil
	}
	v, err := core.ParseVariant(c.Variant)
	if err != nil {
		return nil, err
	}
	base := append(c.SolverOptions(), algo.WithLogger(logger))
	return algo.NewRCBSS(v, append(base, opts...)...), nil
}

// SolverOptions returns the search options the config sets.
func (c Config) SolverOptions() []algo.Option {
	return []algo.Option{
		algo.WithConflictSeed(c.ConflictSeed),
		algo.WithVerifySeed(c.VerifySeed),
		algo.WithMaxGoals(c.MaxGoals),
		algo.WithMaxSamples(c.MaxSamples),
	}
}
