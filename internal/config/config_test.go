package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "rcbss-eff", cfg.Variant)
	assert.Equal(t, int64(42), cfg.ConflictSeed)
	assert.Equal(t, int64(47), cfg.VerifySeed)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rcbss.yaml", `
variant: irc
timeout: 30s
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc", cfg.Variant)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, Default().MaxGoals, cfg.MaxGoals)
	assert.Equal(t, Default().MaxSamples, cfg.MaxSamples)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown variant", func(c *Config) { c.Variant = "astar" }},
		{"probability", func(c *Config) { c.NoCollisionProb = 1 }},
		{"alpha", func(c *Config) { c.Alpha = -0.1 }},
		{"delay", func(c *Config) { c.DefaultDelay = 1.5 }},
		{"max goals", func(c *Config) { c.MaxGoals = 0 }},
		{"max samples", func(c *Config) { c.MaxSamples = 10 }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSolverSelection(t *testing.T) {
	cfg := Default()
	s, err := cfg.Solver(cfg.Logger())
	require.NoError(t, err)
	assert.Equal(t, "rcbss-eff", s.Name())

	cfg.Variant = PrioritizedName
	s, err = cfg.Solver(cfg.Logger())
	require.NoError(t, err)
	assert.IsType(t, &algo.Prioritized{}, s)
}

func TestApplyOverrides(t *testing.T) {
	inst := core.NewInstance(core.NewGrid(2, 2))
	cfg := Default()
	cfg.Apply(inst)
	assert.Equal(t, 0.9, inst.NoCollisionProb)

	cfg.NoCollisionProb = 0.99
	cfg.Alpha = 0.01
	cfg.Apply(inst)
	assert.Equal(t, 0.99, inst.NoCollisionProb)
	assert.Equal(t, 0.01, inst.Alpha)
}
