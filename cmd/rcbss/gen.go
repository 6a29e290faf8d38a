package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/robust-cbss/internal/bench"
	"github.com/elektrokombinacija/robust-cbss/internal/config"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

var (
	genMap    string
	genRows   int
	genCols   int
	genCount  int
	genAgents int
	genGoals  int
	genDelay  float64
	genSeed   int64
	genOut    string

	genCmd = &cobra.Command{
		Use:   "gen",
		Short: "Generate random instance files on a map",
		RunE:  runGen,
	}
)

func init() {
	f := genCmd.Flags()
	f.StringVar(&genMap, "map", "", "MovingAI map file (default: open grid of --rows x --cols)")
	f.IntVar(&genRows, "rows", 16, "rows of the open grid")
	f.IntVar(&genCols, "cols", 16, "columns of the open grid")
	f.IntVar(&genCount, "count", 25, "instances to generate")
	f.IntVar(&genAgents, "agents", 5, "agents per instance")
	f.IntVar(&genGoals, "goals", 10, "goals per instance")
	f.Float64Var(&genDelay, "delay", 0, "per-agent delay probability (default: config default_delay)")
	f.Int64Var(&genSeed, "seed", 0, "random seed")
	f.StringVarP(&genOut, "out", "o", "instances", "output directory")
}

// loadGrid opens a map file or builds an open grid, returning it with a
// short name for file names and reports.
func loadGrid(path string, rows, cols int) (*core.Grid, string, error) {
	if path == "" {
		return core.NewGrid(rows, cols), fmt.Sprintf("open-%dx%d", rows, cols), nil
	}
	g, err := core.LoadMap(path)
	if err != nil {
		return nil, "", err
	}
	return g, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}

// noCollisionProb is the configured target P, or the default when unset.
func noCollisionProb() float64 {
	if cfg.NoCollisionProb > 0 {
		return cfg.NoCollisionProb
	}
	return core.DefaultNoCollisionProb
}

func runGen(cmd *cobra.Command, args []string) error {
	g, name, err := loadGrid(genMap, genRows, genCols)
	if err != nil {
		return err
	}
	delay := genDelay
	if !cmd.Flags().Changed("delay") {
		delay = cfg.DefaultDelay
	}

	layouts, err := bench.Generate(g, genCount, genAgents, genGoals, genSeed)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(genOut, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for i, l := range layouts {
		inst, err := l.Instance(g, genAgents, genGoals, delay, noCollisionProb())
		if err != nil {
			return err
		}
		cfg.Apply(inst)
		path := filepath.Join(genOut, fmt.Sprintf("%s-a%d-g%d-%03d.yaml", name, genAgents, genGoals, i+1))
		if err := config.SaveInstance(path, inst); err != nil {
			return err
		}
	}
	logger.Info("instances written",
		slog.String("map", name),
		slog.Int("count", len(layouts)),
		slog.String("dir", genOut),
	)
	return nil
}
