package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/bench"
	"github.com/elektrokombinacija/robust-cbss/internal/logging"
)

var (
	benchMaps       []string
	benchAlgorithms []string
	benchAgents     []int
	benchGoals      []int
	benchDelays     []float64
	benchInstances  int
	benchWorkers    int
	benchTimeout    time.Duration
	benchSimRuns    int
	benchSeed       int64
	benchCSV        string

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Run every algorithm over generated instances and report",
		RunE:  runBench,
	}
)

func init() {
	f := benchCmd.Flags()
	f.StringSliceVar(&benchMaps, "map", nil, "MovingAI map files (default: one open 16x16 grid)")
	f.StringSliceVar(&benchAlgorithms, "algorithms", []string{"rcbss-eff", "rcbss-base", "idp", "irc", "cbss"}, "algorithms to compare")
	f.IntSliceVar(&benchAgents, "agents", []int{5, 10}, "agent counts")
	f.IntSliceVar(&benchGoals, "goals", []int{10}, "goal counts")
	f.Float64SliceVar(&benchDelays, "delays", []float64{0.1}, "per-agent delay probabilities")
	f.IntVar(&benchInstances, "instances", 10, "instances per map")
	f.IntVar(&benchWorkers, "workers", runtime.NumCPU(), "parallel solves")
	f.DurationVar(&benchTimeout, "timeout", time.Minute, "per-instance time limit")
	f.IntVar(&benchSimRuns, "sim-runs", 100, "delayed executions per solved instance")
	f.Int64Var(&benchSeed, "seed", 0, "instance and simulation seed")
	f.StringVar(&benchCSV, "csv", "results.csv", "write per-run records to this CSV file")
}

// benchCases expands every map into cases over the agent, goal and delay
// grids. Instances of one map share their layouts across sizes.
func benchCases() ([]bench.Case, error) {
	paths := benchMaps
	if len(paths) == 0 {
		paths = []string{""}
	}
	maxAgents, maxGoals := maxOf(benchAgents), maxOf(benchGoals)

	var cases []bench.Case
	for _, path := range paths {
		g, name, err := loadGrid(path, 16, 16)
		if err != nil {
			return nil, err
		}
		layouts, err := bench.Generate(g, benchInstances, maxAgents, maxGoals, benchSeed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, delay := range benchDelays {
			for _, agents := range benchAgents {
				for _, goals := range benchGoals {
					for i, l := range layouts {
						inst, err := l.Instance(g, agents, goals, delay, noCollisionProb())
						if err != nil {
							return nil, fmt.Errorf("%s: %w", name, err)
						}
						cfg.Apply(inst)
						cases = append(cases, bench.Case{Map: name, Index: i, Delay: delay, Instance: inst})
					}
				}
			}
		}
	}
	return cases, nil
}

func maxOf(xs []int) int {
	m := 0
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}

func runBench(cmd *cobra.Command, args []string) error {
	cases, err := benchCases()
	if err != nil {
		return err
	}

	// Planner logs from parallel solves would interleave; only the
	// runner reports.
	quiet := logging.Discard()
	runner := &bench.Runner{
		Algorithms: benchAlgorithms,
		NewSolver: func(alg string) (algo.Solver, error) {
			c := cfg
			c.Variant = alg
			if err := c.Validate(); err != nil {
				return nil, err
			}
			return c.Solver(quiet)
		},
		Workers: benchWorkers,
		Timeout: benchTimeout,
		SimRuns: benchSimRuns,
		Seed:    benchSeed,
		Logger:  logger,
	}

	logger.Info("benchmark starting",
		slog.Int("cases", len(cases)),
		slog.Any("algorithms", benchAlgorithms),
	)
	records, err := runner.Run(cmd.Context(), cases)
	if err != nil {
		return err
	}

	if benchCSV != "" {
		f, err := os.Create(benchCSV)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		if err := bench.WriteCSV(f, records); err != nil {
			return err
		}
		logger.Info("records written", slog.String("path", benchCSV), slog.Int("records", len(records)))
	}
	bench.WriteSummary(cmd.OutOrStdout(), records)
	return nil
}
