package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/robust-cbss/internal/config"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

var (
	solveVariant string
	solveOut     string

	solveCmd = &cobra.Command{
		Use:   "solve INSTANCE",
		Short: "Plan a p-robust solution for an instance file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
)

func init() {
	solveCmd.Flags().StringVar(&solveVariant, "variant", "", "planner variant (overrides config)")
	solveCmd.Flags().StringVarP(&solveOut, "out", "o", "", "write the plan as YAML to this file instead of stdout")
}

// planFile is the YAML form of a solved plan.
type planFile struct {
	Variant        string      `yaml:"variant"`
	Cost           int         `yaml:"cost"`
	AllocationCost int         `yaml:"allocation_cost"`
	Runtime        string      `yaml:"runtime"`
	Stats          core.Stats  `yaml:"stats"`
	Agents         []agentPlan `yaml:"agents"`
}

type agentPlan struct {
	ID       int      `yaml:"id"`
	Sequence []int    `yaml:"sequence"`
	Path     []string `yaml:"path,flow"`
}

func newPlanFile(variant string, sol *core.Solution, runtime time.Duration) planFile {
	plan := planFile{
		Variant:        variant,
		Cost:           sol.Cost,
		AllocationCost: sol.AllocationCost,
		Runtime:        runtime.Round(time.Microsecond).String(),
		Stats:          sol.Stats,
	}
	for _, id := range sol.AgentIDs() {
		ap := agentPlan{ID: int(id), Sequence: sol.Sequences[id]}
		for _, pos := range sol.Paths[id] {
			ap.Path = append(ap.Path, fmt.Sprintf("%d:%s", pos.Loc, pos.Heading))
		}
		plan.Agents = append(plan.Agents, ap)
	}
	return plan
}

// loadInstance reads an instance file and applies the config overrides.
func loadInstance(path string) (*core.Instance, error) {
	inst, err := config.LoadInstance(path, cfg.DefaultDelay)
	if err != nil {
		return nil, err
	}
	cfg.Apply(inst)
	return inst, nil
}

// solveInstance plans inst with the configured solver.
func solveInstance(cmd *cobra.Command, inst *core.Instance) (*core.Solution, time.Duration, error) {
	if solveVariant != "" {
		cfg.Variant = solveVariant
		if err := cfg.Validate(); err != nil {
			return nil, 0, err
		}
	}
	solver, err := cfg.Solver(logger)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := solveContext(cmd.Context())
	defer cancel()

	start := time.Now()
	sol, err := solver.Solve(ctx, inst)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("%s: %w", solver.Name(), err)
	}
	logger.Info("plan ready",
		slog.String("variant", solver.Name()),
		slog.Int("cost", sol.Cost),
		slog.Int("allocation_cost", sol.AllocationCost),
		slog.Int("roots", sol.Stats.Roots),
		slog.Int("conflicts", sol.Stats.ConflictsResolved),
		slog.Duration("runtime", elapsed),
	)
	return sol, elapsed, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	sol, elapsed, err := solveInstance(cmd, inst)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if solveOut != "" {
		f, err := os.Create(solveOut)
		if err != nil {
			return fmt.Errorf("create plan file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(newPlanFile(cfg.Variant, sol, elapsed)); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return enc.Close()
}
