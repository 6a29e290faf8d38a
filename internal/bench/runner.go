package bench

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/logging"
	"github.com/elektrokombinacija/robust-cbss/internal/sim"
)

// Run outcomes.
const (
	StatusSolved     = "solved"
	StatusNoSolution = "no_solution"
	StatusTimeout    = "timeout"
	StatusSkipped    = "skipped"
	StatusError      = "error"
)

// SolverFactory returns a fresh planner for an algorithm name.
type SolverFactory func(algorithm string) (algo.Solver, error)

// Case is one benchmark instance.
type Case struct {
	Map      string
	Index    int
	Delay    float64
	Instance *core.Instance
}

// Record is the outcome of one planner on one case.
type Record struct {
	RunID         string
	Map           string
	SafeProb      float64
	Delay         float64
	Agents        int
	Goals         int
	Instance      int
	Algorithm     string
	Status        string
	Runtime       time.Duration
	OracleCalls   int
	LowLevelCalls int
	Roots         int
	Conflicts     int
	Cost          int
	// SuccessRate is the collision-free fraction of simulated executions,
	// or -1 when no simulation ran.
	SuccessRate float64
	Err         string
}

// Runner solves cases with every algorithm in parallel.
//
// Cases are grouped by (delay, agents, goals) and the groups run in
// increasing order. An algorithm that solved nothing in some group is
// skipped on every group that is at least as large in all three.
type Runner struct {
	Algorithms []string
	NewSolver  SolverFactory
	Workers    int
	Timeout    time.Duration
	// SimRuns is the number of delayed executions per solved case.
	SimRuns int
	Seed    int64
	Logger  *slog.Logger
}

type tier struct {
	delay         float64
	agents, goals int
}

func (t tier) covers(o tier) bool {
	return t.delay <= o.delay && t.agents <= o.agents && t.goals <= o.goals
}

func caseTier(c Case) tier {
	return tier{c.Delay, len(c.Instance.Agents), len(c.Instance.Goals)}
}

// Run executes every (case, algorithm) pair and returns the records in
// case order. On cancellation it returns what finished so far.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Record, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	groups := make(map[tier][]Case)
	var tiers []tier
	for _, c := range cases {
		t := caseTier(c)
		if _, ok := groups[t]; !ok {
			tiers = append(tiers, t)
		}
		groups[t] = append(groups[t], c)
	}
	sort.Slice(tiers, func(i, j int) bool {
		a, b := tiers[i], tiers[j]
		if a.delay != b.delay {
			return a.delay < b.delay
		}
		if a.agents != b.agents {
			return a.agents < b.agents
		}
		return a.goals < b.goals
	})

	failed := make(map[string][]tier)
	var out []Record
	for _, t := range tiers {
		for _, alg := range r.Algorithms {
			records, err := r.runTier(ctx, runID, alg, groups[t], r.dominated(failed[alg], t))
			out = append(out, records...)
			if err != nil {
				return out, err
			}
			solved := 0
			for _, rec := range records {
				if rec.Status == StatusSolved {
					solved++
				}
			}
			if solved == 0 {
				failed[alg] = append(failed[alg], t)
			}
			logger.Info("tier finished",
				slog.String("algorithm", alg),
				slog.Float64("delay", t.delay),
				slog.Int("agents", t.agents),
				slog.Int("goals", t.goals),
				slog.Int("solved", solved),
				slog.Int("cases", len(records)),
			)
		}
	}
	return out, nil
}

func (r *Runner) dominated(failed []tier, t tier) bool {
	for _, f := range failed {
		if f.covers(t) {
			return true
		}
	}
	return false
}

func (r *Runner) runTier(ctx context.Context, runID, alg string, cases []Case, skip bool) ([]Record, error) {
	records := make([]Record, len(cases))
	for i, c := range cases {
		records[i] = newRecord(runID, alg, c)
	}
	if skip {
		for i := range records {
			records[i].Status = StatusSkipped
		}
		return records, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.solve(gctx, c, &records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return records, err
	}
	return records, ctx.Err()
}

func newRecord(runID, alg string, c Case) Record {
	return Record{
		RunID:       runID,
		Map:         c.Map,
		SafeProb:    c.Instance.NoCollisionProb,
		Delay:       c.Delay,
		Agents:      len(c.Instance.Agents),
		Goals:       len(c.Instance.Goals),
		Instance:    c.Index + 1,
		Algorithm:   alg,
		SuccessRate: -1,
	}
}

func (r *Runner) solve(ctx context.Context, c Case, rec *Record) {
	solver, err := r.NewSolver(rec.Algorithm)
	if err != nil {
		rec.Status = StatusError
		rec.Err = err.Error()
		return
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	sol, err := solver.Solve(ctx, c.Instance)
	rec.Runtime = time.Since(start)
	switch {
	case err == nil:
		rec.Status = StatusSolved
	case errors.Is(err, algo.ErrNoSolution):
		rec.Status = StatusNoSolution
		return
	case errors.Is(err, context.DeadlineExceeded):
		rec.Status = StatusTimeout
		return
	default:
		rec.Status = StatusError
		rec.Err = err.Error()
		return
	}

	rec.OracleCalls = sol.Stats.OracleCalls
	rec.LowLevelCalls = sol.Stats.LowLevelCalls
	rec.Roots = sol.Stats.Roots
	rec.Conflicts = sol.Stats.ConflictsResolved
	rec.Cost = sol.Cost
	if r.SimRuns > 0 {
		s := sim.NewSimulator(sim.Config{
			Delays:          c.Instance.DelayProbs(),
			Seed:            r.Seed + int64(c.Index),
			RotateOnExecute: !headingAware(rec.Algorithm),
			Grid:            c.Instance.Grid,
		})
		rec.SuccessRate = s.SuccessRate(sol.Paths, r.SimRuns)
	}
}

// headingAware reports whether alg plans with rotations. Plans from the
// others are executed with the turns they omitted.
func headingAware(alg string) bool {
	v, err := core.ParseVariant(alg)
	return err == nil && v.Headings
}
