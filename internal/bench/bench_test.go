package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

type stubSolver struct {
	name  string
	solve func(ctx context.Context) (*core.Solution, error)
}

func (s *stubSolver) Name() string { return s.name }
func (s *stubSolver) Solve(ctx context.Context, _ *core.Instance) (*core.Solution, error) {
	return s.solve(ctx)
}

func stubs() SolverFactory {
	return func(alg string) (algo.Solver, error) {
		switch alg {
		case "ok":
			return &stubSolver{alg, func(context.Context) (*core.Solution, error) {
				sol := core.NewSolution()
				sol.Cost = 5
				sol.Stats.Roots = 1
				return sol, nil
			}}, nil
		case "fail":
			return &stubSolver{alg, func(context.Context) (*core.Solution, error) {
				return nil, algo.ErrNoSolution
			}}, nil
		case "slow":
			return &stubSolver{alg, func(ctx context.Context) (*core.Solution, error) {
				<-ctx.Done()
				return nil, fmt.Errorf("slow: %w", ctx.Err())
			}}, nil
		}
		return nil, fmt.Errorf("unknown algorithm %q", alg)
	}
}

func realSolvers(alg string) (algo.Solver, error) {
	if alg == "prioritized" {
		return algo.NewPrioritized(false), nil
	}
	v, err := core.ParseVariant(alg)
	if err != nil {
		return nil, err
	}
	return algo.NewRCBSS(v), nil
}

func cases(t *testing.T, g *core.Grid, n, agents, goals int) []Case {
	t.Helper()
	layouts, err := Generate(g, n, agents, goals, 7)
	require.NoError(t, err)
	out := make([]Case, n)
	for i, l := range layouts {
		inst, err := l.Instance(g, agents, goals, 0, 0.9)
		require.NoError(t, err)
		out[i] = Case{Map: "open", Index: i, Instance: inst}
	}
	return out
}

func TestGenerateIsSeeded(t *testing.T) {
	g := core.NewGrid(6, 6)
	g.Block(7)
	a, err := Generate(g, 3, 4, 6, 1)
	require.NoError(t, err)
	b, err := Generate(g, 3, 4, 6, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, l := range a {
		used := make(map[int]bool)
		for _, s := range l.Starts {
			assert.True(t, g.Passable(s.Loc))
			assert.True(t, s.Heading.Valid())
			assert.False(t, used[s.Loc])
			used[s.Loc] = true
		}
		for _, goal := range l.Goals {
			assert.True(t, g.Passable(goal))
			assert.False(t, used[goal], "goal %d overlaps", goal)
			used[goal] = true
		}
	}
}

func TestLayoutPrefixes(t *testing.T) {
	g := core.NewGrid(5, 5)
	layouts, err := Generate(g, 1, 4, 6, 3)
	require.NoError(t, err)
	l := layouts[0]

	inst, err := l.Instance(g, 2, 3, 0.1, 0.95)
	require.NoError(t, err)
	require.Len(t, inst.Agents, 2)
	assert.Equal(t, l.Starts[1], inst.Agents[1].Start)
	assert.Equal(t, l.Goals[:3], inst.Goals)
	assert.Equal(t, 0.1, inst.Agents[0].DelayProb)
	assert.Equal(t, 0.95, inst.NoCollisionProb)

	_, err = l.Instance(g, 5, 1, 0, 0.9)
	assert.Error(t, err)
	_, err = Generate(core.NewGrid(2, 2), 1, 3, 3, 1)
	assert.Error(t, err)
}

func TestRunnerSolvesSmallCases(t *testing.T) {
	g := core.NewGrid(4, 4)
	inst := core.NewInstance(g)
	inst.AddAgent(0, core.East, 0)
	inst.AddAgent(15, core.West, 0)
	inst.Goals = []int{1, 2, 14}

	r := &Runner{
		Algorithms: []string{"cbss", "prioritized"},
		NewSolver:  realSolvers,
		Workers:    2,
		Timeout:    10 * time.Second,
		SimRuns:    20,
	}
	records, err := r.Run(context.Background(), []Case{{Map: "open", Instance: inst}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Equal(t, StatusSolved, rec.Status, rec.Algorithm)
		assert.Equal(t, 3, rec.Cost)
		assert.Equal(t, 1.0, rec.SuccessRate)
		assert.Equal(t, 1, rec.Instance)
		_, err := uuid.Parse(rec.RunID)
		assert.NoError(t, err)
	}
	assert.Equal(t, records[0].RunID, records[1].RunID)
}

func TestRunnerSkipsDominatedTiers(t *testing.T) {
	g := core.NewGrid(4, 4)
	small := cases(t, g, 2, 1, 1)
	large := cases(t, g, 2, 2, 3)

	r := &Runner{Algorithms: []string{"fail", "ok"}, NewSolver: stubs(), Workers: 4}
	records, err := r.Run(context.Background(), append(large, small...))
	require.NoError(t, err)
	require.Len(t, records, 8)

	status := make(map[string][]string)
	for _, rec := range records {
		key := fmt.Sprintf("%s/%d", rec.Algorithm, rec.Agents)
		status[key] = append(status[key], rec.Status)
	}
	assert.Equal(t, []string{StatusNoSolution, StatusNoSolution}, status["fail/1"])
	assert.Equal(t, []string{StatusSkipped, StatusSkipped}, status["fail/2"])
	assert.Equal(t, []string{StatusSolved, StatusSolved}, status["ok/2"])
}

func TestRunnerTimeout(t *testing.T) {
	r := &Runner{
		Algorithms: []string{"slow"},
		NewSolver:  stubs(),
		Timeout:    20 * time.Millisecond,
	}
	records, err := r.Run(context.Background(), cases(t, core.NewGrid(3, 3), 1, 1, 1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusTimeout, records[0].Status)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Algorithms: []string{"ok"}, NewSolver: stubs()}
	_, err := r.Run(ctx, cases(t, core.NewGrid(3, 3), 1, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerUnknownAlgorithm(t *testing.T) {
	r := &Runner{Algorithms: []string{"nope"}, NewSolver: stubs()}
	records, err := r.Run(context.Background(), cases(t, core.NewGrid(3, 3), 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusError, records[0].Status)
	assert.Contains(t, records[0].Err, "unknown algorithm")
}

func TestWriteCSV(t *testing.T) {
	records := []Record{
		{RunID: "r", Map: "open", SafeProb: 0.9, Delay: 0.1, Agents: 2, Goals: 3, Instance: 1,
			Algorithm: "cbss", Status: StatusSolved, Runtime: 1500 * time.Millisecond,
			OracleCalls: 2, LowLevelCalls: 7, Roots: 1, Conflicts: 3, Cost: 12, SuccessRate: -1},
		{RunID: "r", Map: "open", SafeProb: 0.9, Delay: 0.1, Agents: 2, Goals: 3, Instance: 2,
			Algorithm: "cbss", Status: StatusTimeout, SuccessRate: -1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"r", "open", "0.9", "0.1", "2", "3", "1", "cbss", "solved",
		"1.50000", "2", "7", "1", "3", "12", ""}, rows[1])
	assert.Equal(t, "timeout", rows[2][8])
	assert.Equal(t, "", rows[2][9])
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Algorithm: "b", Status: StatusSolved, Cost: 4, Roots: 1, Runtime: time.Second, SuccessRate: 1},
		{Algorithm: "b", Status: StatusSolved, Cost: 6, Roots: 3, Runtime: 3 * time.Second, SuccessRate: -1},
		{Algorithm: "a", Status: StatusSkipped},
		{Algorithm: "b", Status: StatusTimeout},
	}
	sums := Summarize(records)
	require.Len(t, sums, 2)
	assert.Equal(t, "a", sums[0].Algorithm)
	assert.Equal(t, 1, sums[0].Skipped)

	b := sums[1]
	assert.Equal(t, 3, b.Runs)
	assert.Equal(t, 2, b.Solved)
	assert.Equal(t, 1, b.Timeouts)
	assert.InDelta(t, 5.0, b.AvgCost, 1e-9)
	assert.InDelta(t, 2.0, b.AvgRuntime, 1e-9)
	assert.InDelta(t, 2.0, b.AvgRoots, 1e-9)
	assert.InDelta(t, 1.0, b.AvgSuccess, 1e-9)

	var buf bytes.Buffer
	WriteSummary(&buf, records)
	assert.Contains(t, buf.String(), "BENCHMARK SUMMARY")
}
