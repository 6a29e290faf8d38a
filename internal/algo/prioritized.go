package algo

import (
	"context"
	"fmt"
	"sort"

	"github.com/elektrokombinacija/robust-cbss/internal/alloc"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/oracle"
)

// Prioritized plans agents one at a time on the cheapest allocation.
// Each agent avoids the cells and edges of every agent planned before it.
// It is a fast baseline with no completeness or robustness guarantee.
type Prioritized struct {
	Headings bool
	MaxGoals int
}

// NewPrioritized creates a prioritized planning solver.
func NewPrioritized(headings bool) *Prioritized {
	return &Prioritized{Headings: headings, MaxGoals: alloc.DefaultMaxGoals}
}

func (p *Prioritized) Name() string { return "prioritized" }

// Solve implements prioritized planning.
func (p *Prioritized) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if inst == nil {
		return nil, fmt.Errorf("%w: nil instance", core.ErrInvalidInstance)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	// Step 1: Cheapest allocation
	dist := oracle.New(inst.Grid)
	starts := make([]core.Position, len(inst.Agents))
	for i, a := range inst.Agents {
		starts[i] = a.Start
	}
	allocs, err := alloc.NewOracle(starts, inst.Goals, dist, alloc.WithHeadings(p.Headings), alloc.WithMaxGoals(p.MaxGoals))
	if err != nil {
		return nil, fmt.Errorf("allocation oracle: %w", err)
	}
	best, err := allocs.Allocation(1)
	if err != nil {
		return nil, err
	}
	if best.Exhausted() {
		return nil, ErrNoSolution
	}

	// Step 2: Compute priority order
	priority := p.computePriority(inst, best, dist)

	// Step 3: Plan paths in priority order
	lowlevel := NewLowLevel(inst.Grid, dist, p.Headings)
	solution := core.NewSolution()
	var reserved []Constraint

	for _, agent := range priority {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("prioritized: %w", err)
		}
		seq := best.Sequences[agent.ID]

		// Plan path avoiding previously planned agents
		mine := make([]Constraint, 0, len(reserved))
		for _, c := range reserved {
			mine = append(mine, Constraint{Agent: agent.ID, Resource: c.Resource, Time: c.Time})
		}
		path, err := lowlevel.Plan(agent.ID, agent.Start, seq, mine, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: agent %d: %v", ErrNoSolution, agent.ID, err)
		}

		solution.Paths[agent.ID] = path
		solution.Sequences[agent.ID] = seq

		// Reserve this agent's cells and edges for lower-priority agents
		for t, pos := range path {
			reserved = append(reserved, Constraint{Resource: Vertex(pos.Loc), Time: t})
			if t > 0 && path[t-1].Loc != pos.Loc {
				reserved = append(reserved, Constraint{Resource: Edge(path[t-1].Loc, pos.Loc), Time: t})
			}
		}
	}

	solution.AllocationCost = best.Cost
	solution.Cost = solution.SumOfCosts()
	solution.Feasible = FindExactConflict(solution.Paths, nil) == nil
	solution.Stats.OracleCalls = allocs.Calls()
	solution.Stats.LowLevelCalls = lowlevel.Calls()
	return solution, nil
}

// computePriority orders agents by descending sequence length, so the
// agents with the longest tours get the most freedom.
func (p *Prioritized) computePriority(inst *core.Instance, a alloc.Allocation, dist *oracle.Oracle) []*core.Agent {
	length := make(map[core.AgentID]int, len(inst.Agents))
	for _, agent := range inst.Agents {
		seq := a.Sequences[agent.ID]
		for i := 1; i < len(seq); i++ {
			length[agent.ID] += dist.Dist(seq[i-1], seq[i])
		}
	}

	agents := make([]*core.Agent, len(inst.Agents))
	copy(agents, inst.Agents)
	sort.SliceStable(agents, func(i, j int) bool {
		return length[agents[i].ID] > length[agents[j].ID]
	})
	return agents
}
