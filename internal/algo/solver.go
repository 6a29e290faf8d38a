// Package algo implements delay-robust conflict-based search over task
// allocations and the single-agent search it drives.
package algo

import (
	"context"
	"errors"
	"sort"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// ErrNoSolution is returned when the search space is exhausted without a
// certified plan.
var ErrNoSolution = errors.New("no feasible p-robust plan")

// Solver is the interface for planning algorithms.
type Solver interface {
	// Solve plans paths for every agent of inst.
	Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error)

	// Name returns the algorithm name.
	Name() string
}

// Conflict is two agents competing for one resource.
type Conflict struct {
	Agent1, Agent2 core.AgentID
	Resource       Resource
	// Time1 and Time2 are when each agent uses the resource. They are
	// equal for conflicts found on the nominal schedule.
	Time1, Time2 int
	// Delta is |Time1-Time2|, the offset a delay must cover to collide.
	Delta int
	// Time is the earlier of the two times.
	Time int
}

func newConflict(a1, a2 core.AgentID, r Resource, t1, t2 int) *Conflict {
	delta, earliest := t1-t2, t2
	if delta < 0 {
		delta, earliest = -delta, t1
	}
	return &Conflict{
		Agent1:   a1,
		Agent2:   a2,
		Resource: r,
		Time1:    t1,
		Time2:    t2,
		Delta:    delta,
		Time:     earliest,
	}
}

// sortedAgentIDs returns sorted agent IDs from paths map.
func sortedAgentIDs(paths map[core.AgentID]core.Path) []core.AgentID {
	agents := make([]core.AgentID, 0, len(paths))
	for id := range paths {
		agents = append(agents, id)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i] < agents[j]
	})
	return agents
}

func clonePaths(paths map[core.AgentID]core.Path) map[core.AgentID]core.Path {
	out := make(map[core.AgentID]core.Path, len(paths))
	for id, p := range paths {
		out[id] = p
	}
	return out
}
