package core

import "sort"

// Path is the sequence of positions an agent occupies, one per timestep
// starting at 0. Its cost is the number of steps.
type Path []Position

// Cost returns len(p)-1, or 0 for an empty path.
func (p Path) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// At returns the position at time t. Agents rest at their last position.
func (p Path) At(t int) Position {
	if t >= len(p) {
		return p[len(p)-1]
	}
	return p[t]
}

// Locs returns the cell sequence of the path.
func (p Path) Locs() []int {
	locs := make([]int, len(p))
	for i, pos := range p {
		locs[i] = pos.Loc
	}
	return locs
}

// Stats are the planner's diagnostic counters.
type Stats struct {
	OracleCalls       int `yaml:"oracle_calls"`
	LowLevelCalls     int `yaml:"lowlevel_calls"`
	// Roots counts allocations pulled, including ones whose root failed
	// to plan.
	Roots             int `yaml:"roots"`
	ConflictsResolved int `yaml:"conflicts"`
	Expansions        int `yaml:"expansions"`
}

// Solution is a certified plan.
type Solution struct {
	Paths map[AgentID]Path
	// Sequences holds the waypoint sequence each path was planned for.
	Sequences map[AgentID][]int
	// AllocationCost is the travel-cost lower bound of the allocation.
	AllocationCost int
	Cost           int
	Stats          Stats
	Feasible       bool
}

// NewSolution creates an empty solution.
func NewSolution() *Solution {
	return &Solution{
		Paths:     make(map[AgentID]Path),
		Sequences: make(map[AgentID][]int),
	}
}

// SumOfCosts returns the total path cost.
func (s *Solution) SumOfCosts() int {
	total := 0
	for _, p := range s.Paths {
		total += p.Cost()
	}
	return total
}

// Makespan returns the longest path cost.
func (s *Solution) Makespan() int {
	maxC := 0
	for _, p := range s.Paths {
		if c := p.Cost(); c > maxC {
			maxC = c
		}
	}
	return maxC
}

// AgentIDs returns the IDs with a path, ascending.
func (s *Solution) AgentIDs() []AgentID {
	ids := make([]AgentID, 0, len(s.Paths))
	for id := range s.Paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
