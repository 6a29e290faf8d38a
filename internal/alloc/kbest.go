package alloc

import (
	"container/heap"
	"fmt"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// Oracle returns the k-th cheapest allocation for increasing k.
//
// Enumeration follows Lawler: once the i-th best allocation with edges
// e1..en is fixed, the remaining space is partitioned into subproblems that
// include e1..e(j-1) and exclude ej, each solved exactly.
type Oracle struct {
	starts   []core.Position
	goals    []int
	headings bool
	maxGoals int
	cost     [][]int32

	found   []Allocation
	open    candidateHeap
	started bool
	seq     uint64
	calls   int
}

// NewOracle builds an allocation oracle for the given agents and goals.
func NewOracle(starts []core.Position, goals []int, d Distances, opts ...Option) (*Oracle, error) {
	o := &Oracle{
		starts:   starts,
		goals:    goals,
		maxGoals: DefaultMaxGoals,
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("allocation needs at least one agent")
	}
	if o.maxGoals > hardGoalLimit {
		o.maxGoals = hardGoalLimit
	}
	if len(goals) > o.maxGoals {
		return nil, fmt.Errorf("%w: %d goals, limit %d", ErrTooManyGoals, len(goals), o.maxGoals)
	}
	o.buildCosts(d)
	return o, nil
}

// Allocation returns the k-th best allocation (k starts at 1). Costs are
// non-decreasing in k; past the last allocation the result is Exhausted.
func (o *Oracle) Allocation(k int) (Allocation, error) {
	if k < 1 {
		return Allocation{}, fmt.Errorf("allocation rank %d out of range", k)
	}
	if !o.started {
		o.started = true
		o.push(o.solve(constraints{}), constraints{})
	}
	for len(o.found) < k {
		if o.open.Len() == 0 {
			return exhausted(), nil
		}
		best := heap.Pop(&o.open).(*candidate)
		o.found = append(o.found, best.alloc)
		o.branch(best)
	}
	return o.found[k-1], nil
}

// Calls returns how many times the exact solver ran.
func (o *Oracle) Calls() int {
	return o.calls
}

// Cost returns the travel cost of edge e.
func (o *Oracle) Cost(e Edge) int {
	return o.edgeCost(e)
}

func (o *Oracle) branch(c *candidate) {
	edges := c.alloc.Edges
	for i, e := range edges {
		child := constraints{
			include: append(append([]Edge{}, c.cons.include...), edges[:i]...),
			exclude: append(append([]Edge{}, c.cons.exclude...), e),
		}
		o.push(o.solve(child), child)
	}
}

func (o *Oracle) push(a Allocation, c constraints) {
	if a.Exhausted() || !satisfies(a, c) {
		return
	}
	o.seq++
	heap.Push(&o.open, &candidate{alloc: a, cons: c, seq: o.seq})
}

func satisfies(a Allocation, c constraints) bool {
	used := make(map[Edge]bool, len(a.Edges))
	for _, e := range a.Edges {
		used[e] = true
	}
	for _, e := range c.include {
		if !used[e] {
			return false
		}
	}
	for _, e := range c.exclude {
		if used[e] {
			return false
		}
	}
	return true
}

type candidate struct {
	alloc Allocation
	cons  constraints
	seq   uint64
	index int
}

type candidateHeap []*candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].alloc.Cost != h[j].alloc.Cost {
		return h[i].alloc.Cost < h[j].alloc.Cost
	}
	return h[i].seq < h[j].seq
}
func (h candidateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *candidateHeap) Push(x any) {
	c := x.(*candidate)
	c.index = len(*h)
	*h = append(*h, c)
}
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.index = -1
	*h = old[:n-1]
	return c
}
