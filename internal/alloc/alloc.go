// Package alloc enumerates task allocations in order of travel cost.
//
// An allocation gives every agent an ordered list of goal cells. Its cost is
// the sum of shortest-path distances along each agent's list, starting at the
// agent's own position. Agents do not return to their start.
package alloc

import (
	"errors"
	"fmt"
	"math"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// Infinite is the cost reported once the enumeration is exhausted.
const Infinite = math.MaxInt32

// DefaultMaxGoals bounds the exact solver's bitmask state space.
const DefaultMaxGoals = 12

const hardGoalLimit = 20

// ErrTooManyGoals is returned when the goal count exceeds the solver bound.
var ErrTooManyGoals = errors.New("too many goals for exact allocation")

// Edge is a travel leg between two allocation nodes. Nodes 0..m-1 are the
// agents' start positions and m..m+n-1 are the goals.
type Edge struct {
	From, To int
}

// Allocation is one assignment of goal sequences to agents.
type Allocation struct {
	// Sequences[i] lists agent i's start cell followed by its goals.
	Sequences [][]int
	// Edges are the legs used, agent by agent in visiting order.
	Edges []Edge
	Cost  int
}

// Exhausted reports whether a is the end-of-enumeration sentinel.
func (a Allocation) Exhausted() bool {
	return a.Cost >= Infinite
}

func exhausted() Allocation {
	return Allocation{Cost: Infinite}
}

// Distances is the cost model the solver prices legs with.
type Distances interface {
	Dist(from, to int) int
	HeadingDistToCell(from core.Position, to int) int
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithHeadings prices each agent's first leg with rotation costs.
func WithHeadings(on bool) Option {
	return func(o *Oracle) { o.headings = on }
}

// WithMaxGoals overrides DefaultMaxGoals.
func WithMaxGoals(n int) Option {
	return func(o *Oracle) { o.maxGoals = n }
}

// unreachable matches the distance oracle's disconnected sentinel; any leg at
// or above it is treated as unusable.
const unreachable = 1 << 30

func (o *Oracle) buildCosts(d Distances) {
	m, n := len(o.starts), len(o.goals)
	o.cost = make([][]int32, m+n)
	for u := 0; u < m+n; u++ {
		row := make([]int32, n)
		for j, g := range o.goals {
			var c int
			switch {
			case u < m && o.headings:
				c = d.HeadingDistToCell(o.starts[u], g)
			case u < m:
				c = d.Dist(o.starts[u].Loc, g)
			default:
				c = d.Dist(o.goals[u-m], g)
			}
			if c >= unreachable {
				row[j] = math.MaxInt32
			} else {
				row[j] = int32(c)
			}
		}
		o.cost[u] = row
	}
}

func (o *Oracle) edgeCost(e Edge) int {
	return int(o.cost[e.From][e.To-len(o.starts)])
}

func (e Edge) String() string {
	return fmt.Sprintf("%d->%d", e.From, e.To)
}
