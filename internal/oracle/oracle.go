// Package oracle answers shortest-path distance queries on a grid.
//
// Headingless distances come from a breadth-first search rooted at the
// target cell; the grid is undirected so one table per target serves every
// source. Heading-aware distances search the (cell, heading) state space,
// where a forward step and a quarter turn both cost 1.
package oracle

import (
	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// Unreachable is the distance reported between disconnected cells.
const Unreachable = 1 << 30

// Oracle caches BFS tables for one grid. It is not safe for concurrent use.
type Oracle struct {
	grid    *core.Grid
	toCell  map[int][]int
	fromPos map[core.Position][]int
}

// New creates an oracle for g.
func New(g *core.Grid) *Oracle {
	return &Oracle{
		grid:    g,
		toCell:  make(map[int][]int),
		fromPos: make(map[core.Position][]int),
	}
}

// Grid returns the grid the oracle was built for.
func (o *Oracle) Grid() *core.Grid {
	return o.grid
}

// Dist returns the headingless shortest-path length between two cells.
func (o *Oracle) Dist(from, to int) int {
	if !o.grid.Passable(from) || !o.grid.Passable(to) {
		return Unreachable
	}
	table, ok := o.toCell[to]
	if !ok {
		table = o.bfs(to)
		o.toCell[to] = table
	}
	return table[from]
}

// Precompute fills the tables for the given targets.
func (o *Oracle) Precompute(targets []int) {
	for _, t := range targets {
		o.Dist(t, t)
	}
}

// HeadingDist returns the shortest-path length between two oriented
// positions, counting each quarter turn as one step.
func (o *Oracle) HeadingDist(from, to core.Position) int {
	if !o.grid.Passable(from.Loc) || !o.grid.Passable(to.Loc) {
		return Unreachable
	}
	return o.headingTable(from)[stateIndex(to)]
}

// HeadingDistToCell returns the cheapest oriented path length from a
// position to a cell, with any arrival heading.
func (o *Oracle) HeadingDistToCell(from core.Position, to int) int {
	if !o.grid.Passable(from.Loc) || !o.grid.Passable(to) {
		return Unreachable
	}
	table := o.headingTable(from)
	best := Unreachable
	for h := core.East; h <= core.North; h++ {
		if d := table[stateIndex(core.At(to, h))]; d < best {
			best = d
		}
	}
	return best
}

func (o *Oracle) bfs(target int) []int {
	dist := make([]int, o.grid.Size())
	for i := range dist {
		dist[i] = Unreachable
	}
	dist[target] = 0
	queue := []int{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range o.grid.Neighbors(cur) {
			if dist[next] == Unreachable {
				dist[next] = dist[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}

func stateIndex(p core.Position) int {
	return p.Loc*4 + int(p.Heading)
}

func (o *Oracle) headingTable(from core.Position) []int {
	if table, ok := o.fromPos[from]; ok {
		return table
	}
	dist := make([]int, o.grid.Size()*4)
	for i := range dist {
		dist[i] = Unreachable
	}
	dist[stateIndex(from)] = 0
	queue := []core.Position{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[stateIndex(cur)] + 1
		succ := [3]core.Position{
			core.At(cur.Loc, cur.Heading.Left()),
			core.At(cur.Loc, cur.Heading.Right()),
			{Loc: -1},
		}
		if next, ok := o.grid.Step(cur.Loc, cur.Heading); ok {
			succ[2] = core.At(next, cur.Heading)
		}
		for _, s := range succ {
			if s.Loc < 0 {
				continue
			}
			if idx := stateIndex(s); dist[idx] == Unreachable {
				dist[idx] = d
				queue = append(queue, s)
			}
		}
	}
	o.fromPos[from] = dist
	return dist
}
