package algo

import (
	"container/heap"
	"errors"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/oracle"
)

// ErrNoPath is returned when no path visits the waypoints under the
// agent's constraints.
var ErrNoPath = errors.New("no constrained path")

// Distances is the headingless distance oracle used by the heuristic.
type Distances interface {
	Dist(from, to int) int
}

// stateKey is a search state without its time. The same key can be
// expanded again after a forced wait invalidates it.
type stateKey struct {
	pos    core.Position
	prefix int
}

// astarNode for priority queue.
type astarNode struct {
	key    stateKey
	g      int // cost so far, equal to the arrival time
	f      int // g + h
	seq    uint64
	parent *astarNode
	index  int // heap index
}

// astarHeap implements heap.Interface.
type astarHeap []*astarNode

func (h astarHeap) Len() int { return len(h) }
func (h astarHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g > h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h astarHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *astarHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *astarHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// visitedArena records the cost at which each state key was expanded.
type visitedArena struct {
	cost map[stateKey]int
}

func newVisitedArena() *visitedArena {
	return &visitedArena{cost: make(map[stateKey]int)}
}

func (a *visitedArena) closed(k stateKey) bool {
	_, ok := a.cost[k]
	return ok
}

// commit closes k at cost g. It fails if k is already closed.
func (a *visitedArena) commit(k stateKey, g int) bool {
	if a.closed(k) {
		return false
	}
	a.cost[k] = g
	return true
}

// invalidate reopens k so it can be expanded again at a later time.
func (a *visitedArena) invalidate(k stateKey) {
	delete(a.cost, k)
}

// LowLevel is the constrained multi-waypoint search for a single agent.
// In heading-aware mode an agent moves only forward and turns in place;
// otherwise it steps to any of the four neighbours.
type LowLevel struct {
	grid     *core.Grid
	dist     Distances
	headings bool
	calls    int
}

// NewLowLevel creates a path search over g.
func NewLowLevel(g *core.Grid, dist Distances, headings bool) *LowLevel {
	return &LowLevel{grid: g, dist: dist, headings: headings}
}

// Calls returns how many searches have run.
func (l *LowLevel) Calls() int {
	return l.calls
}

// Plan finds the cheapest path from start that visits waypoints in order
// while respecting the agent's constraints. waypoints[0] is the start cell.
func (l *LowLevel) Plan(agent core.AgentID, start core.Position, waypoints []int, neg []Constraint, pos []PositiveConstraint) (core.Path, error) {
	l.calls++

	prefix := advance(waypoints, 1, start.Loc)
	if prefix >= len(waypoints) {
		return core.Path{start}, nil
	}

	// suffix[i] is the distance from waypoint i through the last one.
	suffix := make([]int, len(waypoints)+1)
	for i := len(waypoints) - 2; i >= 0; i-- {
		d := l.dist.Dist(waypoints[i], waypoints[i+1])
		if d >= oracle.Unreachable {
			return nil, ErrNoPath
		}
		suffix[i] = suffix[i+1] + d
	}
	heuristic := func(loc, prefix int) int {
		return l.dist.Dist(loc, waypoints[prefix]) + suffix[prefix]
	}
	if heuristic(start.Loc, prefix) >= oracle.Unreachable {
		return nil, ErrNoPath
	}

	cons := newConstraintIndex(agent, neg, pos)
	visited := newVisitedArena()
	open := &astarHeap{}
	heap.Init(open)

	var seq uint64
	push := func(parent *astarNode, p core.Position, prefix int) {
		prefix = advance(waypoints, prefix, p.Loc)
		key := stateKey{pos: p, prefix: prefix}
		if visited.closed(key) {
			return
		}
		g := parent.g + 1
		h := 0
		if prefix < len(waypoints) {
			h = heuristic(p.Loc, prefix)
		}
		seq++
		heap.Push(open, &astarNode{key: key, g: g, f: g + h, seq: seq, parent: parent})
	}

	heap.Push(open, &astarNode{
		key: stateKey{pos: start, prefix: prefix},
		f:   heuristic(start.Loc, prefix),
	})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*astarNode)
		if !visited.commit(cur.key, cur.g) {
			continue
		}
		if cur.key.prefix == len(waypoints) {
			return reconstructPath(cur), nil
		}

		loc, h := cur.key.pos.Loc, cur.key.pos.Heading
		t := cur.g + 1
		stay := cons.check(loc, loc, t)

		if l.headings {
			fwd := moveWall
			next, ok := l.grid.Step(loc, h)
			if ok {
				fwd = cons.check(loc, next, t)
			}
			if fwd == moveOK {
				push(cur, core.At(next, h), cur.key.prefix)
			}
			if stay == moveOK {
				push(cur, core.At(loc, h.Left()), cur.key.prefix)
				push(cur, core.At(loc, h.Right()), cur.key.prefix)
				if fwd == moveBlocked {
					visited.invalidate(cur.key)
					push(cur, cur.key.pos, cur.key.prefix)
				}
			}
			continue
		}

		blocked := false
		for dir := core.East; dir <= core.North; dir++ {
			next, ok := l.grid.Step(loc, dir)
			if !ok {
				continue
			}
			switch cons.check(loc, next, t) {
			case moveOK:
				push(cur, core.At(next, h), cur.key.prefix)
			case moveBlocked:
				blocked = true
			}
		}
		if blocked && stay == moveOK {
			visited.invalidate(cur.key)
			push(cur, cur.key.pos, cur.key.prefix)
		}
	}

	return nil, ErrNoPath
}

// advance moves the matched prefix past every consecutive waypoint equal
// to loc, starting at index prefix.
func advance(waypoints []int, prefix, loc int) int {
	for prefix < len(waypoints) && waypoints[prefix] == loc {
		prefix++
	}
	return prefix
}

// reconstructPath builds path from goal node back to start.
func reconstructPath(node *astarNode) core.Path {
	var path core.Path
	for n := node; n != nil; n = n.parent {
		path = append(path, n.key.pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
