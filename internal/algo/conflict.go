package algo

import (
	"container/heap"
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// DefaultConflictSeed seeds the delay-tolerant tiebreak.
const DefaultConflictSeed = 42

// ConflictDetector picks the next conflict to branch on.
type ConflictDetector struct {
	delayTolerant bool
	rng           *rand.Rand
}

// NewConflictDetector creates a detector. Exact mode compares agents on the
// nominal schedule; delay-tolerant mode also reports resources the agents
// use at different times, nearest in time first.
func NewConflictDetector(delayTolerant bool, seed int64) *ConflictDetector {
	return &ConflictDetector{
		delayTolerant: delayTolerant,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Find returns the conflict to resolve next, or nil. Conflicts already
// settled by a positive constraint of the pair are skipped.
func (d *ConflictDetector) Find(paths map[core.AgentID]core.Path, pos map[core.AgentID][]PositiveConstraint) *Conflict {
	if d.delayTolerant {
		return d.findDelayed(paths, pos)
	}
	return FindExactConflict(paths, pos)
}

func settled(pos map[core.AgentID][]PositiveConstraint, a1, a2 core.AgentID, r Resource, t1, t2 int) bool {
	for _, agent := range []core.AgentID{a1, a2} {
		for _, p := range pos[agent] {
			if p.covers(a1, a2, r, t1, t2) {
				return true
			}
		}
	}
	return false
}

// FindExactConflict returns the first conflict on the nominal schedule.
// Pairs are scanned in ascending ID order. Within a pair the earliest
// vertex conflict wins over any edge conflict, and edge conflicts are
// ordered by arrival time. A finished agent no longer occupies its cell.
func FindExactConflict(paths map[core.AgentID]core.Path, pos map[core.AgentID][]PositiveConstraint) *Conflict {
	agents := sortedAgentIDs(paths)

	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			a1, a2 := agents[i], agents[j]
			p1, p2 := paths[a1], paths[a2]
			horizon := min(len(p1), len(p2))

			for t := 0; t < horizon; t++ {
				loc := p1[t].Loc
				if loc == p2[t].Loc && !settled(pos, a1, a2, Vertex(loc), t, t) {
					return newConflict(a1, a2, Vertex(loc), t, t)
				}
			}
			for t := 1; t < horizon; t++ {
				from, to := p1[t-1].Loc, p1[t].Loc
				if from == to || p2[t-1].Loc != to || p2[t].Loc != from {
					continue
				}
				if r := Edge(from, to); !settled(pos, a1, a2, r, t, t) {
					return newConflict(a1, a2, r, t, t)
				}
			}
		}
	}

	return nil
}

// traversal is a directed move arriving at its time.
type traversal struct {
	from, to int
}

// firstVisits returns the first time each cell is occupied and each
// directed edge is traversed.
func firstVisits(p core.Path) (map[int]int, map[traversal]int) {
	locs := make(map[int]int, len(p))
	edges := make(map[traversal]int, len(p))
	for t, pos := range p {
		if _, ok := locs[pos.Loc]; !ok {
			locs[pos.Loc] = t
		}
		if t == 0 || p[t-1].Loc == pos.Loc {
			continue
		}
		e := traversal{from: p[t-1].Loc, to: pos.Loc}
		if _, ok := edges[e]; !ok {
			edges[e] = t
		}
	}
	return locs, edges
}

type candidate struct {
	conflict *Conflict
	tiebreak float64
}

type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	a, b := h[i].conflict, h[j].conflict
	if a.Delta != b.Delta {
		return a.Delta < b.Delta
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return h[i].tiebreak < h[j].tiebreak
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)   { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (d *ConflictDetector) findDelayed(paths map[core.AgentID]core.Path, pos map[core.AgentID][]PositiveConstraint) *Conflict {
	agents := sortedAgentIDs(paths)
	locTimes := make([]map[int]int, len(agents))
	edgeTimes := make([]map[traversal]int, len(agents))
	for i, id := range agents {
		locTimes[i], edgeTimes[i] = firstVisits(paths[id])
	}

	pq := &candidateHeap{}
	add := func(a1, a2 core.AgentID, r Resource, t1, t2 int) {
		if settled(pos, a1, a2, r, t1, t2) {
			return
		}
		*pq = append(*pq, candidate{conflict: newConflict(a1, a2, r, t1, t2), tiebreak: d.rng.Float64()})
	}

	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			a1, a2 := agents[i], agents[j]

			locs := make([]int, 0, len(locTimes[i]))
			for loc := range locTimes[i] {
				if _, ok := locTimes[j][loc]; ok {
					locs = append(locs, loc)
				}
			}
			sort.Ints(locs)
			for _, loc := range locs {
				add(a1, a2, Vertex(loc), locTimes[i][loc], locTimes[j][loc])
			}

			moves := make([]traversal, 0, len(edgeTimes[i]))
			for e := range edgeTimes[i] {
				if _, ok := edgeTimes[j][traversal{from: e.to, to: e.from}]; ok {
					moves = append(moves, e)
				}
			}
			sort.Slice(moves, func(x, y int) bool {
				if moves[x].from != moves[y].from {
					return moves[x].from < moves[y].from
				}
				return moves[x].to < moves[y].to
			})
			for _, e := range moves {
				add(a1, a2, Edge(e.from, e.to), edgeTimes[i][e], edgeTimes[j][traversal{from: e.to, to: e.from}])
			}
		}
	}

	if pq.Len() == 0 {
		return nil
	}
	heap.Init(pq)
	return heap.Pop(pq).(candidate).conflict
}
