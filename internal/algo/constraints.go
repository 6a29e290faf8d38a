package algo

import (
	"fmt"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// ResourceKind distinguishes cells from edges.
type ResourceKind int

const (
	VertexResource ResourceKind = iota
	EdgeResource
)

// Resource is a cell or an undirected edge between two adjacent cells.
// Edges are normalized so that A < B.
type Resource struct {
	Kind ResourceKind
	A, B int
}

// Vertex returns the resource for cell loc.
func Vertex(loc int) Resource {
	return Resource{Kind: VertexResource, A: loc, B: loc}
}

// Edge returns the resource for the edge between u and v.
func Edge(u, v int) Resource {
	if u > v {
		u, v = v, u
	}
	return Resource{Kind: EdgeResource, A: u, B: v}
}

// IsEdge reports whether r is an edge.
func (r Resource) IsEdge() bool {
	return r.Kind == EdgeResource
}

// usedBy reports whether moving from loc to after occupies r on arrival.
func (r Resource) usedBy(loc, after int) bool {
	if r.Kind == VertexResource {
		return r.A == after
	}
	return loc != after && r == Edge(loc, after)
}

func (r Resource) String() string {
	if r.IsEdge() {
		return fmt.Sprintf("edge(%d,%d)", r.A, r.B)
	}
	return fmt.Sprintf("vertex(%d)", r.A)
}

// Constraint forbids an agent from using a resource at a time. For an
// edge, the time is the arrival step of the traversal.
type Constraint struct {
	Agent    core.AgentID
	Resource Resource
	Time     int
}

// PositiveConstraint records that a conflict between two agents was
// resolved by fixing when each uses the resource instead of forbidding it.
type PositiveConstraint struct {
	Agent1, Agent2 core.AgentID
	Resource       Resource
	Time1, Time2   int
}

// TimeOf returns the time the constraint binds agent to the resource.
func (p PositiveConstraint) TimeOf(agent core.AgentID) (int, bool) {
	switch agent {
	case p.Agent1:
		return p.Time1, true
	case p.Agent2:
		return p.Time2, true
	}
	return 0, false
}

// covers reports whether p already settles the conflict between a1 and a2
// over r at times t1, t2, in either agent order.
func (p PositiveConstraint) covers(a1, a2 core.AgentID, r Resource, t1, t2 int) bool {
	if p.Resource != r {
		return false
	}
	return (p.Agent1 == a1 && p.Agent2 == a2 && p.Time1 == t1 && p.Time2 == t2) ||
		(p.Agent1 == a2 && p.Agent2 == a1 && p.Time1 == t2 && p.Time2 == t1)
}

type timedResource struct {
	res  Resource
	time int
}

// moveCheck classifies a transition for the path search.
type moveCheck int

const (
	moveOK moveCheck = iota
	// moveWall cannot be fixed by waiting.
	moveWall
	// moveBlocked is forbidden at this time only.
	moveBlocked
)

// constraintIndex answers legality queries for one agent's constraints.
type constraintIndex struct {
	neg map[timedResource]struct{}
	pos map[int][]Resource
}

func newConstraintIndex(agent core.AgentID, neg []Constraint, pos []PositiveConstraint) *constraintIndex {
	idx := &constraintIndex{
		neg: make(map[timedResource]struct{}, len(neg)),
		pos: make(map[int][]Resource),
	}
	for _, c := range neg {
		if c.Agent == agent {
			idx.neg[timedResource{c.Resource, c.Time}] = struct{}{}
		}
	}
	for _, p := range pos {
		if t, ok := p.TimeOf(agent); ok {
			idx.pos[t] = append(idx.pos[t], p.Resource)
		}
	}
	return idx
}

// check classifies moving from loc to after (equal for a wait or turn),
// arriving at time t. Grid walls are the caller's concern.
func (idx *constraintIndex) check(loc, after, t int) moveCheck {
	for _, r := range idx.pos[t] {
		if !r.usedBy(loc, after) {
			return moveWall
		}
	}
	if _, ok := idx.neg[timedResource{Vertex(after), t}]; ok {
		return moveBlocked
	}
	if loc != after {
		if _, ok := idx.neg[timedResource{Edge(loc, after), t}]; ok {
			return moveBlocked
		}
	}
	return moveOK
}
