package algo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func TestFindExactConflict_NoConflict(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2),
		1: path(8, 7, 6),
	}
	assert.Nil(t, FindExactConflict(paths, nil))
}

func TestFindExactConflict_VertexConflict(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 5, 6, 10, 11, 15),
		1: path(15, 11, 10, 6, 5, 1, 0),
	}
	c := FindExactConflict(paths, nil)
	require.NotNil(t, c)
	assert.Equal(t, Vertex(6), c.Resource)
	assert.Equal(t, 3, c.Time1)
	assert.Equal(t, 3, c.Time2)
	assert.Equal(t, 0, c.Delta)
}

func TestFindExactConflict_EdgeConflict(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2, 3),
		1: path(3, 2, 1, 0),
	}
	c := FindExactConflict(paths, nil)
	require.NotNil(t, c)
	assert.Equal(t, Edge(1, 2), c.Resource)
	assert.Equal(t, 2, c.Time1)
	assert.Equal(t, core.AgentID(0), c.Agent1)
	assert.Equal(t, core.AgentID(1), c.Agent2)
}

func TestFindExactConflict_VertexBeforeEdge(t *testing.T) {
	// The swap on edge (0,1) at t=1 comes before the vertex conflict on
	// cell 1 at t=2, but vertex conflicts win within a pair.
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 1),
		1: path(1, 0, 1),
	}
	c := FindExactConflict(paths, nil)
	require.NotNil(t, c)
	assert.Equal(t, Vertex(1), c.Resource)
	assert.Equal(t, 2, c.Time1)
}

func TestFindExactConflict_PairOrder(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2),
		1: path(9, 5, 4),
		2: path(3, 4, 5),
		3: path(7, 6, 2),
	}
	// (0,3) meet on cell 2 and (1,2) swap on edge (4,5); pair (0,3) is scanned first.
	c := FindExactConflict(paths, nil)
	require.NotNil(t, c)
	assert.Equal(t, core.AgentID(0), c.Agent1)
	assert.Equal(t, core.AgentID(3), c.Agent2)
}

func TestFindExactConflict_FinishedAgentsVanish(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1),
		1: path(3, 2, 1),
	}
	assert.Nil(t, FindExactConflict(paths, nil))
}

func TestFindExactConflict_SettledByPositive(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2, 3),
		1: path(3, 2, 1, 0),
	}
	p := PositiveConstraint{Agent1: 1, Agent2: 0, Resource: Edge(1, 2), Time1: 2, Time2: 2}
	pos := map[core.AgentID][]PositiveConstraint{0: {p}, 1: {p}}
	assert.Nil(t, FindExactConflict(paths, pos))
}

func TestDelayedConflictOrdering(t *testing.T) {
	// Cell 5: agent 0 at t=1, agent 1 at t=4 (delta 3).
	// Cell 6: agent 0 at t=2, agent 1 at t=3 (delta 1).
	// Edge (5,6): agent 0 at t=2, agent 1 at t=4 (delta 2).
	paths := map[core.AgentID]core.Path{
		0: path(4, 5, 6, 7),
		1: path(10, 11, 10, 6, 5),
	}
	d := NewConflictDetector(true, DefaultConflictSeed)
	c := d.Find(paths, nil)
	require.NotNil(t, c)
	assert.Equal(t, Vertex(6), c.Resource)
	assert.Equal(t, 1, c.Delta)
	assert.Equal(t, 2, c.Time)
	assert.Equal(t, 2, c.Time1)
	assert.Equal(t, 3, c.Time2)
}

func TestDelayedConflictSkipsSettled(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(4, 5, 6, 7),
		1: path(10, 11, 10, 6, 5),
	}
	p := PositiveConstraint{Agent1: 0, Agent2: 1, Resource: Vertex(6), Time1: 2, Time2: 3}
	pos := map[core.AgentID][]PositiveConstraint{0: {p}, 1: {p}}

	c := NewConflictDetector(true, DefaultConflictSeed).Find(paths, pos)
	require.NotNil(t, c)
	assert.NotEqual(t, Vertex(6), c.Resource)
	assert.Equal(t, 2, c.Delta)
}

func TestDelayedConflictTiebreakIsSeeded(t *testing.T) {
	// Two structurally identical delta-0 conflicts at the same time.
	paths := map[core.AgentID]core.Path{
		0: path(0, 1),
		1: path(2, 1),
		2: path(10, 11),
		3: path(12, 11),
	}
	first := func(seed int64) Resource {
		return NewConflictDetector(true, seed).Find(paths, nil).Resource
	}
	for seed := int64(0); seed < 5; seed++ {
		assert.Equal(t, first(seed), first(seed))
	}

	seen := make(map[Resource]bool)
	for seed := int64(0); seed < 50; seed++ {
		seen[first(seed)] = true
	}
	assert.Len(t, seen, 2)
}

func TestNoSharedResourcesNoConflict(t *testing.T) {
	// Agents confined to disjoint rows never conflict, in either mode.
	g := core.NewGrid(6, 8)
	rng := rand.New(rand.NewSource(7))
	exact := NewConflictDetector(false, 1)
	delayed := NewConflictDetector(true, 1)

	for trial := 0; trial < 50; trial++ {
		paths := make(map[core.AgentID]core.Path)
		for a := 0; a < 6; a++ {
			loc := g.Index(a, rng.Intn(g.Cols))
			p := core.Path{core.At(loc, core.East)}
			for step := 0; step < 12; step++ {
				h := core.East
				if rng.Intn(2) == 0 {
					h = core.West
				}
				if next, ok := g.Step(loc, h); ok && rng.Intn(4) > 0 {
					loc = next
				}
				p = append(p, core.At(loc, core.East))
			}
			paths[core.AgentID(a)] = p
		}
		assert.Nil(t, exact.Find(paths, nil))
		assert.Nil(t, delayed.Find(paths, nil))
	}
}
