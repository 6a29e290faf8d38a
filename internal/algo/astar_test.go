package algo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/oracle"
)

// createGrid creates a rows x cols grid with a fraction of cells blocked.
func createGrid(rng *rand.Rand, rows, cols int, density float64) *core.Grid {
	g := core.NewGrid(rows, cols)
	for loc := 0; loc < g.Size(); loc++ {
		if rng.Float64() < density {
			g.Block(loc)
		}
	}
	return g
}

// reachablePair picks two free cells in the same component.
func reachablePair(rng *rand.Rand, g *core.Grid, o *oracle.Oracle) (int, int, bool) {
	free := g.FreeCells()
	for try := 0; try < 50 && len(free) > 1; try++ {
		a, b := free[rng.Intn(len(free))], free[rng.Intn(len(free))]
		if o.Dist(a, b) < oracle.Unreachable {
			return a, b, true
		}
	}
	return 0, 0, false
}

func TestPlanSingleWaypointMatchesOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 40; trial++ {
		g := createGrid(rng, 8, 9, 0.2)
		o := oracle.New(g)
		start, goal, ok := reachablePair(rng, g, o)
		if !ok {
			continue
		}
		h := core.Heading(rng.Intn(4))

		flat := NewLowLevel(g, o, false)
		p, err := flat.Plan(0, core.At(start, h), []int{start, goal}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, o.Dist(start, goal)+1, len(p))
		requireLegalMoves(t, g, p, false)

		turning := NewLowLevel(g, o, true)
		p, err = turning.Plan(0, core.At(start, h), []int{start, goal}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, o.HeadingDistToCell(core.At(start, h), goal)+1, len(p))
		requireLegalMoves(t, g, p, true)
	}
}

func TestPlanWaypointAtStart(t *testing.T) {
	g := core.NewGrid(3, 3)
	l := NewLowLevel(g, oracle.New(g), true)

	p, err := l.Plan(0, core.At(4, core.North), []int{4}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, core.Path{core.At(4, core.North)}, p)
	assert.Equal(t, 0, p.Cost())

	p, err = l.Plan(0, core.At(4, core.North), []int{4, 4}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, p, 1)
}

func TestPlanVisitsWaypointsInOrder(t *testing.T) {
	g := core.NewGrid(5, 5)
	o := oracle.New(g)
	l := NewLowLevel(g, o, false)

	// Passing 24 on the way to 20 must not count.
	seq := []int{0, 20, 24, 4}
	p, err := l.Plan(0, core.At(0, core.East), seq, nil, nil)
	require.NoError(t, err)
	requireVisitsInOrder(t, p, seq)
	assert.Equal(t, 4+4+4, p.Cost())
	assert.Equal(t, 1, l.Calls())
}

func TestPlanWaitsForVertexConstraint(t *testing.T) {
	g, err := core.ParseRows([]string{"..."})
	require.NoError(t, err)
	o := oracle.New(g)
	neg := []Constraint{{Agent: 0, Resource: Vertex(1), Time: 1}}

	p, err := NewLowLevel(g, o, false).Plan(0, core.At(0, core.East), []int{0, 2}, neg, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 2}, p.Locs())

	p, err = NewLowLevel(g, o, true).Plan(0, core.At(0, core.East), []int{0, 2}, neg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Cost())
	assert.NotEqual(t, 1, p[1].Loc)
	assert.Equal(t, 2, p[3].Loc)
}

func TestPlanIgnoresOtherAgentsConstraints(t *testing.T) {
	g, err := core.ParseRows([]string{"..."})
	require.NoError(t, err)
	neg := []Constraint{{Agent: 1, Resource: Vertex(1), Time: 1}}

	p, err := NewLowLevel(g, oracle.New(g), false).Plan(0, core.At(0, core.East), []int{0, 2}, neg, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, p.Locs())
}

func TestPlanRespectsEdgeConstraint(t *testing.T) {
	g := core.NewGrid(2, 3)
	neg := []Constraint{{Agent: 0, Resource: Edge(0, 1), Time: 1}}

	p, err := NewLowLevel(g, oracle.New(g), false).Plan(0, core.At(0, core.East), []int{0, 2}, neg, nil)
	require.NoError(t, err)
	// Waiting one step beats the detour through row 1.
	assert.Equal(t, []int{0, 0, 1, 2}, p.Locs())
}

func TestPlanPositiveConstraint(t *testing.T) {
	g := core.NewGrid(3, 3)
	pos := []PositiveConstraint{{Agent1: 0, Agent2: 1, Resource: Vertex(4), Time1: 2, Time2: 5}}

	p, err := NewLowLevel(g, oracle.New(g), false).Plan(0, core.At(0, core.East), []int{0, 2}, nil, pos)
	require.NoError(t, err)
	assert.Equal(t, 4, p[2].Loc)
	assert.Equal(t, 4, p.Cost())
}

func TestPlanNeverViolatesNegativeConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 30; trial++ {
		g := createGrid(rng, 7, 7, 0.15)
		o := oracle.New(g)
		start, goal, ok := reachablePair(rng, g, o)
		if !ok || start == goal {
			continue
		}
		headings := trial%2 == 0
		l := NewLowLevel(g, o, headings)
		seq := []int{start, goal}
		var neg []Constraint

		for round := 0; round < 6; round++ {
			p, err := l.Plan(0, core.At(start, core.East), seq, neg, nil)
			if err != nil {
				break
			}
			for _, c := range neg {
				if c.Time >= len(p) {
					continue
				}
				if c.Resource.IsEdge() {
					assert.NotEqual(t, c.Resource, Edge(p[c.Time-1].Loc, p[c.Time].Loc))
				} else {
					assert.NotEqual(t, c.Resource.A, p[c.Time].Loc)
				}
			}
			if len(p) < 2 {
				break
			}
			tm := 1 + rng.Intn(len(p)-1)
			r := Vertex(p[tm].Loc)
			if p[tm-1].Loc != p[tm].Loc && rng.Intn(2) == 0 {
				r = Edge(p[tm-1].Loc, p[tm].Loc)
			}
			neg = append(neg, Constraint{Agent: 0, Resource: r, Time: tm})
		}
	}
}

func TestPlanUnreachable(t *testing.T) {
	g, err := core.ParseRows([]string{"..@.."})
	require.NoError(t, err)
	_, err = NewLowLevel(g, oracle.New(g), false).Plan(0, core.At(0, core.East), []int{0, 4}, nil, nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPlanBoxedInByConstraints(t *testing.T) {
	// Start cell forbidden at t=1 and the only exit forbidden too.
	g, err := core.ParseRows([]string{".."})
	require.NoError(t, err)
	neg := []Constraint{
		{Agent: 0, Resource: Vertex(0), Time: 1},
		{Agent: 0, Resource: Vertex(1), Time: 1},
	}
	_, err = NewLowLevel(g, oracle.New(g), false).Plan(0, core.At(0, core.East), []int{0, 1}, neg, nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestVisitedArena(t *testing.T) {
	a := newVisitedArena()
	k := stateKey{pos: core.At(3, core.South), prefix: 1}

	assert.False(t, a.closed(k))
	assert.True(t, a.commit(k, 4))
	assert.False(t, a.commit(k, 5))
	a.invalidate(k)
	assert.True(t, a.commit(k, 6))
	assert.Equal(t, 6, a.cost[k])
}
