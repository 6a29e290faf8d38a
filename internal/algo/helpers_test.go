package algo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/alloc"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/oracle"
)

// path builds a headingless path through locs.
func path(locs ...int) core.Path {
	p := make(core.Path, len(locs))
	for i, l := range locs {
		p[i] = core.At(l, core.East)
	}
	return p
}

// fixedOracle serves a fixed list of allocations.
type fixedOracle struct {
	allocs []alloc.Allocation
	calls  int
}

func (f *fixedOracle) Allocation(k int) (alloc.Allocation, error) {
	f.calls++
	if k > len(f.allocs) {
		return alloc.Allocation{Cost: alloc.Infinite}, nil
	}
	return f.allocs[k-1], nil
}

func (f *fixedOracle) Calls() int { return f.calls }

func fixed(allocs ...alloc.Allocation) OracleFactory {
	return func(*core.Instance, *oracle.Oracle) (AllocationOracle, error) {
		return &fixedOracle{allocs: allocs}, nil
	}
}

// swapInstance is a 2x4 grid with agents at both ends of the top row.
func swapInstance(t *testing.T) *core.Instance {
	t.Helper()
	inst := core.NewInstance(core.NewGrid(2, 4))
	inst.AddAgent(0, core.East, 0)
	inst.AddAgent(3, core.West, 0)
	inst.Goals = []int{3, 0}
	require.NoError(t, inst.Validate())
	return inst
}

// requireVisitsInOrder checks that p starts at start and passes the
// waypoints in order.
func requireVisitsInOrder(t *testing.T, p core.Path, seq []int) {
	t.Helper()
	require.NotEmpty(t, p)
	require.Equal(t, seq[0], p[0].Loc)
	next := 1
	for _, pos := range p {
		for next < len(seq) && seq[next] == pos.Loc {
			next++
		}
	}
	require.Equal(t, len(seq), next, "path %v misses waypoints %v", p.Locs(), seq)
}

// requireLegalMoves checks each step is a wait, a quarter turn, or a move
// to an adjacent free cell (forward only when headings apply).
func requireLegalMoves(t *testing.T, g *core.Grid, p core.Path, headings bool) {
	t.Helper()
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		if a.Loc == b.Loc {
			if headings {
				ok := b.Heading == a.Heading || b.Heading == a.Heading.Left() || b.Heading == a.Heading.Right()
				require.True(t, ok, "bad turn at step %d", i)
			}
			continue
		}
		if headings {
			next, ok := g.Step(a.Loc, a.Heading)
			require.True(t, ok && next == b.Loc && a.Heading == b.Heading, "bad move at step %d", i)
			continue
		}
		_, ok := g.HeadingTo(a.Loc, b.Loc)
		require.True(t, ok, "cells %d and %d are not adjacent", a.Loc, b.Loc)
	}
}
