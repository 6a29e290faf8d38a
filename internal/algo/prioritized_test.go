package algo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func TestPrioritizedYieldsToEarlierAgents(t *testing.T) {
	inst := core.NewInstance(core.NewGrid(2, 4))
	inst.AddAgent(0, core.East, 0)
	inst.AddAgent(3, core.West, 0)
	inst.Goals = []int{2, 1}

	sol, err := NewPrioritized(false).Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.True(t, sol.Feasible)
	assert.Nil(t, FindExactConflict(sol.Paths, nil))
	for _, agent := range inst.Agents {
		requireVisitsInOrder(t, sol.Paths[agent.ID], sol.Sequences[agent.ID])
	}
	assert.Equal(t, sol.SumOfCosts(), sol.Cost)
	assert.Equal(t, 1, sol.Stats.OracleCalls)
}

func TestPrioritizedUnreachable(t *testing.T) {
	g := core.NewGrid(1, 3)
	g.Block(1)
	inst := core.NewInstance(g)
	inst.AddAgent(0, core.East, 0)
	inst.Goals = []int{2}

	_, err := NewPrioritized(false).Solve(context.Background(), inst)
	assert.ErrorIs(t, err, ErrNoSolution)
}
