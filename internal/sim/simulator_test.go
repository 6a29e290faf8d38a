package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func path(locs ...int) core.Path {
	p := make(core.Path, len(locs))
	for i, l := range locs {
		p[i] = core.At(l, core.East)
	}
	return p
}

func TestRunDisjointPaths(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2, 3),
		1: path(12, 13, 14, 15),
	}
	s := NewSimulator(Config{Delays: map[core.AgentID]float64{0: 0.5, 1: 0.5}, Seed: 1})
	for i := 0; i < 20; i++ {
		assert.True(t, s.Run(paths))
	}
}

func TestRunDetectsSwap(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1),
		1: path(1, 0),
	}
	s := NewSimulator(DefaultConfig())
	assert.False(t, s.Run(paths))
}

func TestRunDetectsVertex(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2),
		1: path(4, 5, 1, 6),
	}
	s := NewSimulator(DefaultConfig())
	// Nominal timing puts the agents on different cells each step.
	assert.True(t, s.Run(paths))

	paths[1] = path(4, 2, 3)
	assert.True(t, s.Run(paths))

	paths[1] = path(4, 5, 2, 3)
	assert.False(t, s.Run(paths))
}

func TestFinishedAgentsLeave(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1),
		1: path(3, 2, 1, 0),
	}
	s := NewSimulator(DefaultConfig())
	assert.True(t, s.Run(paths))
}

func TestDelayCausesCollision(t *testing.T) {
	// Agent 1 passes through cell 1 right after agent 0 leaves it; a delay
	// of agent 0 makes them meet.
	paths := map[core.AgentID]core.Path{
		0: path(1, 2, 3),
		1: path(5, 1, 0),
	}
	s := NewSimulator(Config{Delays: map[core.AgentID]float64{0: 0.9}, Seed: 3})
	assert.Less(t, s.SuccessRate(paths, 200), 0.5)
}

func TestExecuteSumOfCosts(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2),
		1: path(8),
		2: path(4, 5, 6, 7, 11),
	}
	s := NewSimulator(DefaultConfig())
	m, err := s.Execute(context.Background(), paths)
	require.NoError(t, err)
	assert.True(t, m.Success())
	assert.Equal(t, 4, m.Steps)
	assert.Equal(t, 6, m.SumOfCosts)
}

func TestExecuteRotates(t *testing.T) {
	g := core.NewGrid(2, 2)
	paths := map[core.AgentID]core.Path{
		// Facing east but the first move goes south.
		0: {core.At(0, core.East), core.At(2, core.East), core.At(3, core.East)},
	}
	s := NewSimulator(Config{RotateOnExecute: true, Grid: g})
	m, err := s.Execute(context.Background(), paths)
	require.NoError(t, err)
	// turn south, move, turn east, move
	assert.Equal(t, 4, m.Steps)
}

func TestExecuteStepLimit(t *testing.T) {
	paths := map[core.AgentID]core.Path{0: path(0, 1, 2, 3, 4)}
	s := NewSimulator(Config{MaxSteps: 2})
	_, err := s.Execute(context.Background(), paths)
	assert.Error(t, err)
}
