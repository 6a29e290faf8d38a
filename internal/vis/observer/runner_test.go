package observer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

// separated places two agents in opposite corners of a 4x4 grid with
// goals next to each.
func separated() *core.Instance {
	inst := core.NewInstance(core.NewGrid(4, 4))
	inst.AddAgent(0, core.East, 0.1)
	inst.AddAgent(15, core.West, 0.1)
	inst.Goals = []int{1, 2, 14}
	return inst
}

func TestRunnerRecordsSearch(t *testing.T) {
	as := state.NewAlgoState()
	var redraws atomic.Int32
	r := NewRunner(as, nil, func() { redraws.Add(1) })

	r.Start(separated(), core.RCbssEff, false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := r.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, 3, res.Solution.Cost)
	assert.False(t, as.IsActive())
	require.NotEmpty(t, as.Nodes())
	cur := as.Node(as.CurrentNode())
	require.NotNil(t, cur)
	assert.True(t, cur.IsSolution)
	assert.Positive(t, redraws.Load())
}

func TestRunnerStepping(t *testing.T) {
	as := state.NewAlgoState()
	r := NewRunner(as, nil, nil)

	r.Start(separated(), core.CBSS, true)
	_, ok := r.Poll()
	assert.False(t, ok)

	// The search is parked before its first expansion until stepped.
	assert.Eventually(t, func() bool {
		as.Step()
		return len(as.Nodes()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	as.Resume()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := r.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, core.CBSS, res.Variant)
}

func TestRunnerStopCancels(t *testing.T) {
	as := state.NewAlgoState()
	r := NewRunner(as, nil, nil)

	r.Start(separated(), core.CBSS, true)
	r.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := r.Wait(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, context.Canceled)
	assert.False(t, as.IsActive())
}

func TestRunnerRestartWhileParked(t *testing.T) {
	as := state.NewAlgoState()
	r := NewRunner(as, nil, nil)

	r.Start(separated(), core.CBSS, true)
	r.Start(separated(), core.CBSS, true)

	assert.Eventually(t, func() bool {
		as.Step()
		return len(as.Nodes()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	as.Resume()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := r.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Solution)
	assert.Equal(t, 3, res.Solution.Cost)
}
