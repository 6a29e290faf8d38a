// Package observer connects a running search to the visualization state.
package observer

import (
	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

// AlgoStateObserver adapts AlgoState to the algo.Observer interface.
type AlgoStateObserver struct {
	state      *state.AlgoState
	done       <-chan struct{}
	invalidate func()
}

var _ algo.Observer = (*AlgoStateObserver)(nil)

// NewAlgoStateObserver creates a new observer backed by AlgoState.
// invalidate, if set, is called after every recorded event so the window
// can redraw. The observer is bound to the run active in as when it is
// created.
func NewAlgoStateObserver(as *state.AlgoState, invalidate func()) *AlgoStateObserver {
	return &AlgoStateObserver{state: as, done: as.Done(), invalidate: invalidate}
}

func (o *AlgoStateObserver) OnNodeExpanded(node algo.NodeInfo) {
	o.state.ExpandNode(node)
	o.redraw()
}

func (o *AlgoStateObserver) OnConflictDetected(node algo.NodeInfo, conflict *algo.Conflict) {
	o.state.RecordConflict(node, conflict)
	o.redraw()
}

func (o *AlgoStateObserver) OnSolutionFound(node algo.NodeInfo, _ *core.Solution) {
	o.state.MarkSolution(node)
	o.redraw()
}

func (o *AlgoStateObserver) ShouldPause() bool {
	select {
	case <-o.done:
		return false
	default:
	}
	return o.state.ShouldPause()
}

func (o *AlgoStateObserver) WaitForStep() {
	o.state.WaitForRun(o.done)
}

func (o *AlgoStateObserver) redraw() {
	if o.invalidate != nil {
		o.invalidate()
	}
}
