package state

import (
	"sort"
	"sync"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// TreeNode is a constraint-tree node as shown in the search panel.
type TreeNode struct {
	ID             int
	ParentID       int // -1 for roots
	Generation     int
	Cost           int
	AllocationCost int
	Positive       bool
	Constraints    int
	IsSolution     bool
	Conflict       *algo.Conflict
	Paths          map[core.AgentID]core.Path
}

// AlgoState manages algorithm execution state. It is written by the
// search goroutine and read by the UI.
type AlgoState struct {
	mu sync.Mutex

	Active   bool
	Paused   bool
	Stepping bool

	nodes       map[int]*TreeNode
	order       []int
	currentNode int

	NodesExpanded   int
	ConflictsFound  int
	CurrentConflict *algo.Conflict

	stepChan chan struct{}
	// done is closed when the current run stops or a new run starts.
	done chan struct{}
}

// NewAlgoState creates a new algorithm state.
func NewAlgoState() *AlgoState {
	return &AlgoState{
		nodes:       make(map[int]*TreeNode),
		currentNode: -1,
		stepChan:    make(chan struct{}, 1),
	}
}

// Start clears the tree and marks a run as active.
func (a *AlgoState) Start(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Active = true
	a.Paused = paused
	a.Stepping = paused
	a.nodes = make(map[int]*TreeNode)
	a.order = nil
	a.currentNode = -1
	a.NodesExpanded = 0
	a.ConflictsFound = 0
	a.CurrentConflict = nil
	a.endRun()
	a.done = make(chan struct{})
	a.drain()
}

// Done returns a channel closed when the current run ends. Observers
// capture it right after Start to bind themselves to that run.
func (a *AlgoState) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

func (a *AlgoState) endRun() {
	if a.done != nil {
		close(a.done)
		a.done = nil
	}
}

// Stop ends execution and releases a search blocked in WaitForStep.
func (a *AlgoState) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Active = false
	a.Paused = false
	a.Stepping = false
	a.endRun()
}

// Pause pauses execution.
func (a *AlgoState) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Paused = true
}

// Resume resumes execution.
func (a *AlgoState) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Paused = false
	a.Stepping = false
	a.signal()
}

// Step enables step mode and lets one expansion through.
func (a *AlgoState) Step() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Paused = true
	a.Stepping = true
	a.signal()
}

func (a *AlgoState) signal() {
	select {
	case a.stepChan <- struct{}{}:
	default:
	}
}

func (a *AlgoState) drain() {
	select {
	case <-a.stepChan:
	default:
	}
}

// WaitForStep blocks the current run until a step is allowed.
func (a *AlgoState) WaitForStep() {
	a.WaitForRun(a.Done())
}

// WaitForRun blocks until a step is allowed or the run identified by done
// ends. A waiter from a finished run returns at once and never consumes a
// step meant for a later run.
func (a *AlgoState) WaitForRun(done <-chan struct{}) {
	if done == nil {
		return
	}
	a.mu.Lock()
	paused := a.Paused && a.Active
	a.mu.Unlock()
	if !paused {
		return
	}

	select {
	case <-done:
		return
	default:
	}
	select {
	case <-a.stepChan:
		select {
		case <-done:
			// The run ended while the token was in flight; hand it back.
			a.mu.Lock()
			a.signal()
			a.mu.Unlock()
		default:
		}
	case <-done:
	}
}

// ShouldPause returns whether the search should pause.
func (a *AlgoState) ShouldPause() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Paused && a.Active
}

// Conflict returns the conflict last chosen for branching.
func (a *AlgoState) Conflict() *algo.Conflict {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.CurrentConflict
}

// ExpandNode records a popped node and makes it current.
func (a *AlgoState) ExpandNode(info algo.NodeInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.upsert(info)
	a.currentNode = n.ID
	a.NodesExpanded++
}

// RecordConflict attaches the branching conflict to a node.
func (a *AlgoState) RecordConflict(info algo.NodeInfo, c *algo.Conflict) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.upsert(info)
	n.Conflict = c
	a.ConflictsFound++
	a.CurrentConflict = c
}

// MarkSolution flags the node whose plan was accepted.
func (a *AlgoState) MarkSolution(info algo.NodeInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.upsert(info).IsSolution = true
	a.CurrentConflict = nil
}

func (a *AlgoState) upsert(info algo.NodeInfo) *TreeNode {
	if n, ok := a.nodes[info.ID]; ok {
		return n
	}
	n := &TreeNode{
		ID:             info.ID,
		ParentID:       info.ParentID,
		Generation:     info.Generation,
		Cost:           info.Cost,
		AllocationCost: info.AllocationCost,
		Positive:       info.Positive,
		Constraints:    info.Constraints,
		Paths:          info.Paths,
	}
	a.nodes[n.ID] = n
	a.order = append(a.order, n.ID)
	return n
}

// Nodes returns the recorded nodes in expansion order.
func (a *AlgoState) Nodes() []*TreeNode {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := make([]*TreeNode, 0, len(a.order))
	for _, id := range a.order {
		result = append(result, a.nodes[id])
	}
	return result
}

// Node returns the node with the given ID, or nil.
func (a *AlgoState) Node(id int) *TreeNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nodes[id]
}

// Roots returns the IDs of recorded roots, one per allocation, by generation.
func (a *AlgoState) Roots() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var roots []int
	for _, id := range a.order {
		if a.nodes[id].ParentID < 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return a.nodes[roots[i]].Generation < a.nodes[roots[j]].Generation
	})
	return roots
}

// Children returns the recorded children of a node in expansion order.
func (a *AlgoState) Children(id int) []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var children []int
	for _, cid := range a.order {
		if a.nodes[cid].ParentID == id {
			children = append(children, cid)
		}
	}
	return children
}

// Counts returns the expansion and conflict counters.
func (a *AlgoState) Counts() (expanded, conflicts int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.NodesExpanded, a.ConflictsFound
}

// CurrentNode returns the ID of the node last expanded, or -1.
func (a *AlgoState) CurrentNode() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentNode
}

// IsActive reports whether a search is running.
func (a *AlgoState) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Active
}

// Levels groups recorded node IDs by depth below their root. Level 0 holds
// the roots in generation order; nodes whose parent was never expanded
// hang under the deepest known ancestor level.
func (a *AlgoState) Levels() [][]int {
	roots := a.Roots()

	a.mu.Lock()
	defer a.mu.Unlock()

	depth := make(map[int]int, len(a.order))
	levels := [][]int{roots}
	for _, id := range roots {
		depth[id] = 0
	}
	for _, id := range a.order {
		n := a.nodes[id]
		if n.ParentID < 0 {
			continue
		}
		d := depth[n.ParentID] + 1
		depth[id] = d
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	return levels
}
