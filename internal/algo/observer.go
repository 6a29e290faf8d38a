package algo

import "github.com/elektrokombinacija/robust-cbss/internal/core"

// NodeInfo describes a search-tree node to observers.
type NodeInfo struct {
	ID             int
	ParentID       int // -1 for roots
	Generation     int // allocation rank the node descends from
	Cost           int
	AllocationCost int
	Positive       bool
	Constraints    int
	Paths          map[core.AgentID]core.Path
}

// Observer is the interface for observing search execution.
type Observer interface {
	// OnNodeExpanded is called when a node is popped for evaluation.
	OnNodeExpanded(node NodeInfo)

	// OnConflictDetected is called when a conflict is chosen for branching.
	OnConflictDetected(node NodeInfo, conflict *Conflict)

	// OnSolutionFound is called when a node is certified.
	OnSolutionFound(node NodeInfo, solution *core.Solution)

	// ShouldPause returns true if the search should pause.
	ShouldPause() bool

	// WaitForStep blocks until the observer allows the next step.
	WaitForStep()
}
