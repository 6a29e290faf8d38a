package state

import (
	"slices"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// EditAction represents an undoable edit action.
type EditAction interface {
	Do(inst *core.Instance)
	Undo(inst *core.Instance)
	Description() string
}

// EditMode represents the current editing mode.
type EditMode int

const (
	ModeView EditMode = iota
	ModeObstacle
	ModeGoal
	ModeAgent
)

func (m EditMode) String() string {
	return [...]string{"view", "obstacle", "goal", "agent"}[m]
}

// EditState manages interactive editing state.
type EditState struct {
	SelectedAgents map[core.AgentID]bool
	Mode           EditMode

	undoStack []EditAction
	redoStack []EditAction
}

// NewEditState creates a new edit state.
func NewEditState() *EditState {
	return &EditState{
		SelectedAgents: make(map[core.AgentID]bool),
		Mode:           ModeView,
	}
}

// SelectAgent toggles agent selection.
func (e *EditState) SelectAgent(id core.AgentID, multi bool) {
	if !multi {
		was := e.SelectedAgents[id]
		e.ClearSelection()
		if was {
			return
		}
	}
	if e.SelectedAgents[id] {
		delete(e.SelectedAgents, id)
		return
	}
	e.SelectedAgents[id] = true
}

// ClearSelection clears all selections.
func (e *EditState) ClearSelection() {
	e.SelectedAgents = make(map[core.AgentID]bool)
}

// Execute performs an action and adds it to the undo stack.
func (e *EditState) Execute(action EditAction, inst *core.Instance) {
	action.Do(inst)
	e.undoStack = append(e.undoStack, action)
	e.redoStack = nil
}

// Undo pops the last action. The caller reverts it.
func (e *EditState) Undo() EditAction {
	if len(e.undoStack) == 0 {
		return nil
	}
	action := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.redoStack = append(e.redoStack, action)
	return action
}

// Redo pops the last undone action. The caller reapplies it.
func (e *EditState) Redo() EditAction {
	if len(e.redoStack) == 0 {
		return nil
	}
	action := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.undoStack = append(e.undoStack, action)
	return action
}

func (e *EditState) CanUndo() bool { return len(e.undoStack) > 0 }
func (e *EditState) CanRedo() bool { return len(e.redoStack) > 0 }

// ActionAt returns the edit the current mode performs on a click at loc,
// or nil when the click changes nothing.
func (e *EditState) ActionAt(inst *core.Instance, loc int) EditAction {
	if !inst.Grid.InBounds(loc) || occupied(inst, loc) {
		return nil
	}
	switch e.Mode {
	case ModeObstacle:
		if slices.Contains(inst.Goals, loc) {
			return nil
		}
		return &ToggleObstacleAction{Loc: loc}
	case ModeGoal:
		if !inst.Grid.Passable(loc) {
			return nil
		}
		return &ToggleGoalAction{Loc: loc}
	case ModeAgent:
		if !inst.Grid.Passable(loc) || slices.Contains(inst.Goals, loc) {
			return nil
		}
		return &AddAgentAction{Loc: loc}
	}
	return nil
}

func occupied(inst *core.Instance, loc int) bool {
	for _, a := range inst.Agents {
		if a.Start.Loc == loc {
			return true
		}
	}
	return false
}

// ToggleObstacleAction blocks or frees one cell.
type ToggleObstacleAction struct {
	Loc int
}

func (a *ToggleObstacleAction) Do(inst *core.Instance)   { toggleBlocked(inst.Grid, a.Loc) }
func (a *ToggleObstacleAction) Undo(inst *core.Instance) { toggleBlocked(inst.Grid, a.Loc) }
func (a *ToggleObstacleAction) Description() string      { return "Toggle obstacle" }

func toggleBlocked(g *core.Grid, loc int) {
	if g.Passable(loc) {
		g.Block(loc)
		return
	}
	g.Unblock(loc)
}

// ToggleGoalAction adds a goal cell, or removes it if already present.
type ToggleGoalAction struct {
	Loc     int
	removed int // index the goal was removed from, -1 when added
}

func (a *ToggleGoalAction) Do(inst *core.Instance) {
	if i := slices.Index(inst.Goals, a.Loc); i >= 0 {
		a.removed = i
		inst.Goals = slices.Delete(inst.Goals, i, i+1)
		return
	}
	a.removed = -1
	inst.Goals = append(inst.Goals, a.Loc)
}

func (a *ToggleGoalAction) Undo(inst *core.Instance) {
	if a.removed >= 0 {
		inst.Goals = slices.Insert(inst.Goals, a.removed, a.Loc)
		return
	}
	if i := slices.Index(inst.Goals, a.Loc); i >= 0 {
		inst.Goals = slices.Delete(inst.Goals, i, i+1)
	}
}

func (a *ToggleGoalAction) Description() string { return "Toggle goal" }

// AddAgentAction appends an agent facing east.
type AddAgentAction struct {
	Loc   int
	Delay float64
}

func (a *AddAgentAction) Do(inst *core.Instance) {
	inst.AddAgent(a.Loc, core.East, a.Delay)
}

func (a *AddAgentAction) Undo(inst *core.Instance) {
	if n := len(inst.Agents); n > 0 {
		inst.Agents = inst.Agents[:n-1]
	}
}

func (a *AddAgentAction) Description() string { return "Add agent" }

// RotateAgentAction turns an agent's start heading a quarter clockwise.
type RotateAgentAction struct {
	Agent core.AgentID
}

func (a *RotateAgentAction) Do(inst *core.Instance) {
	if ag := inst.AgentByID(a.Agent); ag != nil {
		ag.Start.Heading = ag.Start.Heading.Right()
	}
}

func (a *RotateAgentAction) Undo(inst *core.Instance) {
	if ag := inst.AgentByID(a.Agent); ag != nil {
		ag.Start.Heading = ag.Start.Heading.Left()
	}
}

func (a *RotateAgentAction) Description() string { return "Rotate agent" }
