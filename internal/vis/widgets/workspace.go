// Package widgets provides Gio UI widgets for the visualizer.
package widgets

import (
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/draw"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/interact"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

// Workspace is the main grid view.
type Workspace struct {
	state  *state.State
	camera *interact.Camera
	hover  int

	// OnEdit is called after the instance changed.
	OnEdit func()
}

// NewWorkspace creates a new workspace widget.
func NewWorkspace(st *state.State, camera *interact.Camera) *Workspace {
	return &Workspace{
		state:  st,
		camera: camera,
		hover:  -1,
	}
}

// Layout renders the workspace.
func (w *Workspace) Layout(gtx layout.Context) layout.Dimensions {
	bounds := gtx.Constraints.Max
	defer clip.Rect(image.Rect(0, 0, bounds.X, bounds.Y)).Push(gtx.Ops).Pop()

	paint.Fill(gtx.Ops, color.NRGBA{R: 25, G: 28, B: 32, A: 255})
	w.handlePointerEvents(gtx)

	inst := w.state.Instance
	if inst == nil {
		return layout.Dimensions{Size: bounds}
	}
	draw.DrawGrid(gtx, inst, w.camera)
	if w.hover >= 0 && w.state.Edit.Mode != state.ModeView {
		draw.HighlightCell(gtx, inst.Grid, w.hover, w.camera, draw.ColorCellSelected)
	}

	if w.state.Solution != nil {
		for _, a := range inst.Agents {
			col := draw.AgentColor(a.ID)
			draw.DrawPathTrail(gtx, w.state.PathHistory(a.ID), w.camera, col, 3)
			draw.DrawFuturePath(gtx, w.state.FuturePath(a.ID), w.camera, col)
		}
	}

	if c := w.state.Algo.Conflict(); c != nil && w.state.Algo.IsActive() {
		draw.DrawConflict(gtx, c, inst.Grid, w.camera)
	}

	draw.DrawAgents(gtx, inst.Agents, w.state.CurrentPoses(), w.camera, w.state.Edit.SelectedAgents)
	return layout.Dimensions{Size: bounds}
}

func (w *Workspace) handlePointerEvents(gtx layout.Context) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, gtx.Constraints.Max.Y)).Push(gtx.Ops)
	event.Op(gtx.Ops, w)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll | pointer.Move | pointer.Cancel,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		if w.camera.HandleEvent(pe) {
			gtx.Execute(op.InvalidateCmd{})
		}
		switch pe.Kind {
		case pointer.Move:
			w.hover = w.cellAt(pe)
		case pointer.Press:
			if pe.Buttons.Contain(pointer.ButtonPrimary) {
				w.handleClick(pe)
			}
		}
	}
}

func (w *Workspace) cellAt(pe pointer.Event) int {
	if w.state.Instance == nil {
		return -1
	}
	loc, ok := draw.CellAtScreen(pe.Position.X, pe.Position.Y, w.state.Instance.Grid, w.camera)
	if !ok {
		return -1
	}
	return loc
}

func (w *Workspace) handleClick(pe pointer.Event) {
	inst := w.state.Instance
	loc := w.cellAt(pe)
	if inst == nil || loc < 0 {
		return
	}
	multi := pe.Modifiers.Contain(key.ModShift)

	if w.state.Edit.Mode == state.ModeView {
		if id, ok := agentAt(inst, loc); ok {
			w.state.Edit.SelectAgent(id, multi)
			return
		}
		if !multi {
			w.state.Edit.ClearSelection()
		}
		return
	}

	if w.state.Algo.IsActive() {
		return
	}
	if id, ok := agentAt(inst, loc); ok && w.state.Edit.Mode == state.ModeAgent {
		w.state.Edit.Execute(&state.RotateAgentAction{Agent: id}, inst)
		w.edited()
		return
	}
	if action := w.state.Edit.ActionAt(inst, loc); action != nil {
		w.state.Edit.Execute(action, inst)
		w.edited()
	}
}

func (w *Workspace) edited() {
	w.state.SetSolution(nil)
	if w.OnEdit != nil {
		w.OnEdit()
	}
}

func agentAt(inst *core.Instance, loc int) (core.AgentID, bool) {
	for _, a := range inst.Agents {
		if a.Start.Loc == loc {
			return a.ID, true
		}
	}
	return 0, false
}
