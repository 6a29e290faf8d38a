// Package vis implements a Gio-based visualizer for robust multi-agent
// task sequencing.
package vis

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync/atomic"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/interact"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/observer"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/widgets"
)

// App is the main visualization application.
type App struct {
	state     *state.State
	theme     *material.Theme
	workspace *widgets.Workspace
	timeline  *widgets.Timeline
	toolbar   *widgets.Toolbar
	tree      *widgets.SearchTree
	camera    *interact.Camera
	runner    *observer.Runner
	logger    *slog.Logger
	opts      []algo.Option

	window  atomic.Pointer[app.Window]
	fitted  bool
	focused bool
	status  string
}

// NewApp creates a visualizer for inst. A nil instance opens a small
// demo map. opts are passed to every search started from the UI.
func NewApp(inst *core.Instance, v core.Variant, logger *slog.Logger, opts ...algo.Option) *App {
	if inst == nil {
		inst = DefaultInstance()
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := state.NewState(inst, nil, v)
	camera := interact.NewCamera()
	a := &App{
		state:  st,
		theme:  material.NewTheme(),
		camera: camera,
		logger: logger,
		opts:   opts,
		status: "ready",
	}
	a.runner = observer.NewRunner(st.Algo, logger, a.invalidate)
	a.workspace = widgets.NewWorkspace(st, camera)
	a.workspace.OnEdit = func() { a.status = "edited" }
	a.timeline = widgets.NewTimeline(st)
	a.tree = widgets.NewSearchTree(st)
	a.toolbar = widgets.NewToolbar(st, widgets.Actions{
		Solve:        a.solve,
		Stop:         a.stop,
		CycleVariant: a.cycleVariant,
		Undo:         a.undo,
		Redo:         a.redo,
	})
	return a
}

func (a *App) invalidate() {
	if w := a.window.Load(); w != nil {
		w.Invalidate()
	}
}

func (a *App) solve(stepping bool) {
	if err := a.state.Instance.Validate(); err != nil {
		a.status = err.Error()
		return
	}
	a.state.SetSolution(nil)
	a.status = "solving with " + a.state.Variant.Name
	a.runner.Start(a.state.Instance, a.state.Variant, stepping, a.opts...)
}

func (a *App) stop() {
	a.runner.Stop()
	a.status = "stopped"
}

func (a *App) cycleVariant() {
	variants := core.Variants()
	for i, v := range variants {
		if v.Name == a.state.Variant.Name {
			a.state.Variant = variants[(i+1)%len(variants)]
			return
		}
	}
	a.state.Variant = variants[0]
}

func (a *App) undo() {
	if a.state.Algo.IsActive() {
		return
	}
	if action := a.state.Edit.Undo(); action != nil {
		action.Undo(a.state.Instance)
		a.state.SetSolution(nil)
		a.status = "undo: " + action.Description()
	}
}

func (a *App) redo() {
	if a.state.Algo.IsActive() {
		return
	}
	if action := a.state.Edit.Redo(); action != nil {
		action.Do(a.state.Instance)
		a.state.SetSolution(nil)
		a.status = "redo: " + action.Description()
	}
}

// pollResult picks up a finished background search.
func (a *App) pollResult() {
	res, ok := a.runner.Poll()
	if !ok {
		return
	}
	switch {
	case res.Err == nil:
		a.state.SetSolution(res.Solution)
		a.status = fmt.Sprintf("%s: cost %d, %d roots, %d expansions",
			res.Variant.Name, res.Solution.Cost, res.Solution.Stats.Roots, res.Solution.Stats.Expansions)
	case errors.Is(res.Err, algo.ErrNoSolution):
		a.status = res.Variant.Name + ": no p-robust plan"
	default:
		a.status = res.Variant.Name + ": " + res.Err.Error()
	}
}

// Run starts the application event loop.
func (a *App) Run(w *app.Window) error {
	a.window.Store(w)
	defer a.runner.Stop()

	var ops op.Ops
	tag := new(int)

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			if !a.focused {
				gtx.Execute(key.FocusCmd{Tag: tag})
				a.focused = true
			}

			for {
				ev, ok := gtx.Event(key.Filter{Focus: tag, Optional: key.ModCtrl | key.ModShift})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					a.handleKeyEvent(ke)
				}
			}
			event.Op(gtx.Ops, tag)

			a.pollResult()
			a.layout(gtx)
			e.Frame(gtx.Ops)

			if a.state.Playback.Playing {
				a.state.Playback.Advance()
				w.Invalidate()
			}
		}
	}
}

func (a *App) handleKeyEvent(e key.Event) {
	ctrl := e.Modifiers.Contain(key.ModCtrl)
	switch e.Name {
	case key.NameSpace:
		a.state.Playback.TogglePlay()
	case key.NameLeftArrow:
		a.state.Playback.StepBack()
	case key.NameRightArrow:
		a.state.Playback.StepForward()
	case key.NameHome:
		a.state.Playback.Reset()
	case key.NameEscape:
		a.stop()
	case "R":
		a.camera.Reset()
	case "F":
		a.fitted = false
	case "S":
		if !a.state.Algo.IsActive() {
			a.solve(false)
		}
	case "N":
		if a.state.Algo.IsActive() {
			a.state.Algo.Step()
		} else {
			a.solve(true)
		}
	case "V":
		if !a.state.Algo.IsActive() {
			a.cycleVariant()
		}
	case "Z":
		if ctrl {
			a.undo()
		}
	case "Y":
		if ctrl {
			a.redo()
		}
	case "1", "2", "3", "4":
		a.state.Edit.Mode = state.EditMode(e.Name[0] - '1')
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.toolbar.Layout(gtx, a.theme)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					if !a.fitted {
						g := a.state.Instance.Grid
						size := gtx.Constraints.Max
						a.camera.FitGrid(g.Rows, g.Cols, state.CellSize, float32(size.X), float32(size.Y))
						a.fitted = true
					}
					return a.workspace.Layout(gtx)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					if len(a.state.Algo.Nodes()) == 0 {
						return layout.Dimensions{}
					}
					return a.tree.Layout(gtx, a.theme)
				}),
			)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Left: unit.Dp(20), Top: unit.Dp(2), Bottom: unit.Dp(2)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.Label(a.theme, 12, a.status)
				label.Color = color.NRGBA{R: 170, G: 170, B: 170, A: 255}
				return label.Layout(gtx)
			})
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.timeline.Layout(gtx, a.theme)
		}),
	)
}

// DefaultInstance builds a small demo map with a corridor.
func DefaultInstance() *core.Instance {
	g := core.NewGrid(7, 7)
	for _, row := range []int{2, 4} {
		for col := 1; col < 6; col++ {
			if col != 3 {
				g.Block(g.Index(row, col))
			}
		}
	}

	inst := core.NewInstance(g)
	inst.AddAgent(g.Index(0, 0), core.East, 0.1)
	inst.AddAgent(g.Index(6, 6), core.West, 0.1)
	inst.AddAgent(g.Index(0, 6), core.South, 0.1)
	inst.Goals = []int{
		g.Index(6, 0),
		g.Index(3, 3),
		g.Index(0, 3),
		g.Index(6, 3),
	}
	return inst
}
