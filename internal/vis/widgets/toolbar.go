package widgets

import (
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

// Actions are the app-level operations the toolbar triggers.
type Actions struct {
	Solve        func(stepping bool)
	Stop         func()
	CycleVariant func()
	Undo         func()
	Redo         func()
}

// Toolbar provides control buttons.
type Toolbar struct {
	state   *state.State
	actions Actions

	playBtn      widget.Clickable
	resetBtn     widget.Clickable
	stepFwdBtn   widget.Clickable
	stepBackBtn  widget.Clickable
	speedUpBtn   widget.Clickable
	speedDownBtn widget.Clickable

	modeBtns [4]widget.Clickable
	undoBtn  widget.Clickable
	redoBtn  widget.Clickable

	variantBtn  widget.Clickable
	solveBtn    widget.Clickable
	stepAlgoBtn widget.Clickable
	resumeBtn   widget.Clickable
}

// NewToolbar creates a new toolbar.
func NewToolbar(st *state.State, actions Actions) *Toolbar {
	return &Toolbar{state: st, actions: actions}
}

// Layout renders the toolbar.
func (t *Toolbar) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	const height = 48
	rect := image.Rect(0, 0, gtx.Constraints.Max.X, height)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 40, G: 43, B: 48, A: 255}, clip.Rect(rect).Op())

	t.handleClicks(gtx)

	return layout.Inset{Left: unit.Dp(10), Right: unit.Dp(10), Top: unit.Dp(8), Bottom: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return t.layoutPlaybackControls(gtx, th)
			}),
			layout.Rigid(t.layoutSeparator),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return t.layoutEditControls(gtx, th)
			}),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return layout.Dimensions{}
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return t.layoutAlgoControls(gtx, th)
			}),
		)
	})
}

func (t *Toolbar) layoutPlaybackControls(gtx layout.Context, th *material.Theme) layout.Dimensions {
	play := ">"
	if t.state.Playback.Playing {
		play = "||"
	}
	return t.row(gtx, 4,
		t.button(th, &t.stepBackBtn, "|<", false),
		t.button(th, &t.playBtn, play, false),
		t.button(th, &t.stepFwdBtn, ">|", false),
		t.button(th, &t.resetBtn, "[]", false),
		t.button(th, &t.speedDownBtn, "-", false),
		t.button(th, &t.speedUpBtn, "+", false),
	)
}

func (t *Toolbar) layoutEditControls(gtx layout.Context, th *material.Theme) layout.Dimensions {
	labels := [...]string{"View", "Wall", "Goal", "Agent"}
	items := make([]layout.Widget, 0, len(labels)+2)
	for i, label := range labels {
		items = append(items, t.button(th, &t.modeBtns[i], label, t.state.Edit.Mode == state.EditMode(i)))
	}
	items = append(items,
		t.button(th, &t.undoBtn, "<-", false),
		t.button(th, &t.redoBtn, "->", false),
	)
	return t.row(gtx, 2, items...)
}

func (t *Toolbar) layoutAlgoControls(gtx layout.Context, th *material.Theme) layout.Dimensions {
	if t.state.Algo.IsActive() {
		return t.row(gtx, 4,
			t.button(th, &t.stepAlgoBtn, "Step", false),
			t.button(th, &t.resumeBtn, "Resume", false),
			t.button(th, &t.solveBtn, "Stop", true),
		)
	}
	return t.row(gtx, 4,
		t.button(th, &t.variantBtn, t.state.Variant.Name, false),
		t.button(th, &t.stepAlgoBtn, "Step", false),
		t.button(th, &t.solveBtn, "Solve", false),
	)
}

func (t *Toolbar) row(gtx layout.Context, gap unit.Dp, items ...layout.Widget) layout.Dimensions {
	children := make([]layout.FlexChild, 0, 2*len(items))
	for i, item := range items {
		if i > 0 {
			children = append(children, layout.Rigid(layout.Spacer{Width: gap}.Layout))
		}
		children = append(children, layout.Rigid(item))
	}
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, children...)
}

func (t *Toolbar) layoutSeparator(gtx layout.Context) layout.Dimensions {
	return layout.Inset{Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		rect := image.Rect(0, 0, 1, 24)
		paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 65, B: 70, A: 255}, clip.Rect(rect).Op())
		return layout.Dimensions{Size: image.Point{X: 1, Y: 24}}
	})
}

func (t *Toolbar) button(th *material.Theme, btn *widget.Clickable, text string, active bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		bg := color.NRGBA{R: 55, G: 58, B: 65, A: 255}
		if active {
			bg = color.NRGBA{R: 80, G: 130, B: 180, A: 255}
		}
		if btn.Hovered() {
			bg.R = min(bg.R+15, 255)
			bg.G = min(bg.G+15, 255)
			bg.B = min(bg.B+15, 255)
		}
		return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Background{}.Layout(gtx,
				func(gtx layout.Context) layout.Dimensions {
					sz := image.Point{X: max(gtx.Constraints.Min.X, 32), Y: 28}
					paint.FillShape(gtx.Ops, bg, clip.Rect(image.Rectangle{Max: sz}).Op())
					return layout.Dimensions{Size: sz}
				},
				func(gtx layout.Context) layout.Dimensions {
					return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						label := material.Label(th, 12, text)
						label.Color = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
						return label.Layout(gtx)
					})
				},
			)
		})
	}
}

func (t *Toolbar) handleClicks(gtx layout.Context) {
	pb := t.state.Playback
	for t.playBtn.Clicked(gtx) {
		pb.TogglePlay()
	}
	for t.resetBtn.Clicked(gtx) {
		pb.Reset()
	}
	for t.stepFwdBtn.Clicked(gtx) {
		pb.StepForward()
	}
	for t.stepBackBtn.Clicked(gtx) {
		pb.StepBack()
	}
	for t.speedUpBtn.Clicked(gtx) {
		pb.SetSpeed(pb.Speed * 1.5)
	}
	for t.speedDownBtn.Clicked(gtx) {
		pb.SetSpeed(pb.Speed / 1.5)
	}

	for i := range t.modeBtns {
		for t.modeBtns[i].Clicked(gtx) {
			t.state.Edit.Mode = state.EditMode(i)
		}
	}
	for t.undoBtn.Clicked(gtx) {
		call(t.actions.Undo)
	}
	for t.redoBtn.Clicked(gtx) {
		call(t.actions.Redo)
	}

	active := t.state.Algo.IsActive()
	for t.variantBtn.Clicked(gtx) {
		if !active {
			call(t.actions.CycleVariant)
		}
	}
	for t.solveBtn.Clicked(gtx) {
		if active {
			call(t.actions.Stop)
		} else if t.actions.Solve != nil {
			t.actions.Solve(false)
		}
	}
	for t.stepAlgoBtn.Clicked(gtx) {
		switch {
		case active:
			t.state.Algo.Step()
		case t.actions.Solve != nil:
			t.actions.Solve(true)
		}
	}
	for t.resumeBtn.Clicked(gtx) {
		t.state.Algo.Resume()
	}
}

func call(f func()) {
	if f != nil {
		f()
	}
}
