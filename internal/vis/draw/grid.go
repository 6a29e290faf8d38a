// Package draw provides rendering functions for visualization.
package draw

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/interact"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

var (
	ColorCellFree     = color.NRGBA{R: 52, G: 58, B: 66, A: 255}
	ColorCellBlocked  = color.NRGBA{R: 20, G: 22, B: 26, A: 255}
	ColorCellGoal     = color.NRGBA{R: 80, G: 180, B: 100, A: 255}
	ColorGridLine     = color.NRGBA{R: 70, G: 78, B: 88, A: 255}
	ColorCellSelected = color.NRGBA{R: 255, G: 200, B: 80, A: 255}
)

// DrawGrid renders cells, obstacles and goal markers.
func DrawGrid(gtx layout.Context, inst *core.Instance, camera *interact.Camera) {
	g := inst.Grid
	for loc := 0; loc < g.Size(); loc++ {
		col := ColorCellFree
		if !g.Passable(loc) {
			col = ColorCellBlocked
		}
		fillCell(gtx, g, loc, camera, col, 0)
	}
	drawGridLines(gtx, g, camera)

	for _, goal := range inst.Goals {
		c := state.GridCellCenter(g, goal)
		x, y := camera.WorldToScreen(c.X, c.Y)
		r := float32(state.CellSize) * 0.3 * camera.Zoom
		DrawCircleOutline(gtx, x, y, r, ColorCellGoal, 3*camera.Zoom)
		drawFilledCircle(gtx, x, y, 3*camera.Zoom, ColorCellGoal)
	}
}

// HighlightCell outlines one cell.
func HighlightCell(gtx layout.Context, g *core.Grid, loc int, camera *interact.Camera, col color.NRGBA) {
	if !g.InBounds(loc) {
		return
	}
	c := col
	c.A = 90
	fillCell(gtx, g, loc, camera, c, float32(state.CellSize)*0.08)
}

func fillCell(gtx layout.Context, g *core.Grid, loc int, camera *interact.Camera, col color.NRGBA, inset float32) {
	c := state.GridCellCenter(g, loc)
	half := float64(state.CellSize / 2)
	x1, y1 := camera.WorldToScreen(c.X-half, c.Y-half)
	x2, y2 := camera.WorldToScreen(c.X+half, c.Y+half)
	inset *= camera.Zoom

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+inset, y1+inset))
	path.LineTo(f32.Pt(x2-inset, y1+inset))
	path.LineTo(f32.Pt(x2-inset, y2-inset))
	path.LineTo(f32.Pt(x1+inset, y2-inset))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawGridLines(gtx layout.Context, g *core.Grid, camera *interact.Camera) {
	w := float64(g.Cols) * state.CellSize
	h := float64(g.Rows) * state.CellSize
	width := max(float32(1), camera.Zoom)

	for c := 0; c <= g.Cols; c++ {
		x := float64(c) * state.CellSize
		x1, y1 := camera.WorldToScreen(x, 0)
		x2, y2 := camera.WorldToScreen(x, h)
		drawPathSegment(gtx, x1, y1, x2, y2, width, ColorGridLine)
	}
	for r := 0; r <= g.Rows; r++ {
		y := float64(r) * state.CellSize
		x1, y1 := camera.WorldToScreen(0, y)
		x2, y2 := camera.WorldToScreen(w, y)
		drawPathSegment(gtx, x1, y1, x2, y2, width, ColorGridLine)
	}
}

// CellAtScreen returns the cell under a screen point.
func CellAtScreen(screenX, screenY float32, g *core.Grid, camera *interact.Camera) (int, bool) {
	x, y := camera.ScreenToWorld(screenX, screenY)
	return state.CellAt(g, x, y)
}

// DrawCircleOutline draws a circle outline.
func DrawCircleOutline(gtx layout.Context, centerX, centerY float32, radius float32, col color.NRGBA, strokeWidth float32) {
	const segments = 24
	var path clip.Path
	path.Begin(gtx.Ops)
	path.Move(f32.Pt(centerX+radius, centerY))
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / segments
		x := centerX + radius*float32(math.Cos(angle))
		y := centerY + radius*float32(math.Sin(angle))
		path.Line(f32.Pt(x-path.Pos().X, y-path.Pos().Y))
	}
	path.Close()

	// Inner circle (hole)
	innerR := max(radius-strokeWidth, 0)
	path.Move(f32.Pt(centerX+innerR-path.Pos().X, centerY-path.Pos().Y))
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / segments
		x := centerX + innerR*float32(math.Cos(angle))
		y := centerY + innerR*float32(math.Sin(angle))
		path.Line(f32.Pt(x-path.Pos().X, y-path.Pos().Y))
	}
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawFilledCircle(gtx layout.Context, cx, cy, radius float32, col color.NRGBA) {
	const segments = 12
	var path clip.Path
	path.Begin(gtx.Ops)
	path.Move(f32.Pt(cx+radius, cy))
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / segments
		x := cx + radius*float32(math.Cos(angle))
		y := cy + radius*float32(math.Sin(angle))
		path.Line(f32.Pt(x-path.Pos().X, y-path.Pos().Y))
	}
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}
