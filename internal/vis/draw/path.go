package draw

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/robust-cbss/internal/vis/interact"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

// DrawPath draws a polyline through world points.
func DrawPath(gtx layout.Context, path []state.Point, camera *interact.Camera, col color.NRGBA, width float32) {
	if len(path) < 2 {
		return
	}
	w := width * camera.Zoom
	for i := 0; i < len(path)-1; i++ {
		x1, y1 := camera.WorldToScreen(path[i].X, path[i].Y)
		x2, y2 := camera.WorldToScreen(path[i+1].X, path[i+1].Y)
		drawPathSegment(gtx, x1, y1, x2, y2, w, col)
	}
}

// DrawPathTrail draws a fading trail behind an agent.
func DrawPathTrail(gtx layout.Context, history []state.Point, camera *interact.Camera, baseColor color.NRGBA, maxWidth float32) {
	n := len(history)
	if n < 2 {
		return
	}
	for i := 0; i < n-1; i++ {
		col := baseColor
		col.A = uint8(50 + float64(i)/float64(n)*150)
		w := maxWidth * camera.Zoom * (0.3 + 0.7*float32(i)/float32(n))

		x1, y1 := camera.WorldToScreen(history[i].X, history[i].Y)
		x2, y2 := camera.WorldToScreen(history[i+1].X, history[i+1].Y)
		drawPathSegment(gtx, x1, y1, x2, y2, w, col)
	}
}

// DrawFuturePath draws the upcoming path dimmed, with direction arrows.
func DrawFuturePath(gtx layout.Context, future []state.Point, camera *interact.Camera, col color.NRGBA) {
	dim := col
	dim.A = 80
	DrawPath(gtx, future, camera, dim, 1.5)

	for i := 0; i < len(future)-1; i++ {
		dx := future[i+1].X - future[i].X
		dy := future[i+1].Y - future[i].Y
		length := math.Hypot(dx, dy)
		if length < 5 {
			continue
		}
		midX := (future[i].X + future[i+1].X) / 2
		midY := (future[i].Y + future[i+1].Y) / 2
		drawArrow(gtx, midX, midY, dx/length, dy/length, camera, dim)
	}
}

func drawPathSegment(gtx layout.Context, x1, y1, x2, y2, width float32, col color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 0.1 {
		return
	}

	dx /= length
	dy /= length
	px := -dy * width / 2
	py := dx * width / 2

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+px, y1+py))
	path.LineTo(f32.Pt(x2+px, y2+py))
	path.LineTo(f32.Pt(x2-px, y2-py))
	path.LineTo(f32.Pt(x1-px, y1-py))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawArrow(gtx layout.Context, x, y, dirX, dirY float64, camera *interact.Camera, col color.NRGBA) {
	screenX, screenY := camera.WorldToScreen(x, y)
	size := float32(6) * camera.Zoom

	tipX := screenX + float32(dirX)*size
	tipY := screenY + float32(dirY)*size
	perpX := -float32(dirY) * size * 0.5
	perpY := float32(dirX) * size * 0.5
	baseX := screenX - float32(dirX)*size*0.3
	baseY := screenY - float32(dirY)*size*0.3

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(tipX, tipY))
	path.LineTo(f32.Pt(baseX+perpX, baseY+perpY))
	path.LineTo(f32.Pt(baseX-perpX, baseY-perpY))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}
