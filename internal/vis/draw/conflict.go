package draw

import (
	"image/color"
	"math"
	"time"

	"gioui.org/layout"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/interact"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

var (
	ColorConflictVertex = color.NRGBA{R: 255, G: 80, B: 80, A: 200}
	ColorConflictEdge   = color.NRGBA{R: 255, G: 150, B: 80, A: 200}
	// Conflicts between agents using a resource at different times.
	ColorConflictDelayed = color.NRGBA{R: 255, G: 210, B: 80, A: 200}
)

func conflictColor(c *algo.Conflict) color.NRGBA {
	switch {
	case c.Delta > 0:
		return ColorConflictDelayed
	case c.Resource.IsEdge():
		return ColorConflictEdge
	}
	return ColorConflictVertex
}

// DrawConflict draws the branching conflict with a pulsing marker.
func DrawConflict(gtx layout.Context, conflict *algo.Conflict, g *core.Grid, camera *interact.Camera) {
	if conflict == nil {
		return
	}
	pulse := float32(math.Sin(float64(time.Now().UnixMilli())/200.0)*0.3 + 0.7)
	col := conflictColor(conflict)

	if conflict.Resource.IsEdge() {
		drawEdgeConflict(gtx, conflict, g, camera, pulse, col)
		return
	}
	c := state.GridCellCenter(g, conflict.Resource.A)
	x, y := camera.WorldToScreen(c.X, c.Y)
	radius := float32(state.CellSize) * 0.45 * camera.Zoom * pulse
	DrawCircleOutline(gtx, x, y, radius, col, 3*camera.Zoom)
	drawFilledCircle(gtx, x, y, radius*0.4*pulse, col)
}

func drawEdgeConflict(gtx layout.Context, conflict *algo.Conflict, g *core.Grid, camera *interact.Camera, pulse float32, col color.NRGBA) {
	a := state.GridCellCenter(g, conflict.Resource.A)
	b := state.GridCellCenter(g, conflict.Resource.B)
	x1, y1 := camera.WorldToScreen(a.X, a.Y)
	x2, y2 := camera.WorldToScreen(b.X, b.Y)
	midX, midY := (x1+x2)/2, (y1+y2)/2

	radius := float32(state.CellSize) * 0.35 * camera.Zoom * pulse
	DrawCircleOutline(gtx, midX, midY, radius, col, 2*camera.Zoom)

	lineLen := radius * 0.7
	for _, angle := range []float64{45, 135} {
		rad := angle * math.Pi / 180
		dx := float32(math.Cos(rad)) * lineLen
		dy := float32(math.Sin(rad)) * lineLen
		drawPathSegment(gtx, midX-dx, midY-dy, midX+dx, midY+dy, 3, col)
	}

	faded := col
	faded.A = uint8(float32(col.A) * pulse)
	drawPathSegment(gtx, x1, y1, x2, y2, 4*camera.Zoom, faded)
}
