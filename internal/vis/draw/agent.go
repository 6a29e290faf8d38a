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

var palette = []color.NRGBA{
	{R: 100, G: 200, B: 255, A: 255},
	{R: 255, G: 150, B: 100, A: 255},
	{R: 200, G: 100, B: 255, A: 255},
	{R: 120, G: 220, B: 120, A: 255},
	{R: 255, G: 110, B: 170, A: 255},
	{R: 240, G: 220, B: 90, A: 255},
	{R: 90, G: 210, B: 200, A: 255},
	{R: 180, G: 160, B: 120, A: 255},
}

var ColorAgentSelected = color.NRGBA{R: 255, G: 255, B: 100, A: 255}

// AgentColor returns the color assigned to an agent.
func AgentColor(id core.AgentID) color.NRGBA {
	return palette[int(id)%len(palette)]
}

// DrawAgent draws an agent as a disc with a heading wedge.
func DrawAgent(gtx layout.Context, id core.AgentID, pose state.Pose, camera *interact.Camera, selected bool) {
	x, y := camera.WorldToScreen(pose.X, pose.Y)
	r := float32(state.CellSize) * 0.35 * camera.Zoom

	col := AgentColor(id)
	if selected {
		DrawCircleOutline(gtx, x, y, r*1.25, ColorAgentSelected, 2*camera.Zoom)
	}
	drawFilledCircle(gtx, x, y, r, col)
	drawHeading(gtx, x, y, r, pose.Angle)
}

func drawHeading(gtx layout.Context, cx, cy, r float32, angle float64) {
	dx, dy := float32(math.Cos(angle)), float32(math.Sin(angle))
	px, py := -dy, dx

	tipX, tipY := cx+dx*r*0.9, cy+dy*r*0.9
	baseX, baseY := cx+dx*r*0.1, cy+dy*r*0.1
	w := r * 0.4

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(tipX, tipY))
	path.LineTo(f32.Pt(baseX+px*w, baseY+py*w))
	path.LineTo(f32.Pt(baseX-px*w, baseY-py*w))
	path.Close()

	paint.FillShape(gtx.Ops, color.NRGBA{R: 20, G: 20, B: 24, A: 230}, clip.Outline{Path: path.End()}.Op())
}

// DrawAgents draws all agents at their current poses.
func DrawAgents(gtx layout.Context, agents []*core.Agent, poses map[core.AgentID]state.Pose, camera *interact.Camera, selected map[core.AgentID]bool) {
	for _, a := range agents {
		pose, ok := poses[a.ID]
		if !ok {
			continue
		}
		DrawAgent(gtx, a.ID, pose, camera, selected[a.ID])
	}
}
