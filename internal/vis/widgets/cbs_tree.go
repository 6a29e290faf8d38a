package widgets

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

const (
	treeWidth   = 300
	treeTop     = 40
	levelHeight = 50
	nodeRadius  = 10
)

// SearchTree visualizes the constraint tree, one subtree per allocation.
type SearchTree struct {
	state        *state.State
	selectedNode int
	scrollY      float32
	positions    map[int]f32.Point
}

// NewSearchTree creates a new search tree widget.
func NewSearchTree(st *state.State) *SearchTree {
	return &SearchTree{
		state:        st,
		selectedNode: -1,
	}
}

var (
	ColorNodeClosed   = color.NRGBA{R: 80, G: 100, B: 130, A: 255}
	ColorNodePositive = color.NRGBA{R: 150, G: 110, B: 200, A: 255}
	ColorNodeCurrent  = color.NRGBA{R: 255, G: 200, B: 80, A: 255}
	ColorNodeSolution = color.NRGBA{R: 80, G: 200, B: 120, A: 255}
	ColorNodeSelected = color.NRGBA{R: 255, G: 255, B: 150, A: 255}
	ColorTreeEdge     = color.NRGBA{R: 70, G: 80, B: 90, A: 255}
)

// Layout renders the tree panel.
func (t *SearchTree) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	height := gtx.Constraints.Max.Y
	rect := image.Rect(0, 0, treeWidth, height)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 35, G: 38, B: 42, A: 255}, clip.Rect(rect).Op())

	t.handlePointerEvents(gtx, height)

	layout.Inset{Left: unit.Dp(10), Top: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		label := material.Label(th, 14, "Constraint tree")
		label.Color = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
		return label.Layout(gtx)
	})

	t.drawTree(gtx, height)
	t.drawStats(gtx, th)

	return layout.Dimensions{Size: image.Point{X: treeWidth, Y: height}}
}

func (t *SearchTree) drawTree(gtx layout.Context, height int) {
	algo := t.state.Algo
	nodes := algo.Nodes()
	if len(nodes) == 0 {
		return
	}
	t.positions = treeLayout(algo.Levels(), treeWidth)
	offsetY := -t.scrollY

	for _, n := range nodes {
		parent, ok := t.positions[n.ParentID]
		if !ok {
			continue
		}
		child := t.positions[n.ID]
		drawTreeEdge(gtx, parent.X, parent.Y+offsetY, child.X, child.Y+offsetY)
	}

	current := algo.CurrentNode()
	for _, n := range nodes {
		p := t.positions[n.ID]
		y := p.Y + offsetY
		if y < 20 || y > float32(height) {
			continue
		}
		drawTreeNode(gtx, p.X, y, t.nodeColor(n, current))
	}
}

// treeLayout spreads each level evenly across the panel width.
func treeLayout(levels [][]int, width int) map[int]f32.Point {
	const marginX = 30
	positions := make(map[int]f32.Point)
	avail := float32(width - 2*marginX)
	for depth, ids := range levels {
		n := float32(len(ids))
		for i, id := range ids {
			positions[id] = f32.Point{
				X: marginX + avail*(2*float32(i)+1)/(2*n),
				Y: float32(treeTop + 10 + depth*levelHeight),
			}
		}
	}
	return positions
}

func (t *SearchTree) nodeColor(n *state.TreeNode, current int) color.NRGBA {
	switch {
	case n.ID == t.selectedNode:
		return ColorNodeSelected
	case n.IsSolution:
		return ColorNodeSolution
	case n.ID == current:
		return ColorNodeCurrent
	case n.Positive:
		return ColorNodePositive
	}
	return ColorNodeClosed
}

func drawTreeNode(gtx layout.Context, x, y float32, col color.NRGBA) {
	const segments = 12
	var path clip.Path
	path.Begin(gtx.Ops)
	path.Move(f32.Pt(x+nodeRadius, y))
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / segments
		px := x + nodeRadius*float32(math.Cos(angle))
		py := y + nodeRadius*float32(math.Sin(angle))
		path.Line(f32.Pt(px-path.Pos().X, py-path.Pos().Y))
	}
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawTreeEdge(gtx layout.Context, x1, y1, x2, y2 float32) {
	dx := x2 - x1
	dy := y2 - y1
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 1 {
		return
	}

	dx /= length
	dy /= length
	const width = 2
	px := -dy * width / 2
	py := dx * width / 2

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+px, y1+py))
	path.LineTo(f32.Pt(x2+px, y2+py))
	path.LineTo(f32.Pt(x2-px, y2-py))
	path.LineTo(f32.Pt(x1-px, y1-py))
	path.Close()

	paint.FillShape(gtx.Ops, ColorTreeEdge, clip.Outline{Path: path.End()}.Op())
}

func (t *SearchTree) drawStats(gtx layout.Context, th *material.Theme) {
	algo := t.state.Algo
	expanded, conflicts := algo.Counts()
	lines := []string{
		fmt.Sprintf("Nodes expanded: %d", expanded),
		fmt.Sprintf("Conflicts: %d", conflicts),
		fmt.Sprintf("Roots: %d", len(algo.Roots())),
	}
	if n := algo.Node(t.selectedNode); n != nil {
		kind := "negative"
		if n.Positive {
			kind = "positive"
		}
		lines = append(lines,
			fmt.Sprintf("Node %d (%s, allocation %d)", n.ID, kind, n.Generation),
			fmt.Sprintf("g=%d  allocation g=%d  constraints=%d", n.Cost, n.AllocationCost, n.Constraints),
		)
		if c := n.Conflict; c != nil {
			lines = append(lines, fmt.Sprintf("conflict %d/%d on %v at %d,%d", c.Agent1, c.Agent2, c.Resource, c.Time1, c.Time2))
		}
	}

	children := make([]layout.FlexChild, 0, len(lines))
	for _, line := range lines {
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.Label(th, 11, line)
			label.Color = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
			return label.Layout(gtx)
		}))
	}

	gtx.Constraints.Max.X = treeWidth
	layout.Inset{Left: unit.Dp(10), Bottom: unit.Dp(20)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.S.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
		})
	})
}

func (t *SearchTree) handlePointerEvents(gtx layout.Context, height int) {
	area := clip.Rect(image.Rect(0, 0, treeWidth, height)).Push(gtx.Ops)
	event.Op(gtx.Ops, t)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  t,
			Kinds:   pointer.Scroll | pointer.Press,
			ScrollY: pointer.ScrollRange{Min: -1000, Max: 1000},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Scroll:
			t.scrollY = max(0, t.scrollY+pe.Scroll.Y)
		case pointer.Press:
			t.selectAt(pe.Position.X, pe.Position.Y+t.scrollY)
		}
	}
}

// selectAt selects the node under a press and shows its paths.
func (t *SearchTree) selectAt(x, y float32) {
	t.selectedNode = -1
	for id, p := range t.positions {
		dx, dy := x-p.X, y-p.Y
		if dx*dx+dy*dy <= nodeRadius*nodeRadius*2 {
			t.selectedNode = id
			break
		}
	}
	if n := t.state.Algo.Node(t.selectedNode); n != nil && !t.state.Algo.IsActive() {
		t.state.PreviewPaths(n.Paths)
	}
}
