// Package state manages the visualization state.
package state

import (
	"math"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// CellSize is the world-space edge length of one grid cell.
const CellSize = 40.0

// Point is a world-space position.
type Point struct {
	X, Y float64
}

// Pose is an agent's drawn position and facing angle in radians
// (0 is east, increasing clockwise since screen y grows downward).
type Pose struct {
	Point
	Angle float64
}

// State holds all visualization state.
type State struct {
	Instance *core.Instance
	Solution *core.Solution
	Variant  core.Variant
	Playback *PlaybackState
	Edit     *EditState
	Algo     *AlgoState
}

// NewState creates a new visualization state.
func NewState(inst *core.Instance, sol *core.Solution, v core.Variant) *State {
	s := &State{
		Instance: inst,
		Variant:  v,
		Playback: NewPlaybackState(0),
		Edit:     NewEditState(),
		Algo:     NewAlgoState(),
	}
	s.SetSolution(sol)
	return s
}

// SetSolution replaces the displayed plan and rewinds playback.
func (s *State) SetSolution(sol *core.Solution) {
	s.Solution = sol
	maxTime := 0.0
	if sol != nil {
		maxTime = float64(sol.Makespan())
	}
	s.Playback.MaxTime = maxTime
	s.Playback.Reset()
}

// PreviewPaths shows an intermediate node's paths as an uncertified plan.
func (s *State) PreviewPaths(paths map[core.AgentID]core.Path) {
	sol := core.NewSolution()
	for id, p := range paths {
		sol.Paths[id] = p
	}
	sol.Cost = sol.SumOfCosts()
	s.SetSolution(sol)
}

// CellCenter returns the world position of a cell's center.
func (s *State) CellCenter(loc int) Point {
	return GridCellCenter(s.Instance.Grid, loc)
}

// GridCellCenter returns the world position of the center of cell loc of g.
func GridCellCenter(g *core.Grid, loc int) Point {
	row, col := g.RowCol(loc)
	return Point{X: (float64(col) + 0.5) * CellSize, Y: (float64(row) + 0.5) * CellSize}
}

// CellAt returns the cell of g containing the world point (x, y).
func CellAt(g *core.Grid, x, y float64) (int, bool) {
	if x < 0 || y < 0 {
		return -1, false
	}
	col, row := int(x/CellSize), int(y/CellSize)
	if col >= g.Cols || row >= g.Rows {
		return -1, false
	}
	return g.Index(row, col), true
}

// HeadingAngle converts a heading to a screen angle.
func HeadingAngle(h core.Heading) float64 {
	return float64(h) * math.Pi / 2
}

// CurrentPoses returns interpolated agent poses at the playback time.
// Agents without a path stand at their start.
func (s *State) CurrentPoses() map[core.AgentID]Pose {
	poses := make(map[core.AgentID]Pose)
	if s.Instance == nil {
		return poses
	}
	for _, a := range s.Instance.Agents {
		var path core.Path
		if s.Solution != nil {
			path = s.Solution.Paths[a.ID]
		}
		if len(path) == 0 {
			poses[a.ID] = Pose{Point: s.CellCenter(a.Start.Loc), Angle: HeadingAngle(a.Start.Heading)}
			continue
		}
		poses[a.ID] = s.interpolate(path, s.Playback.CurrentTime)
	}
	return poses
}

// interpolate blends the two path positions around time t.
func (s *State) interpolate(path core.Path, t float64) Pose {
	if t <= 0 {
		return s.pose(path[0])
	}
	last := len(path) - 1
	if t >= float64(last) {
		return s.pose(path[last])
	}

	i := int(math.Floor(t))
	alpha := t - float64(i)
	from, to := s.pose(path[i]), s.pose(path[i+1])

	turn := to.Angle - from.Angle
	// Take the short way around.
	if turn > math.Pi {
		turn -= 2 * math.Pi
	} else if turn < -math.Pi {
		turn += 2 * math.Pi
	}
	return Pose{
		Point: Point{
			X: from.X + alpha*(to.X-from.X),
			Y: from.Y + alpha*(to.Y-from.Y),
		},
		Angle: from.Angle + alpha*turn,
	}
}

func (s *State) pose(p core.Position) Pose {
	return Pose{Point: s.CellCenter(p.Loc), Angle: HeadingAngle(p.Heading)}
}

// PathHistory returns the visited cell centers up to the playback time,
// ending at the agent's current position.
func (s *State) PathHistory(id core.AgentID) []Point {
	if s.Solution == nil {
		return nil
	}
	path := s.Solution.Paths[id]
	if len(path) == 0 {
		return nil
	}

	var history []Point
	for t, pos := range path {
		if float64(t) > s.Playback.CurrentTime {
			break
		}
		history = append(history, s.CellCenter(pos.Loc))
	}
	if len(history) > 0 {
		history = append(history, s.interpolate(path, s.Playback.CurrentTime).Point)
	}
	return history
}

// FuturePath returns the cell centers the agent has yet to reach.
func (s *State) FuturePath(id core.AgentID) []Point {
	if s.Solution == nil {
		return nil
	}
	path := s.Solution.Paths[id]
	if len(path) < 2 {
		return nil
	}
	start := int(math.Floor(s.Playback.CurrentTime))
	if start >= len(path)-1 {
		return nil
	}
	future := []Point{s.interpolate(path, s.Playback.CurrentTime).Point}
	for _, pos := range path[start+1:] {
		future = append(future, s.CellCenter(pos.Loc))
	}
	return future
}

// Bounds returns the world-space extent of the grid.
func (s *State) Bounds() (maxX, maxY float64) {
	if s.Instance == nil {
		return 0, 0
	}
	return float64(s.Instance.Grid.Cols) * CellSize, float64(s.Instance.Grid.Rows) * CellSize
}
