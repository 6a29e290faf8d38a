package core

import "fmt"

// Grid is a rectangular 4-connected map. Cells are indexed row-major:
// loc = row*Cols + col. A grid is not modified once planning starts.
type Grid struct {
	Rows, Cols int
	blocked    []bool
}

// NewGrid creates an open grid with no obstacles.
func NewGrid(rows, cols int) *Grid {
	return &Grid{
		Rows:    rows,
		Cols:    cols,
		blocked: make([]bool, rows*cols),
	}
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	return &Grid{
		Rows:    g.Rows,
		Cols:    g.Cols,
		blocked: append([]bool(nil), g.blocked...),
	}
}

// Size returns the number of cells.
func (g *Grid) Size() int {
	return g.Rows * g.Cols
}

// Index returns the cell index for (row, col).
func (g *Grid) Index(row, col int) int {
	return row*g.Cols + col
}

// RowCol splits a cell index into row and column.
func (g *Grid) RowCol(loc int) (row, col int) {
	return loc / g.Cols, loc % g.Cols
}

// Block marks a cell as impassable.
func (g *Grid) Block(loc int) {
	if g.InBounds(loc) {
		g.blocked[loc] = true
	}
}

// Unblock frees a blocked cell.
func (g *Grid) Unblock(loc int) {
	if g.InBounds(loc) {
		g.blocked[loc] = false
	}
}

// InBounds reports whether loc names a cell of the grid.
func (g *Grid) InBounds(loc int) bool {
	return loc >= 0 && loc < len(g.blocked)
}

// Passable reports whether loc is inside the grid and free.
func (g *Grid) Passable(loc int) bool {
	return g.InBounds(loc) && !g.blocked[loc]
}

// Offset returns the index delta of one step in direction h.
func (g *Grid) Offset(h Heading) int {
	switch h {
	case East:
		return 1
	case South:
		return g.Cols
	case West:
		return -1
	default:
		return -g.Cols
	}
}

// Step returns the cell reached by moving one cell from loc towards h.
// It fails when the move leaves the grid, wraps across a row boundary or
// lands on a blocked cell.
func (g *Grid) Step(loc int, h Heading) (int, bool) {
	if !g.InBounds(loc) {
		return -1, false
	}
	_, col := g.RowCol(loc)
	if (h == East && col == g.Cols-1) || (h == West && col == 0) {
		return -1, false
	}
	next := loc + g.Offset(h)
	if !g.Passable(next) {
		return -1, false
	}
	return next, true
}

// Neighbors returns the passable cells adjacent to loc, in heading order.
func (g *Grid) Neighbors(loc int) []int {
	neighbors := make([]int, 0, 4)
	for h := East; h <= North; h++ {
		if next, ok := g.Step(loc, h); ok {
			neighbors = append(neighbors, next)
		}
	}
	return neighbors
}

// HeadingTo returns the heading that moves from loc to the adjacent cell next.
func (g *Grid) HeadingTo(loc, next int) (Heading, bool) {
	for h := East; h <= North; h++ {
		if n, ok := g.Step(loc, h); ok && n == next {
			return h, true
		}
	}
	return East, false
}

// FreeCells lists every passable cell in index order.
func (g *Grid) FreeCells() []int {
	free := make([]int, 0, len(g.blocked))
	for loc, b := range g.blocked {
		if !b {
			free = append(free, loc)
		}
	}
	return free
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid %dx%d (%d free)", g.Rows, g.Cols, len(g.FreeCells()))
}
