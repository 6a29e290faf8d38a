package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func TestDistOpenGrid(t *testing.T) {
	g := core.NewGrid(4, 4)
	o := New(g)

	assert.Equal(t, 0, o.Dist(5, 5))
	assert.Equal(t, 6, o.Dist(0, 15))
	assert.Equal(t, 6, o.Dist(15, 0))
	assert.Equal(t, 3, o.Dist(0, 3))
}

func TestDistAroundWall(t *testing.T) {
	// ....
	// .@@.
	// .@..
	g, err := core.ParseRows([]string{"....", ".@@.", ".@.."})
	assert.NoError(t, err)
	o := New(g)

	// 8 -> 10 must go around through the top row.
	assert.Equal(t, 8, o.Dist(8, 10))
	assert.Equal(t, Unreachable, o.Dist(8, 5))
}

func TestDistDisconnected(t *testing.T) {
	g, err := core.ParseRows([]string{".@."})
	assert.NoError(t, err)
	o := New(g)
	assert.Equal(t, Unreachable, o.Dist(0, 2))
}

func TestHeadingDist(t *testing.T) {
	g := core.NewGrid(3, 3)
	o := New(g)

	tests := []struct {
		name     string
		from, to core.Position
		want     int
	}{
		{"same", core.At(0, core.East), core.At(0, core.East), 0},
		{"turn", core.At(0, core.East), core.At(0, core.South), 1},
		{"about face", core.At(0, core.East), core.At(0, core.West), 2},
		{"straight", core.At(0, core.East), core.At(2, core.East), 2},
		{"corner", core.At(0, core.East), core.At(8, core.South), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.HeadingDist(tt.from, tt.to))
		})
	}

	assert.Equal(t, 5, o.HeadingDistToCell(core.At(0, core.East), 8))
	assert.Equal(t, 6, o.HeadingDistToCell(core.At(0, core.West), 8))
}

func TestHeadingDistDominatesDist(t *testing.T) {
	g, err := core.ParseRows([]string{".....", ".@@..", "...@.", "....."})
	assert.NoError(t, err)
	o := New(g)

	for _, from := range g.FreeCells() {
		for _, to := range g.FreeCells() {
			for h := core.East; h <= core.North; h++ {
				assert.GreaterOrEqual(t, o.HeadingDistToCell(core.At(from, h), to), o.Dist(from, to))
			}
		}
	}
}
