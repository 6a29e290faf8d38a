package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadingTurns(t *testing.T) {
	tests := []struct {
		h           Heading
		left, right Heading
	}{
		{East, North, South},
		{South, East, West},
		{West, South, North},
		{North, West, East},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.left, tt.h.Left(), "Left(%v)", tt.h)
		assert.Equal(t, tt.right, tt.h.Right(), "Right(%v)", tt.h)
	}
}

func TestGridStep(t *testing.T) {
	g := NewGrid(3, 3)
	g.Block(4)

	tests := []struct {
		name string
		loc  int
		h    Heading
		want int
		ok   bool
	}{
		{"east", 0, East, 1, true},
		{"south", 0, South, 3, true},
		{"north off grid", 0, North, -1, false},
		{"west off grid", 0, West, -1, false},
		{"east wraps row", 2, East, -1, false},
		{"west wraps row", 3, West, -1, false},
		{"into obstacle", 1, South, -1, false},
		{"bottom edge", 7, South, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Step(tt.loc, tt.h)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGridNeighbors(t *testing.T) {
	g := NewGrid(3, 3)
	g.Block(1)

	assert.Equal(t, []int{3}, g.Neighbors(0))
	assert.ElementsMatch(t, []int{3, 5, 7}, g.Neighbors(4))
	assert.Len(t, g.FreeCells(), 8)

	h, ok := g.HeadingTo(4, 7)
	require.True(t, ok)
	assert.Equal(t, South, h)
}

func TestParseMap(t *testing.T) {
	src := "type octile\nheight 3\nwidth 4\nmap\n....\n.@T.\n..G.\n"
	g, err := ParseMap(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 3, g.Rows)
	assert.Equal(t, 4, g.Cols)
	assert.False(t, g.Passable(g.Index(1, 1)))
	assert.False(t, g.Passable(g.Index(1, 2)))
	assert.True(t, g.Passable(g.Index(2, 2)))
	assert.Equal(t, []string{"....", ".@@.", "...."}, g.RowStrings())
}

func TestParseMapHeaderMismatch(t *testing.T) {
	_, err := ParseMap(strings.NewReader("height 2\nwidth 2\nmap\n..\n"))
	assert.Error(t, err)

	_, err = ParseRows([]string{"...", ".."})
	assert.Error(t, err)
}

func TestInstanceValidate(t *testing.T) {
	valid := func() *Instance {
		inst := NewInstance(NewGrid(3, 3))
		inst.AddAgent(0, East, 0.1)
		inst.AddAgent(8, West, 0)
		inst.Goals = []int{2, 6}
		return inst
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Instance)
	}{
		{"no agents", func(i *Instance) { i.Agents = nil }},
		{"blocked start", func(i *Instance) { i.Grid.Block(0) }},
		{"shared start", func(i *Instance) { i.Agents[1].Start.Loc = 0 }},
		{"goal out of bounds", func(i *Instance) { i.Goals = append(i.Goals, 9) }},
		{"delay of one", func(i *Instance) { i.Agents[0].DelayProb = 1 }},
		{"probability of one", func(i *Instance) { i.NoCollisionProb = 1 }},
		{"zero alpha", func(i *Instance) { i.Alpha = 0 }},
		{"bad heading", func(i *Instance) { i.Agents[0].Start.Heading = 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := valid()
			tt.mutate(inst)
			assert.ErrorIs(t, inst.Validate(), ErrInvalidInstance)
		})
	}
}

func TestPathCost(t *testing.T) {
	assert.Equal(t, 0, Path(nil).Cost())
	p := Path{At(0, East), At(1, East), At(2, East)}
	assert.Equal(t, 2, p.Cost())
	assert.Equal(t, At(2, East), p.At(10))
	assert.Equal(t, []int{0, 1, 2}, p.Locs())
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("RCBSS-EFF")
	require.NoError(t, err)
	assert.True(t, v.Headings)
	assert.True(t, v.Statistical)

	v, err = ParseVariant("idp")
	require.NoError(t, err)
	assert.False(t, v.PositiveBranching)

	_, err = ParseVariant("nope")
	assert.Error(t, err)
}

func TestParseHeading(t *testing.T) {
	for in, want := range map[string]Heading{"E": East, "south": South, " W ": West, "North": North, "": East} {
		h, err := ParseHeading(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, h, in)
	}
	_, err := ParseHeading("up")
	assert.Error(t, err)
}

func TestInstanceClone(t *testing.T) {
	inst := NewInstance(NewGrid(2, 2))
	inst.AddAgent(0, East, 0.1)
	inst.Goals = []int{3}

	c := inst.Clone()
	c.Grid.Block(3)
	c.Agents[0].Start.Heading = West
	c.Goals[0] = 1

	assert.True(t, inst.Grid.Passable(3))
	assert.Equal(t, East, inst.Agents[0].Start.Heading)
	assert.Equal(t, []int{3}, inst.Goals)

	c.Grid.Unblock(3)
	assert.True(t, c.Grid.Passable(3))
}
