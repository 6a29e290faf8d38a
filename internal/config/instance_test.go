package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func TestLoadInlineInstance(t *testing.T) {
	path := writeFile(t, t.TempDir(), "inst.yaml", `
grid:
  - "...."
  - ".@.."
agents:
  - {loc: 0, heading: E}
  - {loc: 7, heading: north, delay: 0.2}
goals: [3, 4]
no_collision_prob: 0.95
`)
	inst, err := LoadInstance(path, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 2, inst.Grid.Rows)
	assert.False(t, inst.Grid.Passable(5))
	require.Len(t, inst.Agents, 2)
	assert.Equal(t, core.At(0, core.East), inst.Agents[0].Start)
	assert.Equal(t, 0.1, inst.Agents[0].DelayProb)
	assert.Equal(t, core.At(7, core.North), inst.Agents[1].Start)
	assert.Equal(t, 0.2, inst.Agents[1].DelayProb)
	assert.Equal(t, []int{3, 4}, inst.Goals)
	assert.Equal(t, 0.95, inst.NoCollisionProb)
	assert.Equal(t, 0.05, inst.Alpha)
}

func TestLoadInstanceWithMapFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiny.map", "type octile\nheight 2\nwidth 3\nmap\n..@\n...\n")
	path := writeFile(t, dir, "inst.yaml", "map: tiny.map\nagents:\n  - {loc: 0}\ngoals: [5]\n")

	inst, err := LoadInstance(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, inst.Grid.Cols)
	assert.False(t, inst.Grid.Passable(2))
}

func TestInstanceErrors(t *testing.T) {
	tests := []struct {
		name string
		file InstanceFile
	}{
		{"no grid", InstanceFile{Goals: []int{0}}},
		{"both sources", InstanceFile{Map: "x.map", Grid: []string{".."}}},
		{"bad heading", InstanceFile{Grid: []string{".."}, Agents: []AgentEntry{{Loc: 0, Heading: "up"}}}},
		{"agent off map", InstanceFile{Grid: []string{".."}, Agents: []AgentEntry{{Loc: 9}}}},
		{"goal off map", InstanceFile{Grid: []string{".."}, Agents: []AgentEntry{{Loc: 0}}, Goals: []int{-1}}},
		{"blocked start", InstanceFile{Grid: []string{"@."}, Agents: []AgentEntry{{Loc: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.file.Build(0)
			assert.ErrorIs(t, err, core.ErrInvalidInstance)
		})
	}
}

func TestSaveInstanceRoundTrip(t *testing.T) {
	g := core.NewGrid(3, 3)
	g.Block(4)
	inst := core.NewInstance(g)
	inst.AddAgent(0, core.South, 0.3)
	inst.AddAgent(8, core.West, 0)
	inst.Goals = []int{2, 6}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, SaveInstance(path, inst))
	back, err := LoadInstance(path, 0.5)
	require.NoError(t, err)

	assert.Equal(t, inst.Grid.RowStrings(), back.Grid.RowStrings())
	assert.Equal(t, inst.Goals, back.Goals)
	assert.Equal(t, inst.DelayProbs(), back.DelayProbs())
	assert.Equal(t, inst.Agents[0].Start, back.Agents[0].Start)
}
