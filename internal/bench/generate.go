// Package bench generates benchmark instances and runs planners over them.
package bench

import (
	"fmt"
	"math/rand"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// Layout is a pool of start positions and goal cells drawn once per
// instance. Smaller problem sizes use prefixes of the same pool, so growing
// the agent or goal count only ever adds to an instance.
type Layout struct {
	Starts []core.Position
	Goals  []int
}

// NewLayout samples distinct free cells: maxAgents starts with random
// headings, then maxGoals goals from the cells left over.
func NewLayout(g *core.Grid, maxAgents, maxGoals int, rng *rand.Rand) (*Layout, error) {
	free := g.FreeCells()
	if maxAgents+maxGoals > len(free) {
		return nil, fmt.Errorf("%d agents and %d goals need more than %d free cells", maxAgents, maxGoals, len(free))
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	l := &Layout{Goals: append([]int(nil), free[maxAgents:maxAgents+maxGoals]...)}
	for _, loc := range free[:maxAgents] {
		l.Starts = append(l.Starts, core.At(loc, core.Heading(rng.Intn(4))))
	}
	return l, nil
}

// Instance builds an instance from the first agents starts and goals
// goals, every agent sharing the same delay probability.
func (l *Layout) Instance(g *core.Grid, agents, goals int, delay, prob float64) (*core.Instance, error) {
	if agents > len(l.Starts) || goals > len(l.Goals) {
		return nil, fmt.Errorf("layout holds %d agents and %d goals, asked for %d and %d",
			len(l.Starts), len(l.Goals), agents, goals)
	}
	inst := core.NewInstance(g)
	inst.NoCollisionProb = prob
	for _, s := range l.Starts[:agents] {
		inst.AddAgent(s.Loc, s.Heading, delay)
	}
	inst.Goals = append([]int(nil), l.Goals[:goals]...)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Generate draws count layouts from a generator seeded with seed.
func Generate(g *core.Grid, count, maxAgents, maxGoals int, seed int64) ([]*Layout, error) {
	rng := rand.New(rand.NewSource(seed))
	layouts := make([]*Layout, 0, count)
	for i := 0; i < count; i++ {
		l, err := NewLayout(g, maxAgents, maxGoals, rng)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}
