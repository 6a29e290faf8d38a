// Package sim executes plans under random per-step delays.
//
// Every step each unfinished agent either advances one position along its
// path or, with its delay probability, stays where it is. Two agents collide
// when they occupy the same cell or swap cells within one step. Agents leave
// the floor once they reach the end of their path.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// Config configures the simulation parameters.
type Config struct {
	// Delays maps each agent to its per-step delay probability.
	// Missing agents never delay.
	Delays map[core.AgentID]float64

	// Random seed for reproducibility
	Seed int64

	// RotateOnExecute makes agents turn toward their next cell, one
	// quarter turn per step, before moving. Grid is required.
	RotateOnExecute bool
	Grid            *core.Grid

	// MaxSteps aborts Execute after this many steps; 0 means unbounded.
	MaxSteps int
}

// DefaultConfig returns default simulation configuration.
func DefaultConfig() Config {
	return Config{
		Seed: 47,
	}
}

// Collision is a collision observed during execution.
type Collision struct {
	Step           int
	Agent1, Agent2 core.AgentID
	Loc            int
	// Swap marks an edge collision; Loc is then Agent1's origin cell.
	Swap bool
}

// Metrics summarizes one execution.
type Metrics struct {
	Steps int
	// SumOfCosts counts, per step, every agent that had not finished.
	SumOfCosts int
	Collisions []Collision
}

// Success reports whether execution was collision-free.
func (m *Metrics) Success() bool {
	return len(m.Collisions) == 0
}

// Simulator runs plans. It is not safe for concurrent use.
type Simulator struct {
	config Config
	rng    *rand.Rand
}

// NewSimulator creates a simulator seeded from config.
func NewSimulator(config Config) *Simulator {
	return &Simulator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

type agentState struct {
	id      core.AgentID
	path    core.Path
	idx     int
	heading core.Heading
	delay   float64
}

func (a *agentState) active() bool {
	return a.idx < len(a.path)-1
}

func (s *Simulator) setup(paths map[core.AgentID]core.Path) []*agentState {
	ids := make([]core.AgentID, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	agents := make([]*agentState, 0, len(ids))
	for _, id := range ids {
		p := paths[id]
		if len(p) == 0 {
			continue
		}
		agents = append(agents, &agentState{
			id:      id,
			path:    p,
			heading: p[0].Heading,
			delay:   s.config.Delays[id],
		})
	}
	return agents
}

// step advances every active agent once and returns the collisions among
// the agents that were active during the step.
func (s *Simulator) step(agents []*agentState, n int, stopEarly bool) ([]Collision, int) {
	moving := make([]*agentState, 0, len(agents))
	prev := make([]int, 0, len(agents))
	for _, a := range agents {
		if !a.active() {
			continue
		}
		moving = append(moving, a)
		prev = append(prev, a.path[a.idx].Loc)
		if s.rng.Float64() < a.delay {
			continue
		}
		if s.config.RotateOnExecute && s.turn(a) {
			continue
		}
		a.idx++
	}

	var collisions []Collision
	for i := 0; i < len(moving); i++ {
		for j := i + 1; j < len(moving); j++ {
			a, b := moving[i], moving[j]
			la, lb := a.path[a.idx].Loc, b.path[b.idx].Loc
			switch {
			case la == lb:
				collisions = append(collisions, Collision{Step: n, Agent1: a.id, Agent2: b.id, Loc: la})
			case la != prev[i] && la == prev[j] && lb == prev[i]:
				collisions = append(collisions, Collision{Step: n, Agent1: a.id, Agent2: b.id, Loc: prev[i], Swap: true})
			}
			if stopEarly && len(collisions) > 0 {
				return collisions, len(moving)
			}
		}
	}
	return collisions, len(moving)
}

// turn rotates a one quarter toward its next cell and reports whether the
// step was spent turning.
func (s *Simulator) turn(a *agentState) bool {
	cur, next := a.path[a.idx].Loc, a.path[a.idx+1].Loc
	if cur == next || s.config.Grid == nil {
		return false
	}
	want, ok := s.config.Grid.HeadingTo(cur, next)
	if !ok || want == a.heading {
		return false
	}
	if a.heading.Left() == want {
		a.heading = want
	} else {
		a.heading = a.heading.Right()
	}
	return true
}

// Run executes paths once and reports whether no collision occurred.
func (s *Simulator) Run(paths map[core.AgentID]core.Path) bool {
	agents := s.setup(paths)
	for n := 1; ; n++ {
		collisions, moved := s.step(agents, n, true)
		if len(collisions) > 0 {
			return false
		}
		if moved == 0 {
			return true
		}
	}
}

// Execute runs paths to completion, recording every collision and the
// sum of costs actually incurred.
func (s *Simulator) Execute(ctx context.Context, paths map[core.AgentID]core.Path) (*Metrics, error) {
	agents := s.setup(paths)
	m := &Metrics{}
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return m, fmt.Errorf("execute: %w", err)
		}
		if s.config.MaxSteps > 0 && n > s.config.MaxSteps {
			return m, fmt.Errorf("execute: exceeded %d steps", s.config.MaxSteps)
		}
		collisions, moved := s.step(agents, n, false)
		if moved == 0 {
			return m, nil
		}
		m.Steps = n
		m.SumOfCosts += moved
		m.Collisions = append(m.Collisions, collisions...)
	}
}

// SuccessRate runs paths n times and returns the collision-free fraction.
func (s *Simulator) SuccessRate(paths map[core.AgentID]core.Path, n int) float64 {
	if n <= 0 {
		return 0
	}
	ok := 0
	for i := 0; i < n; i++ {
		if s.Run(paths) {
			ok++
		}
	}
	return float64(ok) / float64(n)
}
