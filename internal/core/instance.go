package core

import (
	"errors"
	"fmt"
)

// ErrInvalidInstance is returned for malformed planning inputs.
var ErrInvalidInstance = errors.New("invalid instance")

// Instance is one planning problem: a grid, agents with start positions,
// the goal cells to distribute among them, and the robustness target.
type Instance struct {
	Grid   *Grid
	Agents []*Agent
	Goals  []int
	// NoCollisionProb is the target probability P that execution under
	// random delays stays collision-free.
	NoCollisionProb float64
	// Alpha is the significance level of the statistical certificate.
	Alpha float64
}

// Default robustness target.
const (
	DefaultNoCollisionProb = 0.9
	DefaultAlpha           = 0.05
)

// NewInstance creates an instance on g with the default robustness target.
func NewInstance(g *Grid) *Instance {
	return &Instance{
		Grid:            g,
		NoCollisionProb: DefaultNoCollisionProb,
		Alpha:           DefaultAlpha,
	}
}

// AddAgent appends an agent with the next free ID.
func (inst *Instance) AddAgent(loc int, h Heading, delayProb float64) *Agent {
	a := NewAgent(AgentID(len(inst.Agents)), loc, h)
	a.DelayProb = delayProb
	inst.Agents = append(inst.Agents, a)
	return a
}

// Clone returns a deep copy of inst.
func (inst *Instance) Clone() *Instance {
	c := *inst
	if inst.Grid != nil {
		c.Grid = inst.Grid.Clone()
	}
	c.Agents = make([]*Agent, len(inst.Agents))
	for i, a := range inst.Agents {
		ac := *a
		c.Agents[i] = &ac
	}
	c.Goals = append([]int(nil), inst.Goals...)
	return &c
}

// Validate checks instance consistency.
func (inst *Instance) Validate() error {
	if inst.Grid == nil || inst.Grid.Size() == 0 {
		return fmt.Errorf("%w: empty map", ErrInvalidInstance)
	}
	if len(inst.Agents) == 0 {
		return fmt.Errorf("%w: no agents", ErrInvalidInstance)
	}
	free := len(inst.Grid.FreeCells())
	if len(inst.Agents) > free {
		return fmt.Errorf("%w: %d agents on %d free cells", ErrInvalidInstance, len(inst.Agents), free)
	}
	starts := make(map[int]AgentID, len(inst.Agents))
	for i, a := range inst.Agents {
		if a.ID != AgentID(i) {
			return fmt.Errorf("%w: agent at index %d has id %d", ErrInvalidInstance, i, a.ID)
		}
		if !inst.Grid.Passable(a.Start.Loc) {
			return fmt.Errorf("%w: agent %d starts on blocked cell %d", ErrInvalidInstance, a.ID, a.Start.Loc)
		}
		if !a.Start.Heading.Valid() {
			return fmt.Errorf("%w: agent %d has heading %d", ErrInvalidInstance, a.ID, a.Start.Heading)
		}
		if other, dup := starts[a.Start.Loc]; dup {
			return fmt.Errorf("%w: agents %d and %d share start %d", ErrInvalidInstance, other, a.ID, a.Start.Loc)
		}
		starts[a.Start.Loc] = a.ID
		if a.DelayProb < 0 || a.DelayProb >= 1 {
			return fmt.Errorf("%w: agent %d delay probability %v outside [0,1)", ErrInvalidInstance, a.ID, a.DelayProb)
		}
	}
	for _, g := range inst.Goals {
		if !inst.Grid.Passable(g) {
			return fmt.Errorf("%w: goal on blocked cell %d", ErrInvalidInstance, g)
		}
	}
	if inst.NoCollisionProb <= 0 || inst.NoCollisionProb >= 1 {
		return fmt.Errorf("%w: no-collision probability %v outside (0,1)", ErrInvalidInstance, inst.NoCollisionProb)
	}
	if inst.Alpha <= 0 || inst.Alpha >= 1 {
		return fmt.Errorf("%w: alpha %v outside (0,1)", ErrInvalidInstance, inst.Alpha)
	}
	return nil
}

// AgentByID finds agent by ID.
func (inst *Instance) AgentByID(id AgentID) *Agent {
	if int(id) >= 0 && int(id) < len(inst.Agents) && inst.Agents[id].ID == id {
		return inst.Agents[id]
	}
	for _, a := range inst.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// DelayProbs returns the per-agent delay probabilities.
func (inst *Instance) DelayProbs() map[AgentID]float64 {
	probs := make(map[AgentID]float64, len(inst.Agents))
	for _, a := range inst.Agents {
		probs[a.ID] = a.DelayProb
	}
	return probs
}
