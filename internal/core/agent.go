package core

// AgentID is a unique agent identifier.
type AgentID int

// Agent is a robot that executes one waypoint sequence.
type Agent struct {
	ID    AgentID
	Start Position
	// DelayProb is the probability that the agent stays put in an
	// execution step instead of advancing along its path.
	DelayProb float64
}

// NewAgent creates an agent at start with no execution delays.
func NewAgent(id AgentID, loc int, h Heading) *Agent {
	return &Agent{
		ID:    id,
		Start: At(loc, h),
	}
}
