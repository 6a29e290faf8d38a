package algo

import (
	"math"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/sim"
)

// DefaultVerifySeed seeds the verifier's delay sampling.
const DefaultVerifySeed = 47

// DefaultMaxSamples caps the sequential test; an undecided plan is rejected.
const DefaultMaxSamples = 20000

// Verifier decides whether a plan is safe to execute.
type Verifier struct {
	statistical bool
	prob        float64
	z           float64
	maxSamples  int
	sim         *sim.Simulator

	// Samples is the number of simulations the last check ran.
	Samples int
}

// NewVerifier creates a verifier. In exact mode a plan is accepted iff it
// has no conflict on the nominal schedule. In statistical mode a plan is
// accepted once sampled executions show, at significance alpha, that it
// stays collision-free with probability at least prob.
func NewVerifier(statistical bool, prob, alpha float64, delays map[core.AgentID]float64, seed int64) *Verifier {
	return &Verifier{
		statistical: statistical,
		prob:        prob,
		z:           normalQuantile(1 - alpha),
		maxSamples:  DefaultMaxSamples,
		sim:         sim.NewSimulator(sim.Config{Delays: delays, Seed: seed}),
	}
}

// InitialSamples returns the size of the first simulation batch,
// max(30, ceil(z²·P/(1−P))).
func (v *Verifier) InitialSamples() int {
	s := int(math.Ceil(v.z * v.z * v.prob / (1 - v.prob)))
	return max(30, s)
}

// Verify checks paths.
func (v *Verifier) Verify(paths map[core.AgentID]core.Path) bool {
	if !v.statistical {
		v.Samples = 0
		return FindExactConflict(paths, nil) == nil
	}
	return v.sequentialTest(paths)
}

// bounds returns the acceptance and rejection thresholds after s samples.
func (v *Verifier) bounds(s int) (c1, c2 float64) {
	margin := v.z * math.Sqrt(v.prob*(1-v.prob)/float64(s))
	return v.prob + margin, v.prob - margin
}

func (v *Verifier) sequentialTest(paths map[core.AgentID]core.Path) bool {
	s := v.InitialSamples()
	successes := 0
	for i := 0; i < s; i++ {
		if v.sim.Run(paths) {
			successes++
		}
	}
	for {
		v.Samples = s
		p0 := float64(successes) / float64(s)
		c1, c2 := v.bounds(s)
		switch {
		case p0 >= c1:
			return true
		case p0 < c2:
			return false
		case s >= v.maxSamples:
			return false
		}
		if v.sim.Run(paths) {
			successes++
		}
		s++
	}
}
