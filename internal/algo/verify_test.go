package algo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

func TestNormalQuantile(t *testing.T) {
	tests := []struct {
		p, want float64
	}{
		{0.5, 0},
		{0.95, 1.6448536},
		{0.975, 1.9599640},
		{0.99, 2.3263479},
		{0.05, -1.6448536},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalQuantile(tt.p), 1e-6, "p=%v", tt.p)
	}
	assert.True(t, math.IsInf(normalQuantile(0), -1))
	assert.InDelta(t, 0.975, normalCDF(normalQuantile(0.975)), 1e-9)
}

func TestInitialSamples(t *testing.T) {
	tests := []struct {
		prob, alpha float64
		want        int
	}{
		{0.9, 0.05, 30},
		{0.99, 0.05, 268},
		{0.95, 0.01, 103},
	}
	for _, tt := range tests {
		v := NewVerifier(true, tt.prob, tt.alpha, nil, 1)
		assert.Equal(t, tt.want, v.InitialSamples(), "P=%v alpha=%v", tt.prob, tt.alpha)
	}
}

func TestStatisticalAcceptsDisjointPlanInFirstBatch(t *testing.T) {
	paths := map[core.AgentID]core.Path{
		0: path(0, 1, 2, 3),
		1: path(8, 9, 10, 11),
	}
	delays := map[core.AgentID]float64{0: 0.3, 1: 0.3}
	v := NewVerifier(true, 0.9, 0.05, delays, DefaultVerifySeed)

	assert.True(t, v.Verify(paths))
	assert.Equal(t, 30, v.Samples)
}

func TestStatisticalRejectsFragilePlan(t *testing.T) {
	// Agent 1 crosses cell 1 one step after agent 0 leaves it.
	paths := map[core.AgentID]core.Path{
		0: path(1, 2, 3),
		1: path(5, 1, 0),
	}
	delays := map[core.AgentID]float64{0: 0.5, 1: 0}
	v := NewVerifier(true, 0.9, 0.05, delays, DefaultVerifySeed)

	assert.False(t, v.Verify(paths))
	assert.Equal(t, 30, v.Samples)
}

func TestExactVerify(t *testing.T) {
	v := NewVerifier(false, 0.9, 0.05, nil, DefaultVerifySeed)
	assert.True(t, v.Verify(map[core.AgentID]core.Path{0: path(0, 1), 1: path(3, 2)}))
	assert.False(t, v.Verify(map[core.AgentID]core.Path{0: path(0, 1), 1: path(1, 0)}))
}

func TestExactImpliesZeroDelayStatistical(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := core.NewGrid(4, 4)
	exact := NewVerifier(false, 0.9, 0.05, nil, 1)
	checked := 0

	for trial := 0; trial < 200; trial++ {
		paths := make(map[core.AgentID]core.Path)
		for a := 0; a < 3; a++ {
			loc := rng.Intn(g.Size())
			p := core.Path{core.At(loc, core.East)}
			for step := rng.Intn(6); step > 0; step-- {
				if next, ok := g.Step(loc, core.Heading(rng.Intn(4))); ok {
					loc = next
				}
				p = append(p, core.At(loc, core.East))
			}
			paths[core.AgentID(a)] = p
		}
		if !exact.Verify(paths) {
			continue
		}
		checked++
		zero := map[core.AgentID]float64{0: 0, 1: 0, 2: 0}
		stat := NewVerifier(true, 0.95, 0.05, zero, int64(trial))
		assert.True(t, stat.Verify(paths), "trial %d", trial)
	}
	assert.Greater(t, checked, 10)
}
