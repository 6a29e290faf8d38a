package algo

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/elektrokombinacija/robust-cbss/internal/alloc"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/logging"
	"github.com/elektrokombinacija/robust-cbss/internal/metrics"
	"github.com/elektrokombinacija/robust-cbss/internal/oracle"
)

var tracer = otel.Tracer("rcbss.algo")

// AllocationOracle enumerates task allocations by rank. Costs must be
// non-decreasing in k; past the last allocation it returns an exhausted
// allocation.
type AllocationOracle interface {
	Allocation(k int) (alloc.Allocation, error)
	Calls() int
}

// OracleFactory builds the allocation oracle for an instance.
type OracleFactory func(inst *core.Instance, dist *oracle.Oracle) (AllocationOracle, error)

// Option configures an RCBSS solver.
type Option func(*RCBSS)

// WithConflictSeed seeds the conflict tiebreak generator.
func WithConflictSeed(seed int64) Option {
	return func(c *RCBSS) { c.conflictSeed = seed }
}

// WithVerifySeed seeds the verifier's sampling generator.
func WithVerifySeed(seed int64) Option {
	return func(c *RCBSS) { c.verifySeed = seed }
}

// WithMaxGoals bounds the exact allocation solver.
func WithMaxGoals(n int) Option {
	return func(c *RCBSS) { c.maxGoals = n }
}

// WithMaxSamples caps the statistical verifier.
func WithMaxSamples(n int) Option {
	return func(c *RCBSS) { c.maxSamples = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *RCBSS) { c.logger = l }
}

// WithObserver attaches a search observer.
func WithObserver(o Observer) Option {
	return func(c *RCBSS) { c.observer = o }
}

// WithOracleFactory replaces the built-in k-best allocation oracle.
func WithOracleFactory(f OracleFactory) Option {
	return func(c *RCBSS) { c.newOracle = f }
}

// RCBSS is conflict-based search over a lazily enumerated sequence of task
// allocations. Nodes are popped cheapest first; a node whose cost exceeds
// the most recent allocation's cost triggers a new root from the next
// allocation, so an accepted plan is never beaten by an unexplored one.
type RCBSS struct {
	Variant core.Variant

	conflictSeed int64
	verifySeed   int64
	maxGoals     int
	maxSamples   int
	logger       *slog.Logger
	observer     Observer
	newOracle    OracleFactory
}

// NewRCBSS creates a solver for variant v.
func NewRCBSS(v core.Variant, opts ...Option) *RCBSS {
	c := &RCBSS{
		Variant:      v,
		conflictSeed: DefaultConflictSeed,
		verifySeed:   DefaultVerifySeed,
		maxGoals:     alloc.DefaultMaxGoals,
		maxSamples:   DefaultMaxSamples,
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newOracle == nil {
		c.newOracle = c.kBestOracle
	}
	return c
}

func (c *RCBSS) Name() string { return c.Variant.Name }

func (c *RCBSS) kBestOracle(inst *core.Instance, dist *oracle.Oracle) (AllocationOracle, error) {
	starts := make([]core.Position, len(inst.Agents))
	for i, a := range inst.Agents {
		starts[i] = a.Start
	}
	return alloc.NewOracle(starts, inst.Goals, dist,
		alloc.WithHeadings(c.Variant.HeadingAllocation),
		alloc.WithMaxGoals(c.maxGoals),
	)
}

// ctNode is a node of the constraint tree. Paths and constraint slices are
// shared with the parent and replaced, never mutated, when a child changes
// them.
type ctNode struct {
	id       int
	parentID int
	gen      int
	paths    map[core.AgentID]core.Path
	seqs     [][]int
	neg      map[core.AgentID][]Constraint
	pos      map[core.AgentID][]PositiveConstraint
	g        int
	allocG   int
	positive bool
	seq      uint64
	index    int
}

func (n *ctNode) child() *ctNode {
	c := &ctNode{
		parentID: n.id,
		gen:      n.gen,
		paths:    clonePaths(n.paths),
		seqs:     n.seqs,
		neg:      make(map[core.AgentID][]Constraint, len(n.neg)+1),
		pos:      make(map[core.AgentID][]PositiveConstraint, len(n.pos)+2),
		g:        n.g,
		allocG:   n.allocG,
	}
	for a, cs := range n.neg {
		c.neg[a] = cs
	}
	for a, ps := range n.pos {
		c.pos[a] = ps
	}
	return c
}

func (n *ctNode) addNegative(c Constraint) {
	n.neg[c.Agent] = append(append([]Constraint{}, n.neg[c.Agent]...), c)
}

func (n *ctNode) addPositive(p PositiveConstraint) {
	for _, a := range []core.AgentID{p.Agent1, p.Agent2} {
		n.pos[a] = append(append([]PositiveConstraint{}, n.pos[a]...), p)
	}
}

func (n *ctNode) constraintCount() int {
	count := 0
	for _, cs := range n.neg {
		count += len(cs)
	}
	for _, ps := range n.pos {
		count += len(ps)
	}
	return count
}

func (n *ctNode) info() NodeInfo {
	return NodeInfo{
		ID:             n.id,
		ParentID:       n.parentID,
		Generation:     n.gen,
		Cost:           n.g,
		AllocationCost: n.allocG,
		Positive:       n.positive,
		Constraints:    n.constraintCount(),
		Paths:          clonePaths(n.paths),
	}
}

// ctHeap orders nodes by cost, then by insertion.
type ctHeap []*ctNode

func (h ctHeap) Len() int { return len(h) }
func (h ctHeap) Less(i, j int) bool {
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h ctHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *ctHeap) Push(x any) {
	n := x.(*ctNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *ctHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// search is the state of one Solve call.
type search struct {
	inst     *core.Instance
	variant  core.Variant
	allocs   AllocationOracle
	lowlevel *LowLevel
	detector *ConflictDetector
	verifier *Verifier
	logger   *slog.Logger
	observer Observer

	open      *ctHeap
	gen       int
	bound     int
	exhausted bool
	seq       uint64
	nextID    int
	stats     core.Stats
}

// Solve plans robust paths for inst. It returns ErrNoSolution when every
// allocation and constraint combination has been ruled out.
func (c *RCBSS) Solve(ctx context.Context, inst *core.Instance) (sol *core.Solution, err error) {
	if inst == nil {
		return nil, fmt.Errorf("%w: nil instance", core.ErrInvalidInstance)
	}
	ctx, span := tracer.Start(ctx, "RCBSS.Solve",
		trace.WithAttributes(
			attribute.String("rcbss.variant", c.Variant.Name),
			attribute.Int("rcbss.agents", len(inst.Agents)),
			attribute.Int("rcbss.goals", len(inst.Goals)),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "solved"
		switch {
		case errors.Is(err, ErrNoSolution):
			outcome = "no_solution"
		case err != nil:
			outcome = "error"
		}
		metrics.Solves.WithLabelValues(c.Variant.Name, outcome).Inc()
		metrics.SolveDuration.WithLabelValues(c.Variant.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("rcbss.cost", sol.Cost))
		}
	}()

	if err := inst.Validate(); err != nil {
		return nil, err
	}

	dist := oracle.New(inst.Grid)
	dist.Precompute(inst.Goals)
	allocs, err := c.newOracle(inst, dist)
	if err != nil {
		return nil, fmt.Errorf("allocation oracle: %w", err)
	}

	s := &search{
		inst:     inst,
		variant:  c.Variant,
		allocs:   allocs,
		lowlevel: NewLowLevel(inst.Grid, dist, c.Variant.Headings),
		detector: NewConflictDetector(c.Variant.DelayTolerant, c.conflictSeed),
		verifier: NewVerifier(c.Variant.Statistical, inst.NoCollisionProb, inst.Alpha, inst.DelayProbs(), c.verifySeed),
		logger:   c.logger.With(slog.String("variant", c.Variant.Name)),
		observer: c.observer,
		open:     &ctHeap{},
	}
	s.verifier.maxSamples = c.maxSamples
	heap.Init(s.open)

	defer func() {
		metrics.OracleCalls.Add(float64(allocs.Calls()))
		metrics.LowLevelSearches.Add(float64(s.lowlevel.Calls()))
	}()
	return s.run(ctx)
}

func (s *search) run(ctx context.Context) (*core.Solution, error) {
	if _, err := s.mintRoot(); err != nil {
		return nil, err
	}

	for s.open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rcbss: %w", err)
		}
		if s.observer != nil && s.observer.ShouldPause() {
			s.observer.WaitForStep()
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("rcbss: %w", err)
			}
		}

		n := heap.Pop(s.open).(*ctNode)
		if n.g > s.bound {
			minted, err := s.mintRoot()
			if err != nil {
				return nil, err
			}
			if minted {
				heap.Push(s.open, n)
				continue
			}
		}

		s.stats.Expansions++
		if s.observer != nil {
			s.observer.OnNodeExpanded(n.info())
		}

		if !n.positive && s.verify(ctx, n) {
			sol := s.solution(n)
			s.logger.Info("solution found",
				slog.Int("cost", sol.Cost),
				slog.Int("roots", sol.Stats.Roots),
				slog.Int("expansions", sol.Stats.Expansions),
			)
			if s.observer != nil {
				s.observer.OnSolutionFound(n.info(), sol)
			}
			return sol, nil
		}

		conflict := s.detector.Find(n.paths, n.pos)
		if conflict == nil {
			s.logger.Debug("node has no conflict left to branch on", slog.Int("node", n.id))
			continue
		}
		s.stats.ConflictsResolved++
		kind := "vertex"
		if conflict.Resource.IsEdge() {
			kind = "edge"
		}
		metrics.ConflictsResolved.WithLabelValues(kind).Inc()
		if s.observer != nil {
			s.observer.OnConflictDetected(n.info(), conflict)
		}
		s.branch(n, conflict)
	}

	return nil, ErrNoSolution
}

// mintRoot requests the next allocation and pushes its root. It reports
// false once the oracle is exhausted, which lifts the cost bound.
func (s *search) mintRoot() (bool, error) {
	for !s.exhausted {
		s.gen++
		a, err := s.allocs.Allocation(s.gen)
		if err != nil {
			return false, fmt.Errorf("allocation %d: %w", s.gen, err)
		}
		if a.Exhausted() {
			s.exhausted = true
			s.bound = alloc.Infinite
			s.logger.Debug("allocations exhausted", slog.Int("generation", s.gen))
			break
		}
		s.bound = a.Cost
		s.stats.Roots++
		metrics.RootsGenerated.Inc()

		root, err := s.buildRoot(a)
		if err != nil {
			s.logger.Debug("root discarded", slog.Int("generation", s.gen), slog.Any("error", err))
			continue
		}
		s.push(root)
		s.logger.Info("root generated",
			slog.Int("generation", s.gen),
			slog.Int("allocation_cost", a.Cost),
			slog.Int("g", root.g),
		)
		return true, nil
	}
	return false, nil
}

func (s *search) buildRoot(a alloc.Allocation) (*ctNode, error) {
	root := &ctNode{
		parentID: -1,
		gen:      s.gen,
		paths:    make(map[core.AgentID]core.Path, len(s.inst.Agents)),
		seqs:     a.Sequences,
		neg:      make(map[core.AgentID][]Constraint),
		pos:      make(map[core.AgentID][]PositiveConstraint),
		allocG:   a.Cost,
	}
	for i, agent := range s.inst.Agents {
		p, err := s.lowlevel.Plan(agent.ID, agent.Start, a.Sequences[i], nil, nil)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", agent.ID, err)
		}
		root.paths[agent.ID] = p
		root.g += p.Cost()
	}
	return root, nil
}

func (s *search) push(n *ctNode) {
	s.seq++
	n.seq = s.seq
	n.id = s.nextID
	s.nextID++
	heap.Push(s.open, n)
}

func (s *search) verify(ctx context.Context, n *ctNode) bool {
	_, span := tracer.Start(ctx, "RCBSS.verify")
	defer span.End()

	ok := s.verifier.Verify(n.paths)
	span.SetAttributes(
		attribute.Bool("rcbss.verified", ok),
		attribute.Int("rcbss.samples", s.verifier.Samples),
	)
	if s.variant.Statistical {
		metrics.VerifierSamples.Observe(float64(s.verifier.Samples))
	}
	return ok
}

// branch pushes a negative child for each agent that uses the resource
// after time 0, and a positive child that keeps the paths but records the
// pair's timing.
func (s *search) branch(n *ctNode, c *Conflict) {
	sides := []struct {
		agent core.AgentID
		time  int
	}{
		{c.Agent1, c.Time1},
		{c.Agent2, c.Time2},
	}
	for _, side := range sides {
		if side.time == 0 {
			continue
		}
		child := n.child()
		child.addNegative(Constraint{Agent: side.agent, Resource: c.Resource, Time: side.time})
		if err := s.replan(child, side.agent); err != nil {
			s.logger.Debug("child discarded",
				slog.Int("parent", n.id),
				slog.Int("agent", int(side.agent)),
				slog.String("resource", c.Resource.String()),
				slog.Int("time", side.time),
			)
			continue
		}
		s.push(child)
	}

	if s.variant.PositiveBranching {
		child := n.child()
		child.addPositive(PositiveConstraint{
			Agent1:   c.Agent1,
			Agent2:   c.Agent2,
			Resource: c.Resource,
			Time1:    c.Time1,
			Time2:    c.Time2,
		})
		child.positive = true
		s.push(child)
	}
}

func (s *search) replan(n *ctNode, agent core.AgentID) error {
	a := s.inst.AgentByID(agent)
	p, err := s.lowlevel.Plan(agent, a.Start, n.seqs[agent], n.neg[agent], n.pos[agent])
	if err != nil {
		return err
	}
	n.g -= n.paths[agent].Cost()
	n.g += p.Cost()
	n.paths[agent] = p
	return nil
}

func (s *search) solution(n *ctNode) *core.Solution {
	sol := core.NewSolution()
	for _, agent := range s.inst.Agents {
		sol.Paths[agent.ID] = n.paths[agent.ID]
		sol.Sequences[agent.ID] = n.seqs[agent.ID]
	}
	sol.AllocationCost = n.allocG
	sol.Cost = n.g
	sol.Feasible = true
	sol.Stats = s.stats
	sol.Stats.OracleCalls = s.allocs.Calls()
	sol.Stats.LowLevelCalls = s.lowlevel.Calls()
	return sol
}
