package observer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/elektrokombinacija/robust-cbss/internal/algo"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis/state"
)

// Result is the outcome of one background search.
type Result struct {
	Variant  core.Variant
	Solution *core.Solution
	Err      error
}

// Runner runs one search at a time in the background and reports its
// progress into an AlgoState.
type Runner struct {
	algo       *state.AlgoState
	logger     *slog.Logger
	invalidate func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan Result
}

// NewRunner creates a runner.
func NewRunner(as *state.AlgoState, logger *slog.Logger, invalidate func()) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{algo: as, logger: logger, invalidate: invalidate}
}

// Start launches a search over a snapshot of inst. Any running search is
// stopped first. With stepping set the search waits for Step before each
// expansion.
func (r *Runner) Start(inst *core.Instance, v core.Variant, stepping bool, opts ...algo.Option) {
	r.Stop()

	snapshot := inst.Clone()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	r.algo.Start(stepping)
	obs := NewAlgoStateObserver(r.algo, r.invalidate)
	opts = append(append([]algo.Option(nil), opts...), algo.WithObserver(obs), algo.WithLogger(r.logger))
	solver := algo.NewRCBSS(v, opts...)

	go func() {
		defer cancel()
		sol, err := solver.Solve(ctx, snapshot)
		if err != nil {
			r.logger.Info("visual search ended", slog.String("variant", v.Name), slog.Any("error", err))
		}
		r.mu.Lock()
		current := r.done == done
		r.mu.Unlock()
		if current {
			r.algo.Stop()
		}
		done <- Result{Variant: v, Solution: sol, Err: err}
		if r.invalidate != nil {
			r.invalidate()
		}
	}()
}

// Stop cancels the running search, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		r.algo.Stop()
	}
}

// Poll returns the finished search's result without blocking.
func (r *Runner) Poll() (Result, bool) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return Result{}, false
	}
	select {
	case res := <-done:
		r.mu.Lock()
		if r.done == done {
			r.done = nil
		}
		r.mu.Unlock()
		return res, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the running search finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context) (Result, error) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return Result{}, context.Canceled
	}
	select {
	case res := <-done:
		r.mu.Lock()
		if r.done == done {
			r.done = nil
		}
		r.mu.Unlock()
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
