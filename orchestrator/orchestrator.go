// Package orchestrator resolves a decomposed research plan against the
// tiered retrieval backends: each sub-query runs its own fallback cascade
// concurrently under a global wall-clock budget, and the outcomes are folded
// into one order-preserving evidence bundle.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/evidence"
	"github.com/meridianworks/codeatlas/plan"
)

const (
	// DefaultBudget bounds one orchestration run when the caller does not
	// specify a budget.
	DefaultBudget = 2 * time.Minute
	// DefaultMaxConcurrency bounds concurrent cascades per run.
	DefaultMaxConcurrency = 5
)

// Options wires an Orchestrator. All dependencies are injected explicitly;
// there are no process-wide singletons, so tests substitute in-memory fakes.
type Options struct {
	CascadeOptions

	// Budget is the default wall-clock bound for Run.
	Budget time.Duration
	// MaxConcurrency is the default concurrent-cascade bound for Run.
	MaxConcurrency int
}

// Orchestrator is the entry point of this library: it ties the cascade,
// the scheduler, and the aggregator together.
type Orchestrator struct {
	scheduler      *Scheduler
	budget         time.Duration
	maxConcurrency int
}

// New creates an orchestrator from explicitly injected dependencies
func New(opts Options) *Orchestrator {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cascade := NewCascade(opts.CascadeOptions)
	return &Orchestrator{
		scheduler:      NewScheduler(cascade, logger),
		budget:         opts.Budget,
		maxConcurrency: opts.MaxConcurrency,
	}
}

// Run resolves the plan under the orchestrator's default budget and
// concurrency bound.
func (o *Orchestrator) Run(ctx context.Context, p plan.Plan) (evidence.Bundle, error) {
	return o.scheduler.Run(ctx, p, o.budget, o.maxConcurrency)
}

// RunWithin resolves the plan under an explicit budget and concurrency
// bound, overriding the defaults for this call only.
func (o *Orchestrator) RunWithin(ctx context.Context, p plan.Plan, budget time.Duration, maxConcurrency int) (evidence.Bundle, error) {
	return o.scheduler.Run(ctx, p, budget, maxConcurrency)
}
