package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meridianworks/codeatlas/evidence"
	ometrics "github.com/meridianworks/codeatlas/internal/metrics"
	"github.com/meridianworks/codeatlas/plan"
)

// Scheduler fans a research plan out to independent cascade executions,
// bounds their concurrency and wall-clock budget, and fans the outcomes
// back in with per-sub-query error isolation.
type Scheduler struct {
	cascade *Cascade
	log     *zap.Logger
}

// NewScheduler creates a scheduler over one cascade
func NewScheduler(cascade *Cascade, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cascade: cascade, log: logger}
}

// Run resolves every sub-query in the plan and returns the ordered bundle.
// Precondition violations (invalid plan, non-positive budget, concurrency
// below 1) are returned synchronously before any work starts; after that,
// Run never fails. The budget is a hard wall-clock bound: sub-queries still
// unresolved when it elapses receive a deadline failure.
func (s *Scheduler) Run(ctx context.Context, p plan.Plan, budget time.Duration, maxConcurrency int) (evidence.Bundle, error) {
	if err := p.Validate(); err != nil {
		return evidence.Bundle{}, err
	}
	if budget <= 0 {
		return evidence.Bundle{}, ErrInvalidBudget
	}
	if maxConcurrency < 1 {
		return evidence.Bundle{}, ErrInvalidConcurrency
	}

	ometrics.OrchestrationsStarted.Inc()
	start := time.Now()
	defer func() {
		ometrics.OrchestrationDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	log := s.log.With(zap.String("run_id", uuid.NewString()))
	log.Info("Orchestration started",
		zap.Int("subqueries", len(p.Subqueries)),
		zap.Duration("budget", budget),
		zap.Int("max_concurrency", maxConcurrency),
	)

	// Outcomes land at their plan index regardless of completion order.
	outcomes := make([]evidence.Outcome, len(p.Subqueries))
	sem := semaphore.NewWeighted(int64(maxConcurrency))
	var wg sync.WaitGroup

	for i, sq := range p.Subqueries {
		wg.Add(1)
		go func(idx int, sq plan.SubQuery) {
			defer wg.Done()
			outcomes[idx] = s.resolveOne(ctx, sem, sq)
		}(i, sq)
	}
	wg.Wait()

	bundle := Aggregate(outcomes)
	s.observe(bundle)
	log.Info("Orchestration finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("failures", bundle.Stats.Failures),
		zap.Int("errors", bundle.Stats.Errors),
		zap.Int("cache_hits", bundle.Stats.CacheHits),
	)
	return bundle, nil
}

// resolveOne runs a single cascade under the concurrency bound. A panic in
// the cascade is recovered into an error failure so sibling sub-queries
// are untouched.
func (s *Scheduler) resolveOne(ctx context.Context, sem *semaphore.Weighted, sq plan.SubQuery) (out evidence.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Cascade panicked, converting to failure",
				zap.String("subquery_id", sq.ID),
				zap.Any("panic", r),
			)
			out = &evidence.Failure{
				SubqueryID: sq.ID,
				Rationale:  fmt.Sprintf("internal error: %v", r),
				IsError:    true,
			}
		}
	}()

	if err := sem.Acquire(ctx, 1); err != nil {
		// Budget elapsed while waiting for a slot.
		return &evidence.Failure{
			SubqueryID: sq.ID,
			Rationale:  "deadline exceeded",
			IsError:    true,
		}
	}
	defer sem.Release(1)

	return s.cascade.Resolve(ctx, sq)
}

func (s *Scheduler) observe(b evidence.Bundle) {
	for _, out := range b.Outcomes {
		f, ok := out.(*evidence.Failure)
		if !ok {
			ometrics.SubqueriesResolved.WithLabelValues("accepted").Inc()
			continue
		}
		if f.IsError {
			ometrics.SubqueriesResolved.WithLabelValues("error").Inc()
		} else {
			ometrics.SubqueriesResolved.WithLabelValues("exhausted").Inc()
		}
	}
}
