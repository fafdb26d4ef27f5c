package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/cache"
	"github.com/meridianworks/codeatlas/evidence"
	ometrics "github.com/meridianworks/codeatlas/internal/metrics"
	"github.com/meridianworks/codeatlas/knowledge"
	"github.com/meridianworks/codeatlas/plan"
	"github.com/meridianworks/codeatlas/relevance"
	"github.com/meridianworks/codeatlas/retrieval"
)

const (
	defaultStepTimeout = 10 * time.Second
	defaultCacheTTL    = 24 * time.Hour
)

// Cascade resolves one sub-query by walking the fixed tier order: cache,
// then each backend in priority sequence, stopping at the first payload the
// validator accepts. Tiers run strictly sequentially; each tier's necessity
// depends on the previous tier's insufficiency.
//
// A Cascade is safe for concurrent use; all mutable state is per-call.
type Cascade struct {
	backends    []retrieval.Backend
	validator   *relevance.Validator
	expander    *knowledge.Expander
	store       cache.Store
	stepTimeout time.Duration
	cacheTTL    time.Duration
	log         *zap.Logger
}

// CascadeOptions configures a fallback cascade. Backends are attempted in
// slice order. Store and Expander may be nil: caching and enrichment are
// then skipped entirely.
type CascadeOptions struct {
	Backends    []retrieval.Backend
	Validator   *relevance.Validator
	Expander    *knowledge.Expander
	Store       cache.Store
	StepTimeout time.Duration
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// NewCascade creates a cascade over the given tiers
func NewCascade(opts CascadeOptions) *Cascade {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = defaultStepTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Cascade{
		backends:    opts.Backends,
		validator:   opts.Validator,
		expander:    opts.Expander,
		store:       opts.Store,
		stepTimeout: opts.StepTimeout,
		cacheTTL:    opts.CacheTTL,
		log:         opts.Logger,
	}
}

// Resolve walks the tier order for one sub-query and returns exactly one
// outcome: a Record on acceptance, a Failure on exhaustion or cancellation.
// Backend and validator errors never propagate; they advance the cascade.
func (c *Cascade) Resolve(ctx context.Context, sq plan.SubQuery) evidence.Outcome {
	key := plan.Fingerprint(sq.Text)

	if rec := c.tryCache(ctx, sq, key); rec != nil {
		return rec
	}

	attempts := make([]retrieval.Attempt, 0, len(c.backends))
	lastRationale := "no backends configured"

	for i, b := range c.backends {
		if ctx.Err() != nil {
			return c.deadlineFailure(sq, attempts)
		}

		payload, attempt := c.fetch(ctx, b, sq)
		attempts = append(attempts, attempt)

		// A call in flight when the deadline fired may return, but its
		// result is discarded: a cancelled cascade never yields a Record.
		if ctx.Err() != nil {
			return c.deadlineFailure(sq, attempts)
		}

		if !attempt.Success {
			lastRationale = attempt.Err
			continue
		}

		res := c.validator.Validate(ctx, sq, payload)
		ometrics.ValidationScore.WithLabelValues(b.Variant().String()).Observe(res.Score)
		lastRationale = res.Rationale
		if !res.Sufficient {
			c.log.Debug("Tier result insufficient, advancing",
				zap.String("subquery_id", sq.ID),
				zap.String("backend", b.Variant().String()),
				zap.Float64("score", res.Score),
			)
			continue
		}

		enriched := c.enrich(ctx, payload)
		c.writeBack(ctx, key, enriched, b.Variant())

		depth := i + 1
		ometrics.CascadeDepth.Observe(float64(depth))
		c.log.Info("Sub-query resolved",
			zap.String("subquery_id", sq.ID),
			zap.String("backend", b.Variant().String()),
			zap.Int("fallback_depth", depth),
			zap.Float64("score", res.Score),
		)
		return &evidence.Record{
			SubqueryID:    sq.ID,
			Payload:       enriched,
			Backend:       b.Variant(),
			CacheHit:      false,
			FallbackDepth: depth,
			Score:         res.Score,
			DependsOn:     sq.DependsOn,
		}
	}

	c.log.Info("Sub-query exhausted all tiers",
		zap.String("subquery_id", sq.ID),
		zap.Int("attempted", len(attempts)),
	)
	return &evidence.Failure{
		SubqueryID: sq.ID,
		Attempted:  attempts,
		Rationale:  lastRationale,
		IsError:    false,
	}
}

// tryCache returns a Record when a cached entry exists and still validates.
// A hit that fails validation is treated as a miss; the entry stays put,
// eviction is the store's concern.
func (c *Cascade) tryCache(ctx context.Context, sq plan.SubQuery, key string) *evidence.Record {
	if c.store == nil {
		return nil
	}
	entry, ok := c.store.Get(ctx, key)
	if !ok {
		return nil
	}

	res := c.validator.Validate(ctx, sq, entry.Payload)
	ometrics.ValidationScore.WithLabelValues(entry.Backend.String()).Observe(res.Score)
	if !res.Sufficient {
		c.log.Debug("Cached entry no longer sufficient, treating as miss",
			zap.String("subquery_id", sq.ID),
			zap.Float64("score", res.Score),
		)
		return nil
	}

	ometrics.CascadeDepth.Observe(0)
	return &evidence.Record{
		SubqueryID:    sq.ID,
		Payload:       entry.Payload,
		Backend:       entry.Backend,
		CacheHit:      true,
		FallbackDepth: 0,
		Score:         res.Score,
		DependsOn:     sq.DependsOn,
	}
}

// fetch invokes one backend under the per-step timeout and records the
// attempt. An empty payload with a nil error is a successful attempt.
func (c *Cascade) fetch(ctx context.Context, b retrieval.Backend, sq plan.SubQuery) (retrieval.Payload, retrieval.Attempt) {
	stepCtx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()

	start := time.Now()
	payload, err := b.Fetch(stepCtx, sq.Text, sq.Hint)
	latency := time.Since(start)

	attempt := retrieval.Attempt{
		Backend: b.Variant(),
		Latency: latency,
		Success: err == nil,
	}
	status := "ok"
	if err != nil {
		attempt.Err = err.Error()
		status = "error"
		if retrieval.IsTimeout(err) {
			status = "timeout"
		}
		c.log.Warn("Backend fetch failed, advancing to next tier",
			zap.String("subquery_id", sq.ID),
			zap.String("backend", b.Variant().String()),
			zap.Error(err),
		)
	} else if payload.Empty() {
		status = "empty"
	}
	ometrics.BackendLatency.WithLabelValues(b.Variant().String(), status).Observe(latency.Seconds())

	return payload, attempt
}

// enrich appends one-hop related entities when the payload is anchored in
// the knowledge graph. Expansion failures leave the payload untouched.
func (c *Cascade) enrich(ctx context.Context, p retrieval.Payload) retrieval.Payload {
	if c.expander == nil {
		return p
	}
	anchor := p.Anchor()
	if anchor == "" {
		ometrics.GraphExpansions.WithLabelValues("skipped").Inc()
		return p
	}

	related := c.expander.Expand(ctx, anchor)
	if len(related) == 0 {
		return p
	}

	seen := make(map[string]struct{}, len(p.Items))
	for _, it := range p.Items {
		if it.NodeID != "" {
			seen[it.NodeID] = struct{}{}
		}
	}
	items := append([]retrieval.Item(nil), p.Items...)
	for _, n := range related {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		items = append(items, retrieval.Item{
			NodeID:     n.ID,
			Kind:       n.Kind,
			Identifier: n.Identifier,
			Title:      n.Title,
			Excerpt:    n.Text,
		})
	}
	return retrieval.Payload{Items: items}
}

// writeBack stores the accepted, post-expansion payload. Best-effort: the
// store logs its own failures and a write error never fails the cascade.
func (c *Cascade) writeBack(ctx context.Context, key string, p retrieval.Payload, backend retrieval.Variant) {
	if c.store == nil {
		return
	}
	c.store.Set(ctx, key, cache.Entry{
		ID:       key,
		Payload:  p,
		Backend:  backend,
		StoredAt: time.Now(),
	}, c.cacheTTL)
}

func (c *Cascade) deadlineFailure(sq plan.SubQuery, attempts []retrieval.Attempt) *evidence.Failure {
	return &evidence.Failure{
		SubqueryID: sq.ID,
		Attempted:  attempts,
		Rationale:  "deadline exceeded",
		IsError:    true,
	}
}
