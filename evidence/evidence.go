// Package evidence defines the per-sub-query outcomes and the ordered
// bundle the orchestrator hands to the synthesis collaborator.
package evidence

import (
	"github.com/meridianworks/codeatlas/retrieval"
)

// Outcome is either a *Record or a *Failure. Exactly one is produced per
// sub-query; the set is closed.
type Outcome interface {
	SubQueryID() string
	outcome()
}

// Record is an accepted result for one sub-query.
type Record struct {
	SubqueryID string `json:"subquery_id"`
	// Payload holds the accepted candidates, possibly enriched with
	// one-hop related entities from the knowledge graph.
	Payload retrieval.Payload `json:"payload"`
	// Backend is the variant whose result passed validation.
	Backend retrieval.Variant `json:"backend"`
	// CacheHit is true when the payload came from the cache rather than a
	// live backend call.
	CacheHit bool `json:"cache_hit"`
	// FallbackDepth is the 1-based tier that produced the payload, or 0
	// for a cache hit.
	FallbackDepth int `json:"fallback_depth"`
	// Score is the validator's relevance score for the accepted payload.
	Score float64 `json:"score"`
	// DependsOn is carried through from the sub-query for the synthesis
	// collaborator.
	DependsOn string `json:"depends_on,omitempty"`
}

func (r *Record) SubQueryID() string { return r.SubqueryID }
func (r *Record) outcome()           {}

// Failure is the structured placeholder for a sub-query that produced no
// accepted result. The synthesis collaborator uses it to acknowledge the
// gap instead of failing the whole interaction.
type Failure struct {
	SubqueryID string `json:"subquery_id"`
	// Attempted lists the backend calls made, in tier order.
	Attempted []retrieval.Attempt `json:"attempted"`
	// Rationale is the last tier's validation rationale, or the scheduler's
	// reason (e.g. "deadline exceeded").
	Rationale string `json:"rationale"`
	// IsError distinguishes a backend/scheduler error from a cascade that
	// exhausted all tiers cleanly.
	IsError bool `json:"is_error"`
}

func (f *Failure) SubQueryID() string { return f.SubqueryID }
func (f *Failure) outcome()           {}

// Stats summarizes a bundle for the observability collaborator.
type Stats struct {
	Subqueries       int `json:"subqueries"`
	Failures         int `json:"failures"`
	Errors           int `json:"errors"`
	CacheHits        int `json:"cache_hits"`
	MaxFallbackDepth int `json:"max_fallback_depth"`
}

// Bundle is the sole output of an orchestration call: one outcome per
// sub-query, in the same order as the input plan.
type Bundle struct {
	Outcomes []Outcome `json:"outcomes"`
	Stats    Stats     `json:"stats"`
}
