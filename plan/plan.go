// Package plan defines the research plan handed to the orchestrator by the
// upstream query planner. A plan is immutable once created; the orchestrator
// only ever reads it.
package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPlan is returned when a plan contains no sub-queries.
	ErrEmptyPlan = errors.New("plan: empty research plan")
	// ErrDuplicateSubquery is returned when two sub-queries share an ID.
	ErrDuplicateSubquery = errors.New("plan: duplicate subquery id")
	// ErrBlankSubquery is returned when a sub-query has no text.
	ErrBlankSubquery = errors.New("plan: subquery with empty text")
)

// SubQuery is one decomposed unit of a research plan, resolved independently.
type SubQuery struct {
	// ID is stable and unique within the plan.
	ID string `json:"id"`
	// Text is the question to resolve.
	Text string `json:"text"`
	// Hint optionally carries a hypothetical document produced by the
	// planner, used by semantic search instead of the raw text.
	Hint string `json:"hint,omitempty"`
	// DependsOn optionally marks a sub-query whose answer this one builds
	// on. The orchestrator records it for the synthesis collaborator but
	// does not sequence on it.
	DependsOn string `json:"depends_on,omitempty"`
}

// Plan is an ordered sequence of sub-queries.
type Plan struct {
	Subqueries []SubQuery `json:"subqueries"`
}

// Validate checks the plan's structural invariants: non-empty, unique IDs,
// non-blank text.
func (p Plan) Validate() error {
	if len(p.Subqueries) == 0 {
		return ErrEmptyPlan
	}
	seen := make(map[string]struct{}, len(p.Subqueries))
	for i, sq := range p.Subqueries {
		if sq.Text == "" {
			return fmt.Errorf("%w (index %d)", ErrBlankSubquery, i)
		}
		if _, ok := seen[sq.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateSubquery, sq.ID)
		}
		seen[sq.ID] = struct{}{}
	}
	return nil
}
