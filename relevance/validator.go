// Package relevance scores candidate payloads against their sub-query and
// decides sufficiency. The threshold is fixed: no other component may
// reinterpret it.
package relevance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	ometrics "github.com/meridianworks/codeatlas/internal/metrics"
	"github.com/meridianworks/codeatlas/plan"
	"github.com/meridianworks/codeatlas/retrieval"
)

// SufficiencyThreshold is the fixed relevance score at or above which a
// candidate payload is accepted. Not per-call configurable: cascade
// behavior stays predictable and testable.
const SufficiencyThreshold = 6.0

// Result is the validator's verdict for one (sub-query, payload) pair
type Result struct {
	Score      float64 `json:"score"` // 0-10
	Sufficient bool    `json:"sufficient"`
	Rationale  string  `json:"rationale"`
}

// Scorer produces a 0-10 relevance score with a rationale. May be a hosted
// language-model call or a local heuristic.
type Scorer interface {
	Score(ctx context.Context, query, candidate string) (float64, string, error)
}

// Validator wraps a Scorer with the sufficiency decision. Verdicts are
// memoized per (sub-query, payload) for the validator's lifetime, so a
// scoring service with sub-0.5 jitter can never flip the boundary decision
// within one process run.
type Validator struct {
	scorer Scorer
	log    *zap.Logger

	mu   sync.Mutex
	memo map[string]Result
}

// NewValidator creates a validator around a scorer
func NewValidator(scorer Scorer, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{scorer: scorer, log: logger, memo: make(map[string]Result)}
}

// Validate scores a payload against its sub-query and applies the
// sufficiency threshold. A scoring-service failure is inconclusive:
// insufficient, never fatal.
func (v *Validator) Validate(ctx context.Context, sq plan.SubQuery, p retrieval.Payload) Result {
	if p.Empty() {
		return Result{Score: 0, Sufficient: false, Rationale: "no candidates returned"}
	}

	candidate := payloadText(p)
	key := memoKey(sq.Text, candidate)

	v.mu.Lock()
	if res, ok := v.memo[key]; ok {
		v.mu.Unlock()
		return res
	}
	v.mu.Unlock()

	score, rationale, err := v.scorer.Score(ctx, sq.Text, candidate)
	if err != nil {
		ometrics.ValidationInconclusive.Inc()
		v.log.Warn("Relevance scoring unavailable, treating as insufficient",
			zap.String("subquery_id", sq.ID),
			zap.Error(err),
		)
		// Not memoized: the service may recover before the next tier.
		return Result{
			Score:      0,
			Sufficient: false,
			Rationale:  fmt.Sprintf("relevance scoring unavailable: %v", err),
		}
	}

	score = clamp(score, 0, 10)
	res := Result{
		Score:      score,
		Sufficient: score >= SufficiencyThreshold,
		Rationale:  rationale,
	}

	v.mu.Lock()
	v.memo[key] = res
	v.mu.Unlock()

	return res
}

func memoKey(query, candidate string) string {
	sum := sha256.Sum256([]byte(plan.Fingerprint(query) + "|" + candidate))
	return hex.EncodeToString(sum[:])
}

// payloadText flattens a payload into the text handed to the scorer
func payloadText(p retrieval.Payload) string {
	var b strings.Builder
	for i, it := range p.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		if it.Identifier != "" {
			b.WriteString(it.Identifier)
			b.WriteString(": ")
		}
		if it.Title != "" {
			b.WriteString(it.Title)
			b.WriteString(". ")
		}
		if it.Excerpt != "" {
			b.WriteString(it.Excerpt)
		}
		if it.URL != "" {
			b.WriteString(" (")
			b.WriteString(it.URL)
			b.WriteString(")")
		}
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
