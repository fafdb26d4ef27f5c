package orchestrator

import (
	"github.com/meridianworks/codeatlas/evidence"
)

// Aggregate folds per-sub-query outcomes, already in plan order, into the
// evidence bundle handed to the synthesis collaborator. Pure: no I/O, no
// failure mode.
func Aggregate(outcomes []evidence.Outcome) evidence.Bundle {
	stats := evidence.Stats{Subqueries: len(outcomes)}
	for _, out := range outcomes {
		switch o := out.(type) {
		case *evidence.Record:
			if o.CacheHit {
				stats.CacheHits++
			}
			if o.FallbackDepth > stats.MaxFallbackDepth {
				stats.MaxFallbackDepth = o.FallbackDepth
			}
		case *evidence.Failure:
			stats.Failures++
			if o.IsError {
				stats.Errors++
			}
		}
	}
	return evidence.Bundle{Outcomes: outcomes, Stats: stats}
}
