// Package cache implements the memoization layer shared by all fallback
// cascades. Entries are keyed by the sub-query fingerprint; writes are
// idempotent upserts, so concurrent cascades need no coordination beyond
// the store's own atomicity. Eviction is the store's concern, not the
// cascade's.
package cache

import (
	"context"
	"time"

	"github.com/meridianworks/codeatlas/retrieval"
)

// Entry is one cached retrieval result. Payloads are stored post-enrichment
// so a hit never re-runs graph expansion.
type Entry struct {
	ID       string            `json:"id"`
	Payload  retrieval.Payload `json:"payload"`
	Backend  retrieval.Variant `json:"backend"`
	StoredAt time.Time         `json:"stored_at"`
}

// Store is the cache contract the cascade depends on. Both operations are
// best-effort: implementations log failures and degrade to a miss (Get) or
// a no-op (Set); a cache outage never fails a cascade.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration)
}
