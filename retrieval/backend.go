// Package retrieval defines the uniform contract between the fallback
// cascade and the heterogeneous retrieval backends, plus the four backend
// implementations: direct lookup, vector search, graph keyword search, and
// web search.
package retrieval

import (
	"context"
	"time"
)

// Variant tags one of the four retrieval strategies. The set is closed:
// the cascade iterates variants in fixed priority order and its control
// flow is exhaustively testable against this enum.
type Variant int

const (
	VariantDirectLookup Variant = iota
	VariantVectorSearch
	VariantGraphKeyword
	VariantWebSearch
)

func (v Variant) String() string {
	switch v {
	case VariantDirectLookup:
		return "direct_lookup"
	case VariantVectorSearch:
		return "vector_search"
	case VariantGraphKeyword:
		return "graph_keyword"
	case VariantWebSearch:
		return "web_search"
	default:
		return "unknown"
	}
}

// Item is one candidate piece of evidence. Graph-anchored items carry a
// NodeID; web results carry a URL and no NodeID.
type Item struct {
	NodeID     string  `json:"node_id,omitempty"`
	Kind       string  `json:"kind,omitempty"` // section, table, equation, figure
	Identifier string  `json:"identifier,omitempty"`
	Title      string  `json:"title,omitempty"`
	Excerpt    string  `json:"excerpt,omitempty"`
	URL        string  `json:"url,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Payload is the uniform result shape every backend returns. An empty
// payload with a nil error means the backend responded but had no
// candidates; it is not an error.
type Payload struct {
	Items []Item `json:"items"`
}

// Empty reports whether the payload carries no candidates.
func (p Payload) Empty() bool { return len(p.Items) == 0 }

// Anchor returns the node ID of the first graph-anchored item, or "" when
// the payload has no anchor (web results, empty payloads).
func (p Payload) Anchor() string {
	for _, it := range p.Items {
		if it.NodeID != "" {
			return it.NodeID
		}
	}
	return ""
}

// Attempt records one backend call made by the cascade. Attempts are
// created fresh per call and folded into the sub-query's outcome.
type Attempt struct {
	Backend Variant       `json:"backend"`
	Latency time.Duration `json:"latency"`
	Success bool          `json:"success"`
	Err     string        `json:"error,omitempty"`
}

// Backend is one retrieval strategy against one external source.
//
// Fetch returns the candidates for a query. hint, when non-empty, is a
// hypothetical document the planner produced for semantic matching;
// backends that cannot use it ignore it. Implementations must honor ctx
// cancellation at their I/O boundaries.
type Backend interface {
	Variant() Variant
	Fetch(ctx context.Context, query, hint string) (Payload, error)
}
