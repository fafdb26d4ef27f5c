package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/embeddings"
	"github.com/meridianworks/codeatlas/knowledge"
)

// VectorSearch performs nearest-neighbor search against the knowledge
// store's vector index. When the planner supplied a hypothetical-document
// hint, the hint is embedded instead of the raw query text.
type VectorSearch struct {
	store    *knowledge.Client
	embedder *embeddings.Service
	topK     int
	log      *zap.Logger
}

// NewVectorSearch creates the vector search backend
func NewVectorSearch(store *knowledge.Client, embedder *embeddings.Service, topK int, logger *zap.Logger) *VectorSearch {
	if topK <= 0 {
		topK = store.Config().TopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorSearch{store: store, embedder: embedder, topK: topK, log: logger}
}

func (v *VectorSearch) Variant() Variant { return VariantVectorSearch }

func (v *VectorSearch) Fetch(ctx context.Context, query, hint string) (Payload, error) {
	text := query
	if hint != "" {
		text = hint
	}

	vec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return Payload{}, classify(fmt.Errorf("embed query: %w", err))
	}

	nodes, err := v.store.VectorQuery(ctx, vec, v.topK)
	if err != nil {
		return Payload{}, classify(fmt.Errorf("vector query: %w", err))
	}

	return payloadFromNodes(nodes), nil
}

func payloadFromNodes(nodes []knowledge.ScoredNode) Payload {
	items := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, Item{
			NodeID:     n.ID,
			Kind:       n.Kind,
			Identifier: n.Identifier,
			Title:      n.Title,
			Excerpt:    n.Text,
			Score:      n.Score,
		})
	}
	return Payload{Items: items}
}
