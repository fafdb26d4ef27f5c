package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/knowledge"
)

// GraphKeywordSearch performs lexical full-text search against the
// knowledge store. It is the tier behind vector search: used when semantic
// matching yields nothing usable.
type GraphKeywordSearch struct {
	store *knowledge.Client
	topK  int
	log   *zap.Logger
}

// NewGraphKeywordSearch creates the keyword search backend
func NewGraphKeywordSearch(store *knowledge.Client, topK int, logger *zap.Logger) *GraphKeywordSearch {
	if topK <= 0 {
		topK = store.Config().TopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphKeywordSearch{store: store, topK: topK, log: logger}
}

func (g *GraphKeywordSearch) Variant() Variant { return VariantGraphKeyword }

func (g *GraphKeywordSearch) Fetch(ctx context.Context, query, _ string) (Payload, error) {
	nodes, err := g.store.KeywordQuery(ctx, query, g.topK)
	if err != nil {
		return Payload{}, classify(fmt.Errorf("keyword query: %w", err))
	}
	return payloadFromNodes(nodes), nil
}
