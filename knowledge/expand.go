package knowledge

import (
	"context"

	"go.uber.org/zap"

	ometrics "github.com/meridianworks/codeatlas/internal/metrics"
)

// Expander enriches an accepted result with entities one hop away from its
// anchor node. Expansion is bounded and best-effort: a failed call yields no
// related entities and the caller proceeds with the un-enriched payload.
type Expander struct {
	client     *Client
	maxRelated int
	log        *zap.Logger
}

// NewExpander creates an expander bounded to maxRelated entities per anchor
func NewExpander(client *Client, maxRelated int, logger *zap.Logger) *Expander {
	if maxRelated <= 0 {
		maxRelated = client.Config().MaxRelated
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{client: client, maxRelated: maxRelated, log: logger}
}

// Expand fetches directly-related entities for an anchor node
func (e *Expander) Expand(ctx context.Context, nodeID string) []Node {
	if nodeID == "" {
		ometrics.GraphExpansions.WithLabelValues("skipped").Inc()
		return nil
	}
	nodes, err := e.client.Related(ctx, nodeID, e.maxRelated)
	if err != nil {
		ometrics.GraphExpansions.WithLabelValues("error").Inc()
		e.log.Warn("Graph expansion failed, returning un-enriched payload",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return nil
	}
	ometrics.GraphExpansions.WithLabelValues("ok").Inc()
	return nodes
}
