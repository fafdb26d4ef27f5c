package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/knowledge"
)

// DirectLookup resolves queries that name a structured entity outright:
// "Section 1607.12.1", "Table 1604.3", "Equation 16-7". It is the cheapest
// tier; a query with no identifier pattern falls through immediately with
// an empty payload.
type DirectLookup struct {
	store *knowledge.Client
	log   *zap.Logger
}

// NewDirectLookup creates the direct lookup backend
func NewDirectLookup(store *knowledge.Client, logger *zap.Logger) *DirectLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectLookup{store: store, log: logger}
}

func (d *DirectLookup) Variant() Variant { return VariantDirectLookup }

var (
	// "Section 1607.12.1", "table 1604.3", "Equation 16-7", "Figure 1608.2"
	labeledIdentifier = regexp.MustCompile(`(?i)\b(section|table|equation|figure|chapter)\s+([0-9]+(?:[.\-][0-9A-Za-z]+)*)`)
	// bare dotted section numbers: "1607.12.1"
	bareSection = regexp.MustCompile(`\b[0-9]{3,4}(?:\.[0-9]+)+\b`)
)

// MatchIdentifier extracts the canonical structured identifier from a query,
// or "" when the query names none.
func MatchIdentifier(query string) string {
	if m := labeledIdentifier.FindStringSubmatch(query); m != nil {
		label := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		return label + " " + m[2]
	}
	if m := bareSection.FindString(query); m != "" {
		return "Section " + m
	}
	return ""
}

func (d *DirectLookup) Fetch(ctx context.Context, query, _ string) (Payload, error) {
	identifier := MatchIdentifier(query)
	if identifier == "" {
		return Payload{}, nil
	}

	node, err := d.store.Lookup(ctx, identifier)
	if err != nil {
		return Payload{}, classify(fmt.Errorf("direct lookup %q: %w", identifier, err))
	}
	if node == nil {
		// Known pattern but no such entity: a valid empty result.
		return Payload{}, nil
	}

	return Payload{Items: []Item{{
		NodeID:     node.ID,
		Kind:       node.Kind,
		Identifier: node.Identifier,
		Title:      node.Title,
		Excerpt:    node.Text,
	}}}, nil
}
