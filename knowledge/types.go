package knowledge

import "time"

// Config controls the knowledge store client behavior
type Config struct {
	Host string
	Port int
	// Search params
	TopK      int
	Threshold float64
	Timeout   time.Duration
	// Expansion bound
	MaxRelated int
}

// Node is one entity in the graph-structured knowledge store: a code
// section, table, equation, or figure.
type Node struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Text       string `json:"text"`
}

// ScoredNode is a search candidate with its similarity or lexical score
type ScoredNode struct {
	Node
	Score float64 `json:"score"`
}
