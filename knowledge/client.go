// Package knowledge is the HTTP client for the graph-structured knowledge
// store: targeted lookup by identifier, vector similarity search, full-text
// keyword search, and one-hop relationship expansion.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/internal/circuitbreaker"
	"github.com/meridianworks/codeatlas/internal/tracing"
)

// Client is a minimal knowledge store HTTP client
type Client struct {
	cfg   Config
	http  *http.Client
	base  string
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// NewClient creates a client with config defaults applied
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := cfg
	if c.Port == 0 {
		c.Port = 7474
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxRelated == 0 {
		c.MaxRelated = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: c.Timeout}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "knowledge-store", "retrieval", logger)
	return &Client{
		cfg:   c,
		http:  httpClient,
		base:  fmt.Sprintf("http://%s:%d", c.Host, c.Port),
		httpw: httpw,
		log:   logger,
	}
}

// Config returns the effective configuration
func (c *Client) Config() Config { return c.cfg }

type vectorQueryRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold *float64  `json:"score_threshold,omitempty"`
}

type keywordQueryRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []ScoredNode `json:"results"`
}

type relatedResponse struct {
	Nodes []Node `json:"nodes"`
}

// Lookup fetches the node matching a structured identifier. A store-level
// not-found is (nil, nil), not an error, so the cascade can fall through
// fast.
func (c *Client) Lookup(ctx context.Context, identifier string) (*Node, error) {
	u := fmt.Sprintf("%s/nodes/lookup?identifier=%s", c.base, url.QueryEscape(identifier))

	ctx, span := tracing.StartHTTPSpan(ctx, "GET", u)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	tracing.InjectTraceparent(ctx, req)
	resp, err := c.httpw.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge store lookup status %d", resp.StatusCode)
	}
	var node Node
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, err
	}
	return &node, nil
}

// VectorQuery performs nearest-neighbor search against the store's vector
// index and returns the top candidates with similarity scores
func (c *Client) VectorQuery(ctx context.Context, vec []float32, limit int) ([]ScoredNode, error) {
	if limit <= 0 {
		limit = c.cfg.TopK
	}
	var thr *float64
	if c.cfg.Threshold > 0 {
		t := c.cfg.Threshold
		thr = &t
	}
	body := vectorQueryRequest{Vector: vec, Limit: limit, ScoreThreshold: thr}
	var out searchResponse
	if err := c.post(ctx, "/vectors/query", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// KeywordQuery performs lexical full-text search against the store
func (c *Client) KeywordQuery(ctx context.Context, text string, limit int) ([]ScoredNode, error) {
	if limit <= 0 {
		limit = c.cfg.TopK
	}
	body := keywordQueryRequest{Text: text, Limit: limit}
	var out searchResponse
	if err := c.post(ctx, "/nodes/search", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Related fetches entities one hop away from a node: referenced tables,
// figures, equations
func (c *Client) Related(ctx context.Context, nodeID string, limit int) ([]Node, error) {
	if limit <= 0 {
		limit = c.cfg.MaxRelated
	}
	body := map[string]interface{}{"limit": limit}
	var out relatedResponse
	path := fmt.Sprintf("/nodes/%s/related", url.PathEscape(nodeID))
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	if len(out.Nodes) > limit {
		out.Nodes = out.Nodes[:limit]
	}
	return out.Nodes, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	u := c.base + path

	ctx, span := tracing.StartHTTPSpan(ctx, "POST", u)
	defer span.End()

	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)
	resp, err := c.httpw.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("knowledge store %s status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
