// Package embeddings generates query embeddings for semantic search, with a
// local LRU cache in front of the embedding endpoint.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/internal/circuitbreaker"
	"github.com/meridianworks/codeatlas/internal/tracing"
)

// Config controls the embedding service client
type Config struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	CacheTTL     time.Duration
	MaxLRU       int
}

// Service provides embedding generation with caching
type Service struct {
	cfg   Config
	httpw *circuitbreaker.HTTPWrapper
	lru   *LocalLRU
	log   *zap.Logger
}

// NewService creates a service with config defaults applied
func NewService(cfg Config, logger *zap.Logger) *Service {
	c := cfg
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.DefaultModel == "" {
		c.DefaultModel = "text-embedding-3-small"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.MaxLRU == 0 {
		c.MaxLRU = 2048
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: c.Timeout}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "embeddings", "retrieval", logger)
	return &Service{cfg: c, httpw: httpw, lru: NewLocalLRU(c.MaxLRU), log: logger}
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Dimensions int         `json:"dimensions"`
	ModelUsed  string      `json:"model_used"`
}

// Embed returns the vector for a single text using the configured model
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	key := MakeKey(s.cfg.DefaultModel, text)
	if v, ok := s.lru.Get(ctx, key); ok {
		return v, nil
	}

	u := fmt.Sprintf("%s/embeddings", s.cfg.BaseURL)
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", u)
	defer span.End()

	payload := embedRequest{Texts: []string{text}, Model: s.cfg.DefaultModel}
	buf, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := s.httpw.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service status %d", resp.StatusCode)
	}
	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, err
	}
	if len(er.Embeddings) == 0 || len(er.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector")
	}

	vec := make([]float32, len(er.Embeddings[0]))
	for i, f := range er.Embeddings[0] {
		vec[i] = float32(f)
	}
	s.lru.Set(ctx, key, vec, s.cfg.CacheTTL)
	return vec, nil
}
