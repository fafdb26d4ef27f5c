package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meridianworks/codeatlas/internal/circuitbreaker"
	ometrics "github.com/meridianworks/codeatlas/internal/metrics"
	"github.com/meridianworks/codeatlas/internal/ratecontrol"
	"github.com/meridianworks/codeatlas/internal/tracing"
)

// WebConfig controls the external web search provider client
type WebConfig struct {
	BaseURL    string
	APIKey     string
	Provider   string // tavily, serper, brave, exa, searxng
	MaxResults int
	Timeout    time.Duration
}

// WebSearch is the last tier and the only backend with unrestricted
// external egress. Every call waits on a token bucket shared across all
// concurrent cascades to protect the provider's quota.
type WebSearch struct {
	cfg     WebConfig
	httpw   *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewWebSearch creates the web search backend. limiter may be nil, in which
// case the provider's configured quota is used.
func NewWebSearch(cfg WebConfig, limiter *rate.Limiter, logger *zap.Logger) *WebSearch {
	c := cfg
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Provider == "" {
		c.Provider = "unknown"
	}
	if limiter == nil {
		limiter = ratecontrol.LimiterFor(c.Provider)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: c.Timeout}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "web-search", "retrieval", logger)
	return &WebSearch{cfg: c, httpw: httpw, limiter: limiter, log: logger}
}

func (w *WebSearch) Variant() Variant { return VariantWebSearch }

type webSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type webSearchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		Snippet string  `json:"snippet"`
		URL     string  `json:"url"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (w *WebSearch) Fetch(ctx context.Context, query, _ string) (Payload, error) {
	waitStart := time.Now()
	if err := w.limiter.Wait(ctx); err != nil {
		return Payload{}, classify(fmt.Errorf("rate limiter: %w", err))
	}
	ometrics.WebSearchRateWait.Observe(time.Since(waitStart).Seconds())

	u := fmt.Sprintf("%s/search", w.cfg.BaseURL)
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", u)
	defer span.End()

	buf, _ := json.Marshal(webSearchRequest{Query: query, MaxResults: w.cfg.MaxResults})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return Payload{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.APIKey)
	}
	tracing.InjectTraceparent(ctx, req)

	resp, err := w.httpw.Do(req)
	if err != nil {
		return Payload{}, classify(fmt.Errorf("web search: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Payload{}, classify(fmt.Errorf("web search status %d", resp.StatusCode))
	}

	var wr webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return Payload{}, classify(fmt.Errorf("web search decode: %w", err))
	}

	items := make([]Item, 0, len(wr.Results))
	for _, r := range wr.Results {
		// Web results carry no graph anchor by construction.
		items = append(items, Item{
			Title:   r.Title,
			Excerpt: r.Snippet,
			URL:     r.URL,
			Score:   r.Score,
		})
	}
	return Payload{Items: items}, nil
}
