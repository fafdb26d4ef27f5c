package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/internal/circuitbreaker"
	"github.com/meridianworks/codeatlas/internal/tracing"
)

// RemoteScorerConfig controls the hosted scoring service client
type RemoteScorerConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RemoteScorer calls the hosted relevance scoring service
type RemoteScorer struct {
	cfg   RemoteScorerConfig
	httpw *circuitbreaker.HTTPWrapper
}

// NewRemoteScorer creates a scorer with config defaults applied
func NewRemoteScorer(cfg RemoteScorerConfig, logger *zap.Logger) *RemoteScorer {
	c := cfg
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: c.Timeout}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "relevance-scorer", "validation", logger)
	return &RemoteScorer{cfg: c, httpw: httpw}
}

type scoreRequest struct {
	Query     string `json:"query"`
	Candidate string `json:"candidate"`
}

type scoreResponse struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

func (s *RemoteScorer) Score(ctx context.Context, query, candidate string) (float64, string, error) {
	u := fmt.Sprintf("%s/score", s.cfg.BaseURL)
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", u)
	defer span.End()

	buf, _ := json.Marshal(scoreRequest{Query: query, Candidate: candidate})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := s.httpw.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("scoring service status %d", resp.StatusCode)
	}
	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, "", err
	}
	return sr.Score, sr.Rationale, nil
}

// LexicalScorer is a deterministic local heuristic: term coverage of the
// query by the candidate, scaled to 0-10. It backs tests and Redis-less
// deployments where no scoring service is available.
type LexicalScorer struct{}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "for": {}, "in": {}, "is": {},
	"of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "what": {}, "with": {},
}

func (LexicalScorer) Score(_ context.Context, query, candidate string) (float64, string, error) {
	terms := contentTerms(query)
	if len(terms) == 0 {
		return 0, "query has no content terms", nil
	}
	haystack := strings.ToLower(candidate)

	matched := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			matched = append(matched, term)
		}
	}
	score := 10 * float64(len(matched)) / float64(len(terms))
	rationale := fmt.Sprintf("matched %d/%d query terms: %s",
		len(matched), len(terms), strings.Join(matched, ", "))
	return score, rationale, nil
}

func contentTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()\"'")
		if f == "" {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	sort.Strings(terms)
	return terms
}
