package knowledge

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return NewClient(Config{Host: host, Port: port, TopK: 3, MaxRelated: 2}, zaptest.NewLogger(t))
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nodes/lookup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("identifier") {
		case "Section 1607.12.1":
			json.NewEncoder(w).Encode(Node{
				ID:         "n-1607-12-1",
				Kind:       "section",
				Identifier: "Section 1607.12.1",
				Title:      "Roof live loads",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx := context.Background()

	node, err := c.Lookup(ctx, "Section 1607.12.1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if node == nil || node.ID != "n-1607-12-1" {
		t.Fatalf("unexpected node: %+v", node)
	}

	// Not-found is nil, nil so the cascade can fall through fast
	node, err = c.Lookup(ctx, "Section 9999")
	if err != nil {
		t.Fatalf("lookup miss: %v", err)
	}
	if node != nil {
		t.Fatalf("expected nil node on 404, got %+v", node)
	}
}

func TestVectorQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Vector []float32 `json:"vector"`
			Limit  int       `json:"limit"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Limit != 3 {
			t.Errorf("expected limit 3 from config TopK, got %d", req.Limit)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []ScoredNode{
				{Node: Node{ID: "a", Kind: "section"}, Score: 0.91},
				{Node: Node{ID: "b", Kind: "table"}, Score: 0.84},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	nodes, err := c.VectorQuery(context.Background(), []float32{0.1, 0.2}, 0)
	if err != nil {
		t.Fatalf("vector query: %v", err)
	}
	if len(nodes) != 2 || nodes[0].ID != "a" {
		t.Fatalf("unexpected results: %+v", nodes)
	}
}

func TestKeywordQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nodes/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []ScoredNode{{Node: Node{ID: "kw", Identifier: "Section 1609"}, Score: 3.2}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	nodes, err := c.KeywordQuery(context.Background(), "impact-resistant coverings", 5)
	if err != nil {
		t.Fatalf("keyword query: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "kw" {
		t.Fatalf("unexpected results: %+v", nodes)
	}
}

func TestRelatedBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"nodes": []Node{
				{ID: "t1", Kind: "table"},
				{ID: "f1", Kind: "figure"},
				{ID: "e1", Kind: "equation"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	nodes, err := c.Related(context.Background(), "n-1607-12-1", 2)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected related capped at 2, got %d", len(nodes))
	}
}

func TestExpanderFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	e := NewExpander(c, 3, zaptest.NewLogger(t))
	if nodes := e.Expand(context.Background(), "n-x"); nodes != nil {
		t.Fatalf("expected nil on expansion failure, got %+v", nodes)
	}
	if nodes := e.Expand(context.Background(), ""); nodes != nil {
		t.Fatalf("expected nil for empty anchor, got %+v", nodes)
	}
}
