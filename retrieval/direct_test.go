package retrieval

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/meridianworks/codeatlas/knowledge"
)

func testStoreClient(t *testing.T, srv *httptest.Server) *knowledge.Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return knowledge.NewClient(knowledge.Config{Host: host, Port: port}, zaptest.NewLogger(t))
}

func TestMatchIdentifier(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"Section 1607.12.1", "Section 1607.12.1"},
		{"what does section 1607.12.1 say about roof loads", "Section 1607.12.1"},
		{"TABLE 1604.3 deflection limits", "Table 1604.3"},
		{"Equation 16-7", "Equation 16-7"},
		{"figure 1608.2 ground snow loads", "Figure 1608.2"},
		{"requirements in 1607.12.1", "Section 1607.12.1"},
		{"impact-resistant coverings", ""},
		{"general means of egress requirements", ""},
	}
	for _, tc := range cases {
		if got := MatchIdentifier(tc.query); got != tc.want {
			t.Errorf("MatchIdentifier(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestDirectLookupFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("identifier") == "Section 1607.12.1" {
			json.NewEncoder(w).Encode(knowledge.Node{
				ID:         "n-1",
				Kind:       "section",
				Identifier: "Section 1607.12.1",
				Title:      "Roof live loads",
				Text:       "Roofs shall be designed for the live loads in Table 1607.1.",
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDirectLookup(testStoreClient(t, srv), zaptest.NewLogger(t))
	ctx := context.Background()

	p, err := d.Fetch(ctx, "Section 1607.12.1", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Empty() || p.Items[0].NodeID != "n-1" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if p.Anchor() != "n-1" {
		t.Fatalf("expected anchor n-1, got %q", p.Anchor())
	}
}

func TestDirectLookupNoPatternFallsThrough(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDirectLookup(testStoreClient(t, srv), zaptest.NewLogger(t))
	p, err := d.Fetch(context.Background(), "impact-resistant coverings", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !p.Empty() {
		t.Fatalf("expected empty payload, got %+v", p)
	}
	if called {
		t.Fatal("no store call should be made without an identifier pattern")
	}
}

func TestDirectLookupStoreMissIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDirectLookup(testStoreClient(t, srv), zaptest.NewLogger(t))
	p, err := d.Fetch(context.Background(), "Section 9999.1", "")
	if err != nil {
		t.Fatalf("expected miss to be empty payload, got err %v", err)
	}
	if !p.Empty() {
		t.Fatalf("expected empty payload, got %+v", p)
	}
}
