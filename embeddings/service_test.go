package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestEmbedUsesLRU(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float64{{0.1, 0.2, 0.3}},
			"dimensions": 3,
			"model_used": "text-embedding-3-small",
		})
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	ctx := context.Background()

	v1, err := s.Embed(ctx, "impact-resistant coverings")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v1) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(v1))
	}

	if _, err := s.Embed(ctx, "impact-resistant coverings"); err != nil {
		t.Fatalf("embed (cached): %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": [][]float64{}})
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	if _, err := s.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on empty embedding response")
	}
}

func TestLocalLRUTTL(t *testing.T) {
	l := NewLocalLRU(2)
	ctx := context.Background()

	l.Set(ctx, "k", []float32{1}, 10*time.Millisecond)
	if _, ok := l.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := l.Get(ctx, "k"); ok {
		t.Fatal("expected miss after expiry")
	}
}
