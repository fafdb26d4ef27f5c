package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"

	"github.com/meridianworks/codeatlas/retrieval"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedisStore(mr.Addr(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	entry := Entry{
		ID: "e1",
		Payload: retrieval.Payload{Items: []retrieval.Item{
			{NodeID: "n9", Kind: "table", Identifier: "Table 1604.3", Score: 8.5},
		}},
		Backend:  retrieval.VariantVectorSearch,
		StoredAt: time.Now().UTC(),
	}
	s.Set(ctx, "sq:abc", entry, time.Minute)

	got, ok := s.Get(ctx, "sq:abc")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Backend != retrieval.VariantVectorSearch {
		t.Fatalf("expected backend vector_search, got %s", got.Backend)
	}
	if got.Payload.Items[0].Identifier != "Table 1604.3" {
		t.Fatalf("unexpected payload: %+v", got.Payload)
	}

	if _, ok := s.Get(ctx, "sq:missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedisStore(mr.Addr(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Set(ctx, "k", Entry{ID: "e"}, time.Second)

	mr.FastForward(2 * time.Second)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestRedisStoreCorruptEntryIsMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedisStore(mr.Addr(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	mr.Set("bad", "{not json")
	if _, ok := s.Get(context.Background(), "bad"); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
}
