package circuitbreaker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

func TestRedisWrapperRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rw := NewRedisWrapper(client, zaptest.NewLogger(t))
	defer rw.Close()

	ctx := context.Background()
	if err := rw.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if err := rw.Set(ctx, "k", "v", time.Minute).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := rw.Get(ctx, "k").Result()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected v, got %s", got)
	}

	// A miss is redis.Nil, not a breaker failure
	if _, err := rw.Get(ctx, "absent").Result(); err != redis.Nil {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
	if rw.IsCircuitBreakerOpen() {
		t.Fatal("miss must not open the breaker")
	}
}
