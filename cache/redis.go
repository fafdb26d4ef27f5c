package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/internal/circuitbreaker"
	ometrics "github.com/meridianworks/codeatlas/internal/metrics"
)

// RedisStore is the shared, long-lived cache backing production
// deployments. The client is wrapped with a circuit breaker so a Redis
// outage degrades to cache misses instead of stalling cascades.
type RedisStore struct {
	client *circuitbreaker.RedisWrapper
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection once
func NewRedisStore(addr string, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	client := circuitbreaker.NewRedisWrapper(rc, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Entry{}, false
	}
	if err != nil {
		ometrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("Cache read failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		ometrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("Cache entry corrupt, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return Entry{}, false
	}
	return entry, true
}

func (s *RedisStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) {
	b, err := json.Marshal(entry)
	if err != nil {
		ometrics.CacheWrites.WithLabelValues("error").Inc()
		s.logger.Warn("Cache entry marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, key, b, ttl).Err(); err != nil {
		ometrics.CacheWrites.WithLabelValues("error").Inc()
		s.logger.Warn("Cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	ometrics.CacheWrites.WithLabelValues("ok").Inc()
}

// Close closes the underlying client
func (s *RedisStore) Close() error { return s.client.Close() }
