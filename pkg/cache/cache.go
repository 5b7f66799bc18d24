package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend is the subset of the go-redis client used by Cache.
type Backend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache stores JSON-encoded lookup results in Redis with a fixed TTL.
type Cache struct {
	backend Backend
	prefix  string
	ttl     time.Duration
	logger  *zap.Logger
}

// New creates a cache whose keys are namespaced under prefix.
func New(backend Backend, prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{backend: backend, prefix: prefix, ttl: ttl, logger: logger}
}

// Lookup returns the cached value for key, or calls load and caches its result.
// Only successful loads are cached. Redis errors are logged and fall through to load.
// A nil cache always calls load.
func Lookup[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.backend == nil {
		return load(ctx)
	}
	fullKey := c.prefix + key

	raw, err := c.backend.Get(ctx, fullKey).Bytes()
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			return v, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", fullKey))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache get failed", zap.String("key", fullKey), zap.Error(err))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if body, jerr := json.Marshal(v); jerr == nil {
		if serr := c.backend.Set(ctx, fullKey, body, c.ttl).Err(); serr != nil {
			c.logger.Warn("cache set failed", zap.String("key", fullKey), zap.Error(serr))
		}
	}
	return v, nil
}
