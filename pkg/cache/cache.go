// Package cache provides the small read-through cache used for catalog
// lookups that rarely change (category specification schemas).
//
// Two drivers exist:
//   - "redis" — shared across dashboard instances
//   - "none"  — every Get misses; the default
//
// Usage:
//
//	store, err := cache.Connect(config.CacheDriver())
//	var defs []models.SpecificationDefinition
//	if !store.Get(ctx, "schema:category:5", &defs) { ... }
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storeadmin/config"
	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
)

// Store is the cache contract used by services.
type Store interface {
	// Get unmarshals the cached value into dest and reports a hit.
	Get(ctx context.Context, key string, dest interface{}) bool
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Forget removes keys. Missing keys are not an error.
	Forget(ctx context.Context, keys ...string) error
}

// Connect returns the store for driver. A redis driver that fails its ping
// is reported as an error so the caller can fall back to Nop.
func Connect(driver string) (Store, error) {
	if driver != "redis" {
		return Nop{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Nop{}, fmt.Errorf("cache: redis ping: %w", err)
	}
	return NewRedis(rdb), nil
}

// ─── Redis ────────────────────────────────────────────────────────────────────

// Redis is a JSON-encoding Store on top of go-redis.
type Redis struct {
	rdb redis.Cmdable
}

// NewRedis wraps an existing client (or a redis.Cmdable test double).
func NewRedis(rdb redis.Cmdable) *Redis { return &Redis{rdb: rdb} }

// Close closes the underlying client when it owns a connection pool.
func (r *Redis) Close() error {
	if c, ok := r.rdb.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// ─── Nop ──────────────────────────────────────────────────────────────────────

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) bool                 { return false }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Forget(context.Context, ...string) error                       { return nil }
