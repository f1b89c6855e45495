package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"distribuidora/internal/core/tenant"
	"distribuidora/pkg/logger"
)

const keyPrefix = "distribuidora"

// ListCache caches list responses per city and entity.
//
// Every (city, entity) pair has a generation counter that is part of each
// cached key. Invalidate bumps the counter, so stale pages are never read
// again and simply expire. A nil *ListCache or one without a client is a
// no-op cache that always loads.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListCache creates a list cache. rdb may be nil to disable caching.
func NewListCache(rdb *redis.Client, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ListCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client backs the cache.
func (c *ListCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping implements the readiness check.
func (c *ListCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func generationKey(t tenant.Key, entity string) string {
	return fmt.Sprintf("%s:%s:%s:gen", keyPrefix, t, entity)
}

func pageKey(t tenant.Key, entity string, gen int64, key string) string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", keyPrefix, t, entity, gen, key)
}

func (c *ListCache) generation(ctx context.Context, t tenant.Key, entity string) (int64, error) {
	v, err := c.rdb.Get(ctx, generationKey(t, entity)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// Invalidate drops every cached page of entity for the context city.
func (c *ListCache) Invalidate(ctx context.Context, entity string) error {
	if !c.Enabled() {
		return nil
	}
	t := tenant.FromContext(ctx)
	if t.IsZero() {
		return nil
	}
	return c.rdb.Incr(ctx, generationKey(t, entity)).Err()
}

// Fetch returns the cached value for (entity, key) in the context city, or
// calls load and caches its result. Cache failures are logged and fall back
// to load.
func Fetch[T any](ctx context.Context, c *ListCache, entity, key string, load func(ctx context.Context) (T, error)) (T, error) {
	t := tenant.FromContext(ctx)
	if !c.Enabled() || t.IsZero() {
		return load(ctx)
	}

	gen, err := c.generation(ctx, t, entity)
	if err != nil {
		logger.Warn(ctx, "list cache unavailable", "entity", entity, "error", err)
		return load(ctx)
	}
	k := pageKey(t, entity, gen, key)

	if raw, err := c.rdb.Get(ctx, k).Bytes(); err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn(ctx, "list cache read failed", "entity", entity, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if raw, err := json.Marshal(v); err == nil {
		if err := c.rdb.Set(ctx, k, raw, c.ttl).Err(); err != nil {
			logger.Warn(ctx, "list cache write failed", "entity", entity, "error", err)
		}
	}
	return v, nil
}
