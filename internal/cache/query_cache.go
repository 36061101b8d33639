package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "support-insights:"

// Backend is the subset of the go-redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// QueryCache stores JSON encoded read results in Redis. Each tag is a Redis
// set listing the keys written under it.
type QueryCache struct {
	backend Backend
	prefix  string
}

// NewQueryCache wraps backend. An empty prefix uses the default namespace.
func NewQueryCache(backend Backend, prefix string) *QueryCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &QueryCache{backend: backend, prefix: prefix}
}

// Get decodes the value under key into dest. It reports false on a miss.
func (c *QueryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.backend.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl and registers it with every tag.
func (c *QueryCache) Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	entry := c.entryKey(key)
	if err := c.backend.Set(ctx, entry, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	for _, tag := range tags {
		tagKey := c.tagKey(tag)
		if err := c.backend.SAdd(ctx, tagKey, entry).Err(); err != nil {
			return fmt.Errorf("cache tag %s: %w", tag, err)
		}
		// the set only needs to outlive its newest member
		if ttl > 0 {
			if err := c.backend.Expire(ctx, tagKey, ttl).Err(); err != nil {
				return fmt.Errorf("cache tag expiry %s: %w", tag, err)
			}
		}
	}
	return nil
}

// InvalidateTag deletes every entry registered under tag, then the tag itself.
func (c *QueryCache) InvalidateTag(ctx context.Context, tag string) error {
	tagKey := c.tagKey(tag)
	members, err := c.backend.SMembers(ctx, tagKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache tag members %s: %w", tag, err)
	}

	keys := append(members, tagKey)
	if err := c.backend.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", tag, err)
	}
	return nil
}

func (c *QueryCache) entryKey(key string) string {
	return c.prefix + "q:" + key
}

func (c *QueryCache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}
