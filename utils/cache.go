package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = time.Minute

// Cache is a best-effort Redis byte cache. A nil *Cache or a nil client disables caching.
type Cache struct {
	rc *redis.Client
}

// NewCache wraps rc; rc may be nil.
func NewCache(rc *redis.Client) *Cache {
	return &Cache{rc: rc}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rc != nil
}

// GetBytes returns cached bytes for a key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugf("cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// GetJSON unmarshals a cached value into out.
func (c *Cache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	b, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// SetJSON marshals v and stores it with ttl (default one minute).
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			Sugar.Warnf("cache invalidate failed prefix=%s err=%v", prefix, err)
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}
