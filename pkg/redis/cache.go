package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encoded values under a key prefix
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the namespaced Redis key
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. found is false on a miss or when disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err()
}

// Touch extends the TTL of an existing key; found is false on a miss
func (c *Cache) Touch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	ok, err := c.client.Redis().Expire(ctx, c.Key(key), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache touch failed: %w", err)
	}
	return ok, nil
}

// Delete removes a cached value; found is false when nothing was removed
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	n, err := c.client.Redis().Del(ctx, c.Key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache delete failed: %w", err)
	}
	return n > 0, nil
}

// Predefined TTLs
const (
	TTLShort   = 1 * time.Minute // 레이트 리밋 윈도우
	TTLSession = 2 * time.Hour   // 업로드 분석 세션
)

// SessionKey is the cache key of an analysis session
func SessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
