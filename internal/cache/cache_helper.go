package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheHelper provides common caching operations for repositories
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

// Course documents change rarely and are owned by another service
var CourseCacheConfig = CacheConfig{
	TTL:    10 * time.Minute,
	Prefix: "course:",
}

// ErrCacheNotAvailable is returned when no Redis client is configured
var ErrCacheNotAvailable = errors.New("cache not available")

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Available reports whether a Redis client is configured
func (c *CacheHelper) Available() bool {
	return c.client != nil
}

// SetMultiple stores multiple key-value pairs in a pipeline
func (c *CacheHelper) SetMultiple(ctx context.Context, items map[string]interface{}, ttl time.Duration) error {
	if c.client == nil || len(items) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	for key, value := range items {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cache marshal error for key %s: %w", key, err)
		}
		pipe.Set(ctx, c.GetCacheKey(key), data, ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// GetMultiple retrieves multiple raw values; missing keys are absent from the result
func (c *CacheHelper) GetMultiple(ctx context.Context, keys []string) (map[string]string, error) {
	if c.client == nil {
		return nil, ErrCacheNotAvailable
	}

	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	values, err := c.client.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache mget error: %w", err)
	}

	result := make(map[string]string)
	for i, value := range values {
		if str, ok := value.(string); ok {
			result[keys[i]] = str
		}
	}

	return result, nil
}

// CacheManager manages the cache helpers of the service
type CacheManager struct {
	Course    *CacheHelper
	courseTTL time.Duration
}

// NewCacheManager creates a cache manager; a nil client disables caching
func NewCacheManager(client *redis.Client, courseTTL time.Duration) *CacheManager {
	if courseTTL <= 0 {
		courseTTL = CourseCacheConfig.TTL
	}

	return &CacheManager{
		Course:    NewCacheHelper(client, CourseCacheConfig.Prefix),
		courseTTL: courseTTL,
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Course.client == nil {
		return ErrCacheNotAvailable
	}

	if err := cm.Course.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}
