package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/pkg/models"
)

// RedisClient is the optional second-level result cache shared across
// instances. The in-process cache in internal/crawler remains authoritative
// for single-flight coordination; Redis only widens the hit rate.
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisClient{
		client: redis.NewClient(opts),
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetResult fetches a cached crawl result by cache key. A cache miss returns
// (nil, nil).
func (r *RedisClient) GetResult(ctx context.Context, key string) (*models.CrawlResult, error) {
	payload, err := r.client.Get(ctx, r.resultKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached result: %w", err)
	}

	var result models.CrawlResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return &result, nil
}

// StoreResult caches a crawl result under the given key with a TTL.
func (r *RedisClient) StoreResult(ctx context.Context, key string, result *models.CrawlResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal crawl result: %w", err)
	}

	if err := r.client.Set(ctx, r.resultKey(key), payload, ttl).Err(); err != nil {
		r.logger.Error("Failed to store crawl result in Redis", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to store crawl result: %w", err)
	}
	return nil
}

func (r *RedisClient) resultKey(key string) string {
	return fmt.Sprintf("crawl:result:%s", key)
}

// IsHealthy checks if Redis is connected and healthy
func (r *RedisClient) IsHealthy(ctx context.Context) error {
	return r.Ping(ctx)
}
