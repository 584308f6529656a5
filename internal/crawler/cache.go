package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"careerscout/internal/classifier"
	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/internal/logging/types"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

// CrawlFunc produces a fresh result for a cache miss.
type CrawlFunc func(ctx context.Context, url string, opts *models.CrawlOptions) *models.CrawlResult

// CacheStats is a point-in-time snapshot of cache behaviour.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type cacheEntry struct {
	result    *models.CrawlResult
	expiresAt time.Time
}

// ResultCache memoises crawl results keyed by normalized URL and option
// hash. Concurrent requests for the same key share one in-flight crawl.
// The optional Redis layer widens hits across instances but never
// coordinates flight.
type ResultCache struct {
	cfg    *config.Config
	redis  *utils.RedisClient
	logger types.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64
	evicted int64

	flight singleflight.Group
	stop   chan struct{}
	once   sync.Once
}

// NewResultCache creates the cache and starts its background sweeper.
// redisClient may be nil.
func NewResultCache(cfg *config.Config, redisClient *utils.RedisClient) *ResultCache {
	c := &ResultCache{
		cfg:     cfg,
		redis:   redisClient,
		logger:  logging.GetGlobalLogger(),
		entries: make(map[string]cacheEntry),
		stop:    make(chan struct{}),
	}
	if cfg.Cache.SweepInterval > 0 {
		go c.sweep(cfg.Cache.SweepInterval)
	}
	return c
}

// Key builds the cache key for a URL and its options. Distinct option sets
// never collide; URLs that normalize identically always do.
func (c *ResultCache) Key(rawURL string, opts *models.CrawlOptions) string {
	normalized := rawURL
	if candidate, err := classifier.Normalize(rawURL); err == nil {
		normalized = candidate.Normalized
	}
	if opts == nil {
		opts = &models.CrawlOptions{}
	}
	return normalized + "|" + opts.Hash()
}

// GetOrFetch returns the cached result for the key, or runs fetch exactly
// once per key regardless of concurrent callers. The second return reports
// whether the result came from cache. Failed results are not cached.
func (c *ResultCache) GetOrFetch(ctx context.Context, rawURL string, opts *models.CrawlOptions, fetch CrawlFunc) (*models.CrawlResult, bool) {
	key := c.Key(rawURL, opts)

	if result := c.lookup(ctx, key); result != nil {
		c.countHit()
		return result, true
	}
	c.countMiss()

	value, _, _ := c.flight.Do(key, func() (interface{}, error) {
		if result := c.lookup(ctx, key); result != nil {
			return result, nil
		}
		result := fetch(ctx, rawURL, opts)
		if result != nil && result.Success {
			c.store(ctx, key, result)
		}
		return result, nil
	})
	return value.(*models.CrawlResult), false
}

// lookup checks the in-process map first, then Redis. Expired local entries
// are evicted lazily.
func (c *ResultCache) lookup(ctx context.Context, key string) *models.CrawlResult {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.result
		}
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
			c.evicted++
		}
		c.mu.Unlock()
	}

	if c.redis == nil {
		return nil
	}
	result, err := c.redis.GetResult(ctx, key)
	if err != nil {
		c.logger.Warn("redis cache lookup failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	if result != nil {
		c.storeLocal(key, result)
	}
	return result
}

func (c *ResultCache) store(ctx context.Context, key string, result *models.CrawlResult) {
	c.storeLocal(key, result)
	if c.redis != nil {
		if err := c.redis.StoreResult(ctx, key, result, c.cfg.Cache.TTL); err != nil {
			c.logger.Warn("redis cache store failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

func (c *ResultCache) storeLocal(key string, result *models.CrawlResult) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.cfg.Cache.TTL),
	}
	c.mu.Unlock()
}

// Stats reports cache counters.
func (c *ResultCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evicted,
	}
}

// Clear drops every in-process entry. Redis entries age out on their own
// TTL.
func (c *ResultCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cleared := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return cleared
}

// Close stops the background sweeper.
func (c *ResultCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *ResultCache) countHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *ResultCache) countMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *ResultCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
					c.evicted++
				}
			}
			c.mu.Unlock()
		}
	}
}
