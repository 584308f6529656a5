package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerscout/internal/config"
	"careerscout/pkg/models"
)

func newTestCache(t *testing.T, ttl time.Duration) *ResultCache {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Cache.TTL = ttl
	cfg.Cache.SweepInterval = 0
	cache := NewResultCache(cfg, nil)
	t.Cleanup(cache.Close)
	return cache
}

func countingCrawl(calls *int64, delay time.Duration) CrawlFunc {
	return func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		atomic.AddInt64(calls, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return &models.CrawlResult{
			RequestedURL: url,
			State:        models.StateDone,
			Success:      true,
		}
	}
}

func TestCacheKeyNormalizesURLVariants(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	opts := &models.CrawlOptions{MaxJobs: 10}

	assert.Equal(t,
		cache.Key("https://ACME.example/careers/", opts),
		cache.Key("https://acme.example/careers", opts))
	assert.Equal(t,
		cache.Key("https://acme.example/careers?b=2&a=1", opts),
		cache.Key("https://acme.example/careers?a=1&b=2", opts))
	assert.NotEqual(t,
		cache.Key("https://acme.example/careers", opts),
		cache.Key("https://acme.example/careers", &models.CrawlOptions{MaxJobs: 20}))
}

func TestCacheSharesOneFlightAcrossCallers(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	var calls int64
	crawl := countingCrawl(&calls, 50*time.Millisecond)

	var wg sync.WaitGroup
	results := make([]*models.CrawlResult, 8)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], _ = cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent callers for one key share a single crawl")
	for _, result := range results {
		require.NotNil(t, result)
		assert.True(t, result.Success)
	}
}

func TestCacheHitSkipsCrawl(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	var calls int64
	crawl := countingCrawl(&calls, 0)

	first, cachedFirst := cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)
	second, cachedSecond := cache.GetOrFetch(context.Background(), "https://acme.example/careers/", nil, crawl)

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	assert.Same(t, first, second)
	assert.False(t, cachedFirst)
	assert.True(t, cachedSecond, "trailing-slash variant must hit the same entry")

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheExpiredEntryRefetches(t *testing.T) {
	cache := newTestCache(t, 10*time.Millisecond)
	var calls int64
	crawl := countingCrawl(&calls, 0)

	cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)
	time.Sleep(25 * time.Millisecond)
	cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestCacheDistinctOptionsFetchSeparately(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	var calls int64
	crawl := countingCrawl(&calls, 0)

	cache.GetOrFetch(context.Background(), "https://acme.example/careers", &models.CrawlOptions{MaxJobs: 10}, crawl)
	cache.GetOrFetch(context.Background(), "https://acme.example/careers", &models.CrawlOptions{MaxJobs: 20}, crawl)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	var calls int64
	crawl := func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		atomic.AddInt64(&calls, 1)
		return &models.CrawlResult{RequestedURL: url, State: models.StateFailed, Success: false}
	}

	cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)
	cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
	assert.Zero(t, cache.Stats().Entries)
}

func TestCacheClear(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	var calls int64
	crawl := countingCrawl(&calls, 0)

	cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)
	cache.GetOrFetch(context.Background(), "https://acme.example/jobs", nil, crawl)

	assert.Equal(t, 2, cache.Clear())
	assert.Zero(t, cache.Stats().Entries)

	cache.GetOrFetch(context.Background(), "https://acme.example/careers", nil, crawl)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}
