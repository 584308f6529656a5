package crawler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerscout/internal/config"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

func newTestCoordinator(t *testing.T, crawl CrawlFunc, mutate func(*config.Config)) *Coordinator {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Cache.SweepInterval = 0
	if mutate != nil {
		mutate(cfg)
	}
	cache := NewResultCache(cfg, nil)
	t.Cleanup(cache.Close)
	return NewCoordinator(cfg, cache, crawl)
}

func TestBatchPreservesInputOrder(t *testing.T) {
	crawl := func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		return &models.CrawlResult{RequestedURL: url, State: models.StateDone, Success: true}
	}
	coord := newTestCoordinator(t, crawl, nil)

	urls := []string{
		"https://a.example/careers",
		"https://b.example/careers",
		"https://c.example/careers",
	}
	batch := coord.CrawlBatch(context.Background(), urls, nil, 0)

	require.Len(t, batch.Results, 3)
	for i, url := range urls {
		require.NotNil(t, batch.Results[i])
		assert.Equal(t, url, batch.Results[i].RequestedURL)
	}
	assert.Equal(t, 3, batch.Summary.Total)
	assert.Equal(t, 3, batch.Summary.Succeeded)
	assert.Zero(t, batch.Summary.Failed)
	assert.Greater(t, batch.Summary.TotalTime, time.Duration(0))
}

func TestBatchIsolatesFailures(t *testing.T) {
	crawl := func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		if url == "https://down.example/careers" {
			return &models.CrawlResult{
				RequestedURL: url,
				State:        models.StateFailed,
				Success:      false,
				ErrorKind:    utils.ErrKindFetchNetwork,
			}
		}
		return &models.CrawlResult{RequestedURL: url, State: models.StateDone, Success: true}
	}
	coord := newTestCoordinator(t, crawl, nil)

	batch := coord.CrawlBatch(context.Background(), []string{
		"https://a.example/careers",
		"https://down.example/careers",
		"https://c.example/careers",
	}, nil, 0)

	assert.Equal(t, 2, batch.Summary.Succeeded)
	assert.Equal(t, 1, batch.Summary.Failed)
	assert.True(t, batch.Results[0].Success)
	assert.False(t, batch.Results[1].Success)
	assert.True(t, batch.Results[2].Success)
}

func TestBatchBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	crawl := func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			observed := atomic.LoadInt64(&peak)
			if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return &models.CrawlResult{RequestedURL: url, State: models.StateDone, Success: true}
	}
	coord := newTestCoordinator(t, crawl, nil)

	urls := []string{
		"https://a.example/careers",
		"https://b.example/careers",
		"https://c.example/careers",
		"https://d.example/careers",
		"https://e.example/careers",
		"https://f.example/careers",
	}
	batch := coord.CrawlBatch(context.Background(), urls, nil, 2)

	assert.Equal(t, 6, batch.Summary.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestBatchRejectsURLsPastCap(t *testing.T) {
	crawl := func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		return &models.CrawlResult{RequestedURL: url, State: models.StateDone, Success: true}
	}
	coord := newTestCoordinator(t, crawl, func(cfg *config.Config) {
		cfg.Batch.MaxURLs = 2
	})

	batch := coord.CrawlBatch(context.Background(), []string{
		"https://a.example/careers",
		"https://b.example/careers",
		"https://c.example/careers",
	}, nil, 0)

	assert.Equal(t, 2, batch.Summary.Succeeded)
	assert.Equal(t, 1, batch.Summary.Failed)
	require.NotNil(t, batch.Results[2])
	assert.Equal(t, utils.ErrKindBudgetExceeded, batch.Results[2].ErrorKind)
}

func TestBatchRecoversFromWorkerPanic(t *testing.T) {
	crawl := func(_ context.Context, url string, _ *models.CrawlOptions) *models.CrawlResult {
		if url == "https://boom.example/careers" {
			panic("selector exploded")
		}
		return &models.CrawlResult{RequestedURL: url, State: models.StateDone, Success: true}
	}
	coord := newTestCoordinator(t, crawl, nil)

	batch := coord.CrawlBatch(context.Background(), []string{
		"https://a.example/careers",
		"https://boom.example/careers",
	}, nil, 0)

	assert.Equal(t, 1, batch.Summary.Succeeded)
	assert.Equal(t, 1, batch.Summary.Failed)
	require.NotNil(t, batch.Results[1])
	assert.Equal(t, utils.ErrKindInternal, batch.Results[1].ErrorKind)
	assert.Contains(t, batch.Results[1].ErrorMessage, "panic")
}
