package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/internal/logging/types"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

// Coordinator fans a batch of URLs out across a bounded worker set. One
// URL failing, or panicking, never aborts its siblings. Requests to the
// same domain share a rate limiter so batches stay polite.
type Coordinator struct {
	cfg    *config.Config
	cache  *ResultCache
	crawl  CrawlFunc
	logger types.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCoordinator builds a batch coordinator on top of the cache and a
// crawl function.
func NewCoordinator(cfg *config.Config, cache *ResultCache, crawl CrawlFunc) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		cache:    cache,
		crawl:    crawl,
		logger:   logging.GetGlobalLogger(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// CrawlBatch runs every URL through the cache-backed pipeline with bounded
// concurrency. Results come back in input order. URLs past the batch cap
// are reported as failed rather than silently dropped. maxConcurrency
// overrides the configured bound when positive.
func (c *Coordinator) CrawlBatch(ctx context.Context, urls []string, opts *models.CrawlOptions, maxConcurrency int) *models.BatchResult {
	start := time.Now()
	results := make([]*models.CrawlResult, len(urls))

	if maxConcurrency <= 0 {
		maxConcurrency = c.cfg.Batch.MaxConcurrency
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	sem := make(chan struct{}, maxConcurrency)

	var wg sync.WaitGroup
	for i, url := range urls {
		if i >= c.cfg.Batch.MaxURLs && c.cfg.Batch.MaxURLs > 0 {
			results[i] = overflowResult(url, c.cfg.Batch.MaxURLs)
			continue
		}

		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = c.crawlOne(ctx, target, opts)
		}(i, url)
	}
	wg.Wait()

	summary := summarize(results, time.Since(start))
	c.logger.Info("batch crawl completed", map[string]interface{}{
		"total":      summary.Total,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
		"total_time": utils.FormatDuration(summary.TotalTime),
	})

	return &models.BatchResult{
		Results: results,
		Summary: summary,
	}
}

// crawlOne wraps a single crawl with domain rate limiting and panic
// isolation.
func (c *Coordinator) crawlOne(ctx context.Context, url string, opts *models.CrawlOptions) (result *models.CrawlResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("crawl worker panicked", map[string]interface{}{
				"url":   url,
				"panic": fmt.Sprintf("%v", r),
			})
			result = failedResult(url, utils.NewInternalError(fmt.Sprintf("worker panic: %v", r)))
		}
	}()

	if err := c.limiterFor(url).Wait(ctx); err != nil {
		return failedResult(url, utils.ClassifyFetchError(err))
	}

	crawled, _ := c.cache.GetOrFetch(ctx, url, opts, c.crawl)
	return crawled
}

// limiterFor returns the shared per-domain limiter, creating it on first
// use.
func (c *Coordinator) limiterFor(url string) *rate.Limiter {
	domain := utils.ExtractDomain(url)
	if domain == "" {
		domain = url
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[domain]
	if !ok {
		perMinute := c.cfg.Crawler.RateLimit
		if perMinute <= 0 {
			perMinute = 60
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		c.limiters[domain] = limiter
	}
	return limiter
}

func summarize(results []*models.CrawlResult, elapsed time.Duration) models.BatchSummary {
	summary := models.BatchSummary{
		Total:     len(results),
		TotalTime: elapsed,
	}
	for _, result := range results {
		if result != nil && result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	if summary.Total > 0 {
		summary.AverageTime = elapsed / time.Duration(summary.Total)
	}
	return summary
}

func failedResult(url string, err *utils.CrawlError) *models.CrawlResult {
	return &models.CrawlResult{
		RequestedURL: url,
		State:        models.StateFailed,
		Success:      false,
		ErrorKind:    err.Kind,
		ErrorMessage: err.Error(),
		CompletedAt:  time.Now().UTC(),
	}
}

func overflowResult(url string, limit int) *models.CrawlResult {
	return failedResult(url, utils.NewBudgetExceededError(
		fmt.Sprintf("batch limited to %d urls", limit)))
}
