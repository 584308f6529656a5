package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"careerscout/internal/config"
	"careerscout/internal/crawler"
	"careerscout/internal/logging"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

var validate = validator.New()

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}

// CrawlHandler crawls a single URL through the cache-backed pipeline.
func CrawlHandler(cfg *config.Config, cache *crawler.ResultCache, orch *crawler.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()

		var req models.CrawlRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind crawl request", map[string]interface{}{
				"request_id": reqID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.Error("Crawl request validation failed", map[string]interface{}{
				"request_id": reqID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing crawl request", map[string]interface{}{
			"request_id": reqID,
			"url":        req.URL,
		})

		result, cached := cache.GetOrFetch(c.Request().Context(), req.URL, req.Options, orch.Crawl)

		response := models.CrawlResponse{
			Success:   result.Success,
			Result:    result,
			Error:     result.ErrorMessage,
			RequestID: reqID,
			Cached:    cached,
		}

		logger.Info("Crawl request completed", map[string]interface{}{
			"request_id":      reqID,
			"url":             req.URL,
			"success":         result.Success,
			"cached":          cached,
			"jobs_found":      len(result.Jobs),
			"processing_time": time.Since(start).String(),
		})

		status := http.StatusOK
		if !result.Success {
			status = http.StatusBadGateway
		}
		return c.JSON(status, response)
	}
}

// BatchCrawlHandler crawls a set of URLs under one shared configuration.
func BatchCrawlHandler(cfg *config.Config, coordinator *crawler.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		reqID := requestID(c)
		logger := logging.GetGlobalLogger()

		var req models.BatchCrawlRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing batch crawl request", map[string]interface{}{
			"request_id": reqID,
			"urls":       len(req.URLs),
		})

		batch := coordinator.CrawlBatch(c.Request().Context(), req.URLs, req.Options, req.MaxConcurrency)

		logger.Info("Batch crawl completed", map[string]interface{}{
			"request_id":      reqID,
			"total":           batch.Summary.Total,
			"succeeded":       batch.Summary.Succeeded,
			"failed":          batch.Summary.Failed,
			"processing_time": time.Since(start).String(),
		})

		return c.JSON(http.StatusOK, models.BatchCrawlResponse{
			Success:   batch.Summary.Failed == 0,
			Batch:     batch,
			RequestID: reqID,
		})
	}
}

// CareerPagesHandler discovers career pages on a site without job
// extraction.
func CareerPagesHandler(cfg *config.Config, cache *crawler.ResultCache, orch *crawler.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)

		var req models.CareerPagesRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		opts := &models.CrawlOptions{
			MaxPagesToScan:         req.MaxPagesToScan,
			StrictFiltering:        req.StrictFiltering,
			IncludeSubdomainSearch: req.IncludeSubdomainSearch,
		}
		result, _ := cache.GetOrFetch(c.Request().Context(), req.URL, opts, orch.Crawl)

		response := models.CareerPagesResponse{
			RequestedURL:    req.URL,
			Success:         result.Success,
			Error:           result.ErrorMessage,
			CareerPages:     breakdownURLs(result.CareerPages),
			PageAnalysis:    result.CareerPages,
			RejectedURLs:    result.RejectedURLs,
			TotalScanned:    result.DiscoveredURLs,
			ConfidenceScore: confidenceScore(result.CareerPages),
			CrawlTime:       result.CrawlTime,
			RequestID:       reqID,
		}

		status := http.StatusOK
		if !result.Success {
			status = http.StatusBadGateway
		}
		return c.JSON(status, response)
	}
}

// CacheStatsHandler reports result-cache counters.
func CacheStatsHandler(cache *crawler.ResultCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, cache.Stats())
	}
}

// CacheClearHandler drops every cached crawl result.
func CacheClearHandler(cache *crawler.ResultCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		cleared := cache.Clear()
		logging.GetGlobalLogger().Info("Result cache cleared", map[string]interface{}{
			"request_id": requestID(c),
			"cleared":    cleared,
		})
		return c.JSON(http.StatusOK, map[string]int{"cleared": cleared})
	}
}

func breakdownURLs(breakdowns []models.ScoreBreakdown) []string {
	urls := make([]string, 0, len(breakdowns))
	for _, bd := range breakdowns {
		urls = append(urls, bd.URL)
	}
	return urls
}

// confidenceScore maps the best accepted breakdown onto [0, 1]. A page
// scoring exactly at threshold lands at 0.5; twice the threshold saturates.
func confidenceScore(pages []models.ScoreBreakdown) float64 {
	best := 0.0
	for _, bd := range pages {
		if bd.Threshold <= 0 {
			continue
		}
		ratio := float64(bd.Total) / float64(2*bd.Threshold)
		if ratio > 1 {
			ratio = 1
		}
		if ratio > best {
			best = ratio
		}
	}
	return best
}
