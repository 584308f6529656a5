package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"careerscout/internal/api/handlers"
	"careerscout/internal/api/middleware"
	"careerscout/internal/config"
	"careerscout/internal/crawler"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, orch *crawler.Orchestrator, cache *crawler.ResultCache, coordinator *crawler.Coordinator, browser handlers.BrowserHealth) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Crawl endpoints hold a browser page and can outlive the default
	// request timeout by a wide margin.
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, 5*time.Minute))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(browser))
		health.GET("/live", handlers.LivenessHandler)
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.POST("/crawl", handlers.CrawlHandler(cfg, cache, orch))
		v1.POST("/crawl/batch", handlers.BatchCrawlHandler(cfg, coordinator))
		v1.POST("/career-pages", handlers.CareerPagesHandler(cfg, cache, orch))

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/stats", handlers.CacheStatsHandler(cache))
			cacheGroup.DELETE("", handlers.CacheClearHandler(cache))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "CareerScout",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
