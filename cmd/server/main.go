package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"careerscout/internal/api/routes"
	"careerscout/internal/config"
	"careerscout/internal/crawler"
	"careerscout/internal/crawler/engines/headed"
	"careerscout/internal/logging"
	"careerscout/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting CareerScout", map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	})

	// Browser pool and rendering engine
	browserManager := headed.NewBrowserManager(cfg)
	defer browserManager.Cleanup()
	engine := headed.NewEngine(browserManager, cfg)

	// Crawl pipeline
	fetcher := crawler.NewStaticFetcher(cfg)
	orchestrator := crawler.NewOrchestrator(cfg, crawler.NewHeadedEngine(engine), fetcher)

	// Result cache, optionally backed by Redis
	var redisClient *utils.RedisClient
	if cfg.Cache.RedisEnabled {
		redisClient = utils.NewRedisClient(cfg)
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
		if err := redisClient.Ping(pingCtx); err != nil {
			logger.Warn("Redis unreachable, continuing with in-process cache only", map[string]interface{}{
				"error": err.Error(),
			})
			redisClient = nil
		}
		cancel()
	}
	cache := crawler.NewResultCache(cfg, redisClient)
	defer cache.Close()

	coordinator := crawler.NewCoordinator(cfg, cache, orchestrator.Crawl)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, cfg, orchestrator, cache, coordinator, engine)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{
				"error": err.Error(),
			})
		}

		browserManager.Cleanup()
		cache.Close()
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error("Error closing Redis client", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil {
		logger.Info("Server stopped", map[string]interface{}{"reason": err.Error()})
	}
}
