package headed

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/internal/logging/types"
)

// BrowserManager manages the shared pool of browser instances.
type BrowserManager struct {
	config       *config.Config
	launcher     *launcher.Launcher
	browsers     []*rod.Browser
	mu           sync.RWMutex
	maxInstances int
	logger       types.Logger
}

// BrowserInstance is one leased browser with a fresh page. Each crawl owns
// its page exclusively; the underlying browser is shared.
type BrowserInstance struct {
	Browser   *rod.Browser
	Page      *rod.Page
	manager   *BrowserManager
	createdAt time.Time
}

// NewBrowserManager creates a browser manager from configuration.
func NewBrowserManager(cfg *config.Config) *BrowserManager {
	logger := logging.GetGlobalLogger()

	l := launcher.New().
		Headless(cfg.Crawler.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-web-security").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		// Required inside containers: GPU contexts and /dev/shm are both
		// unreliable there.
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	// Use a system-installed Chrome/Chromium instead of downloading one.
	if chromePath := getSystemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	} else {
		logger.Warn("System Chrome not found, Rod will download browser", map[string]interface{}{})
	}

	if cfg.Crawler.UserAgent != "" {
		l = l.Set("user-agent", cfg.Crawler.UserAgent)
	}

	return &BrowserManager{
		config:       cfg,
		launcher:     l,
		browsers:     make([]*rod.Browser, 0),
		maxInstances: cfg.BrowserPool.MaxInstances,
		logger:       logger,
	}
}

// GetBrowser leases a browser instance with a fresh page.
func (bm *BrowserManager) GetBrowser(ctx context.Context) (*BrowserInstance, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, browser := range bm.browsers {
		if !bm.isBrowserHealthy(browser) {
			continue
		}
		page, err := bm.createPage(browser)
		if err != nil {
			bm.logger.Warn("Failed to create page from existing browser", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		return &BrowserInstance{
			Browser:   browser,
			Page:      page,
			manager:   bm,
			createdAt: time.Now(),
		}, nil
	}

	if len(bm.browsers) < bm.maxInstances {
		browser, err := bm.createBrowser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		page, err := bm.createPage(browser)
		if err != nil {
			browser.MustClose()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		bm.browsers = append(bm.browsers, browser)
		return &BrowserInstance{
			Browser:   browser,
			Page:      page,
			manager:   bm,
			createdAt: time.Now(),
		}, nil
	}

	return nil, fmt.Errorf("browser pool exhausted, max instances: %d", bm.maxInstances)
}

func (bm *BrowserManager) createBrowser(ctx context.Context) (*rod.Browser, error) {
	url, err := bm.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	bm.logger.Info("New browser instance created", map[string]interface{}{})
	return browser, nil
}

// createPage creates a page, with stealth patches applied when configured.
func (bm *BrowserManager) createPage(browser *rod.Browser) (*rod.Page, error) {
	var page *rod.Page
	var err error
	if bm.config.Crawler.StealthMode {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		bm.logger.Warn("Failed to set viewport", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if bm.config.Crawler.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: bm.config.Crawler.UserAgent,
		}); err != nil {
			bm.logger.Warn("Failed to set user agent", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return page, nil
}

// Release closes the instance's page and returns the browser to the pool.
func (bi *BrowserInstance) Release() {
	if bi.Page != nil {
		_ = rod.Try(func() {
			bi.Page.MustClose()
		})
	}
	bi.manager.logger.Debug("Browser instance released")
}

func (bm *BrowserManager) isBrowserHealthy(browser *rod.Browser) bool {
	err := rod.Try(func() {
		browser.MustPages()
	})
	return err == nil
}

// Cleanup closes every pooled browser and the launcher.
func (bm *BrowserManager) Cleanup() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, browser := range bm.browsers {
		if bm.isBrowserHealthy(browser) {
			browser.MustClose()
		}
	}

	bm.browsers = nil
	bm.launcher.Cleanup()
	bm.logger.Info("Browser manager cleanup completed")
}

// IsHealthy reports whether the manager can serve instances.
func (bm *BrowserManager) IsHealthy() bool {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	for _, browser := range bm.browsers {
		if bm.isBrowserHealthy(browser) {
			return true
		}
	}
	return len(bm.browsers) < bm.maxInstances
}

// getSystemChromePath finds the system-installed Chrome/Chromium browser.
func getSystemChromePath() string {
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
