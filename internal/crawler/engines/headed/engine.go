package headed

import (
	"context"
	"fmt"
	"time"

	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/internal/logging/types"
)

// Engine renders pages through the shared browser pool. It is the
// orchestrator's primary fetch strategy.
type Engine struct {
	manager *BrowserManager
	cfg     *config.Config
	logger  types.Logger
}

// NewEngine creates a render engine on top of a browser manager.
func NewEngine(manager *BrowserManager, cfg *config.Config) *Engine {
	return &Engine{
		manager: manager,
		cfg:     cfg,
		logger:  logging.GetGlobalLogger(),
	}
}

// Render leases a browser, attaches interception, and navigates. The caller
// must Close the returned session.
func (e *Engine) Render(ctx context.Context, url string, timeout time.Duration) (*Session, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, e.cfg.BrowserPool.AcquisitionTimeout)
	instance, err := e.manager.GetBrowser(acquireCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire browser: %w", err)
	}

	session := NewSession(instance)
	if err := session.Navigate(ctx, url, timeout); err != nil {
		session.Close()
		return nil, err
	}

	e.logger.Debug("Page rendered", map[string]interface{}{
		"url": url,
	})
	return session, nil
}

// IsHealthy reports whether the underlying pool can serve renders.
func (e *Engine) IsHealthy() bool {
	return e.manager.IsHealthy()
}
