package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig returns timeout middleware configuration
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: timeout,
	})
}

// SelectiveTimeoutConfig applies a short timeout to most endpoints and a
// longer one to crawl endpoints, which may hold a browser for minutes.
func SelectiveTimeoutConfig(defaultTimeout, crawlTimeout time.Duration) echo.MiddlewareFunc {
	crawlPaths := map[string]bool{
		"/api/v1/crawl":        true,
		"/api/v1/crawl/batch":  true,
		"/api/v1/career-pages": true,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			timeout := defaultTimeout
			if crawlPaths[c.Path()] {
				timeout = crawlTimeout
			}
			handler := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
				Timeout: timeout,
			})(next)
			return handler(c)
		}
	}
}
