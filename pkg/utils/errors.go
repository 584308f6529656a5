package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error kinds surfaced on failed crawl results.
const (
	ErrKindFetchTimeout   = "fetch_timeout"
	ErrKindFetchNetwork   = "fetch_network_error"
	ErrKindRender         = "render_error"
	ErrKindParse          = "parse_error"
	ErrKindTechnique      = "extraction_technique_error"
	ErrKindBudgetExceeded = "budget_exceeded"
	ErrKindInternal       = "internal_error"
)

// CrawlError is the application error type. Kind drives retry and fallback
// decisions; Detail carries the underlying cause for logging.
type CrawlError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`

	// Permanent forces Retryable to false for kinds that are normally
	// transient, such as a network error caused by a DNS miss.
	Permanent bool `json:"-"`
}

func (e *CrawlError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Retryable reports whether the failure is transient. Only timeouts and
// network-level resets are worth retrying; everything else fails fast.
func (e *CrawlError) Retryable() bool {
	if e.Permanent {
		return false
	}
	return e.Kind == ErrKindFetchTimeout || e.Kind == ErrKindFetchNetwork
}

func NewFetchTimeoutError(detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindFetchTimeout, Message: "fetch timed out", Detail: detail}
}

func NewFetchNetworkError(detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindFetchNetwork, Message: "network error during fetch", Detail: detail}
}

func NewRenderError(detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindRender, Message: "page render failed", Detail: detail}
}

func NewParseError(detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindParse, Message: "content parse failed", Detail: detail}
}

func NewTechniqueError(technique, detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindTechnique, Message: fmt.Sprintf("extraction technique %q failed", technique), Detail: detail}
}

func NewBudgetExceededError(detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindBudgetExceeded, Message: "crawl budget exceeded", Detail: detail}
}

func NewInternalError(detail string) *CrawlError {
	return &CrawlError{Kind: ErrKindInternal, Message: "internal error", Detail: detail}
}

// AsCrawlError returns err as a CrawlError, wrapping foreign errors as
// internal.
func AsCrawlError(err error) *CrawlError {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr
	}
	return NewInternalError(err.Error())
}

// ClassifyFetchError maps an arbitrary fetch failure onto the error taxonomy.
// DNS failures are network errors, but a name that does not resolve will not
// start resolving on a retry, so they come back with Retryable() false.
func ClassifyFetchError(err error) *CrawlError {
	if err == nil {
		return nil
	}

	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchTimeoutError(err.Error())
	}

	// DNSError satisfies net.Error, so it has to be checked first.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &CrawlError{
			Kind:      ErrKindFetchNetwork,
			Message:   "DNS resolution failed",
			Detail:    err.Error(),
			Permanent: !dnsErr.IsTemporary,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewFetchTimeoutError(err.Error())
		}
		return NewFetchNetworkError(err.Error())
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return NewFetchTimeoutError(err.Error())
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "broken pipe"):
		return NewFetchNetworkError(err.Error())
	default:
		return NewRenderError(err.Error())
	}
}

// IsPermanentFetchError reports failures that must not be retried: DNS
// misses and HTTP statuses that a retry cannot fix.
func IsPermanentFetchError(err error) bool {
	if err == nil {
		return false
	}
	return !ClassifyFetchError(err).Retryable()
}
