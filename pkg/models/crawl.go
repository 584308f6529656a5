package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CrawlState tracks a crawl through its lifecycle. DONE and FAILED are terminal.
type CrawlState string

const (
	StatePending       CrawlState = "PENDING"
	StateFetching      CrawlState = "FETCHING"
	StateRenderFailed  CrawlState = "RENDER_FAILED"
	StateFallbackFetch CrawlState = "FALLBACK_FETCHING"
	StateExtracting    CrawlState = "EXTRACTING"
	StateDeduping      CrawlState = "DEDUPING"
	StateDone          CrawlState = "DONE"
	StateFailed        CrawlState = "FAILED"
)

// Fetch methods recorded on a CrawlResult.
const (
	MethodRender   = "render"
	MethodFallback = "fallback"
)

// ScoreFactor is a single scoring step applied while classifying a URL.
type ScoreFactor struct {
	Name      string `json:"name"`
	Delta     int    `json:"delta"`
	Rationale string `json:"rationale,omitempty"`
}

// ScoreBreakdown is the full, deterministic record of a classification
// decision. Classification never errors; absence of signal is a low score.
type ScoreBreakdown struct {
	URL             string        `json:"url"`
	Kind            string        `json:"kind"`
	Factors         []ScoreFactor `json:"factors,omitempty"`
	Total           int           `json:"total"`
	Threshold       int           `json:"threshold"`
	Accepted        bool          `json:"accepted"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
}

// CrawlResult is the terminal outcome of crawling a single URL.
type CrawlResult struct {
	RequestedURL string     `json:"requested_url"`
	FinalURL     string     `json:"final_url,omitempty"`
	State        CrawlState `json:"state"`
	Success      bool       `json:"success"`
	// Partial marks a result truncated by a time or record budget rather
	// than a hard failure.
	Partial      bool   `json:"partial,omitempty"`
	Method       string `json:"method,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	DiscoveredURLs int              `json:"discovered_urls"`
	CareerPages    []ScoreBreakdown `json:"career_pages,omitempty"`
	JobLinks       []ScoreBreakdown `json:"job_links,omitempty"`
	RejectedURLs   []ScoreBreakdown `json:"rejected_urls,omitempty"`
	Jobs           []JobRecord      `json:"jobs,omitempty"`

	CrawlTime   time.Duration `json:"crawl_time"`
	CompletedAt time.Time     `json:"completed_at"`
}

// CrawlOptions is the caller-supplied configuration for a crawl. Its hash is
// part of the result-cache key, so two distinct configurations never collide.
type CrawlOptions struct {
	MaxPagesToScan         int           `json:"max_pages_to_scan,omitempty"`
	StrictFiltering        bool          `json:"strict_filtering,omitempty"`
	IncludeSubdomainSearch bool          `json:"include_subdomain_search,omitempty"`
	ExtractHiddenJobs      bool          `json:"extract_hidden_jobs,omitempty"`
	MaxJobs                int           `json:"max_jobs,omitempty"`
	JobQualityThreshold    int           `json:"job_quality_threshold,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
}

// Hash returns a stable digest of every option that influences crawl output.
func (o *CrawlOptions) Hash() string {
	if o == nil {
		o = &CrawlOptions{}
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"pages=%d|strict=%t|subdomains=%t|hidden=%t|maxjobs=%d|quality=%d",
		o.MaxPagesToScan, o.StrictFiltering, o.IncludeSubdomainSearch,
		o.ExtractHiddenJobs, o.MaxJobs, o.JobQualityThreshold,
	)))
	return hex.EncodeToString(sum[:8])
}

// BatchSummary aggregates per-URL outcomes of a batch crawl.
type BatchSummary struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
}

// BatchResult carries the individual crawl results plus the aggregate summary.
type BatchResult struct {
	Results []*CrawlResult `json:"results"`
	Summary BatchSummary   `json:"summary"`
}
