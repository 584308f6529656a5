package models

import "time"

// CrawlResponse wraps a single crawl result for the API layer.
type CrawlResponse struct {
	Success   bool         `json:"success"`
	Result    *CrawlResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	RequestID string       `json:"request_id"`
	Cached    bool         `json:"cached"`
}

// BatchCrawlResponse wraps a batch crawl outcome.
type BatchCrawlResponse struct {
	Success   bool         `json:"success"`
	Batch     *BatchResult `json:"batch,omitempty"`
	Error     string       `json:"error,omitempty"`
	RequestID string       `json:"request_id"`
}

// CareerPagesResponse reports discovered career pages with the scoring
// evidence behind every accept and reject decision.
type CareerPagesResponse struct {
	RequestedURL    string           `json:"requested_url"`
	Success         bool             `json:"success"`
	Error           string           `json:"error,omitempty"`
	CareerPages     []string         `json:"career_pages"`
	PageAnalysis    []ScoreBreakdown `json:"page_analysis,omitempty"`
	RejectedURLs    []ScoreBreakdown `json:"rejected_urls,omitempty"`
	TotalScanned    int              `json:"total_urls_scanned"`
	ConfidenceScore float64          `json:"confidence_score"`
	CrawlTime       time.Duration    `json:"crawl_time"`
	RequestID       string           `json:"request_id"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the envelope for request-level failures.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
