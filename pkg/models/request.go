package models

// CrawlRequest is the payload for crawling a single URL.
type CrawlRequest struct {
	URL     string        `json:"url" validate:"required,url"`
	Options *CrawlOptions `json:"options,omitempty"`
}

// BatchCrawlRequest is the payload for crawling a set of URLs under a
// shared configuration and concurrency cap.
type BatchCrawlRequest struct {
	URLs           []string      `json:"urls" validate:"required,min=1,dive,url"`
	Options        *CrawlOptions `json:"options,omitempty"`
	MaxConcurrency int           `json:"max_concurrency,omitempty" validate:"omitempty,min=1,max=32"`
}

// CareerPagesRequest asks for career-page discovery on a root URL.
type CareerPagesRequest struct {
	URL                    string `json:"url" validate:"required,url"`
	MaxPagesToScan         int    `json:"max_pages_to_scan,omitempty" validate:"omitempty,min=1,max=50"`
	StrictFiltering        bool   `json:"strict_filtering,omitempty"`
	IncludeSubdomainSearch bool   `json:"include_subdomain_search,omitempty"`
}
