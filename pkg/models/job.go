package models

import (
	"net/url"
	"strings"
	"time"
)

// JobRecord represents a single normalized job posting extracted from a career page.
// Records are immutable once they leave the dedup stage.
type JobRecord struct {
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
	Salary      string `json:"salary,omitempty"`
	JobURL      string `json:"job_url,omitempty"`
	SourceURL   string `json:"source_url"`
	// Sources lists every extraction technique that independently produced
	// this record. The first entry is the technique that found it first.
	Sources     []string  `json:"sources"`
	ExtractedAt time.Time `json:"extracted_at"`
	Complete    bool      `json:"complete"`
}

// Provenance returns the technique that first produced the record.
func (j *JobRecord) Provenance() string {
	if len(j.Sources) == 0 {
		return ""
	}
	return j.Sources[0]
}

// DedupKey identifies a job record across techniques and pages: the
// normalized title joined with the path of the page it was found on.
func (j *JobRecord) DedupKey() string {
	title := strings.Join(strings.Fields(strings.ToLower(j.Title)), " ")
	path := ""
	if u, err := url.Parse(j.SourceURL); err == nil {
		path = strings.TrimSuffix(strings.ToLower(u.Path), "/")
	}
	return title + "|" + path
}

// IsComplete reports whether the record carries the optional fields that make
// it useful beyond a bare title.
func (j *JobRecord) IsComplete() bool {
	return j.Title != "" && j.Location != "" && j.Description != ""
}
