package classifier

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Candidate is a discovered link in canonical form. Two raw URLs that
// normalize identically are the same candidate.
type Candidate struct {
	Raw        string
	Normalized string
	Host       string
	Path       string
	Segments   []string
	Query      url.Values
}

// Tracking parameters stripped during normalization. They never change the
// page a URL resolves to.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {},
	"utm_term": {}, "utm_content": {}, "utm_id": {},
	"gclid": {}, "fbclid": {}, "msclkid": {}, "ref": {}, "referrer": {},
}

// Normalize canonicalizes a raw URL: lowercased host and path, default
// ports and fragments stripped, tracking parameters removed, remaining
// query keys sorted, trailing slash dropped except at the root.
func Normalize(rawURL string) (*Candidate, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty url")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	port := parsed.Port()
	if port != "" && port != defaultPort(parsed.Scheme) {
		host = host + ":" + port
	}

	path := strings.ToLower(parsed.EscapedPath())
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	query := url.Values{}
	for key, vals := range parsed.Query() {
		lowered := strings.ToLower(key)
		if _, tracking := trackingParams[lowered]; tracking {
			continue
		}
		for _, v := range vals {
			query.Add(lowered, strings.ToLower(v))
		}
	}

	normalized := parsed.Scheme + "://" + host + path
	if encoded := encodeSorted(query); encoded != "" {
		normalized += "?" + encoded
	}

	return &Candidate{
		Raw:        rawURL,
		Normalized: normalized,
		Host:       host,
		Path:       path,
		Segments:   splitSegments(path),
		Query:      query,
	}, nil
}

// Depth returns the number of non-empty path segments.
func (c *Candidate) Depth() int {
	return len(c.Segments)
}

// SameEntity reports whether two candidates normalize to the same URL.
func (c *Candidate) SameEntity(other *Candidate) bool {
	return other != nil && c.Normalized == other.Normalized
}

// IsCareerHub reports whether the path terminates at a career listing
// segment rather than continuing into an individual posting beneath one.
// "/careers" is a hub; "/careers/senior-backend-engineer" is not.
func (c *Candidate) IsCareerHub() bool {
	for _, pattern := range careerExactPatterns {
		if c.Path == pattern || strings.HasSuffix(c.Path, pattern) {
			return true
		}
	}
	return false
}

// IsJobBoard reports whether the candidate's host is a hosted job board
// platform rather than a first-party company site.
func (c *Candidate) IsJobBoard() bool {
	host := strings.TrimPrefix(c.Host, "www.")
	if _, ok := jobBoardDomains[host]; ok {
		return true
	}
	// Hosted ATS tenants live on subdomains, e.g. acme.recruitee.com.
	for domain := range jobBoardDomains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

func splitSegments(path string) []string {
	var segments []string
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// encodeSorted renders query values with keys in sorted order so that
// parameter ordering in the raw URL never changes the normalized form.
func encodeSorted(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		vals := append([]string(nil), query[key]...)
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// ResolveRef resolves a possibly-relative href against a base page URL and
// normalizes the result.
func ResolveRef(baseURL, href string) (*Candidate, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("invalid href %q: %w", href, err)
	}
	return Normalize(base.ResolveReference(ref).String())
}
