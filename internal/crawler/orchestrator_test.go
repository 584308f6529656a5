package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerscout/internal/config"
	"careerscout/internal/extractor"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

const careerPageHTML = `<!DOCTYPE html>
<html>
<head>
<title>Careers at Acme</title>
<meta name="description" content="Open positions and hiring at Acme">
</head>
<body>
<h1>Careers</h1>
<p>We are hiring. Browse our open positions and apply today.</p>
<a href="/jobs">All openings</a>
<a href="/careers/senior-backend-engineer" class="job-card-link">Senior Backend Engineer</a>
<a href="/careers/product-designer" class="job-card-link">Product Designer</a>
<a href="/about">About us</a>
<a href="/blog/life-at-acme">Blog</a>
<div class="job-item"><h3>Senior Backend Engineer</h3><div class="location">Hanoi</div></div>
</body>
</html>`

type stubSession struct {
	url      string
	html     string
	scriptMu sync.Mutex
	script   string
}

func (s *stubSession) URL() string                                  { return s.url }
func (s *stubSession) HTML() (string, error)                        { return s.html, nil }
func (s *stubSession) Elements(string) ([]extractor.Element, error) { return nil, nil }
func (s *stubSession) Element(string) (extractor.Element, error)    { return nil, nil }
func (s *stubSession) WaitStable() error                            { return nil }
func (s *stubSession) ScrollToBottom() error                        { return nil }
func (s *stubSession) NetworkExchanges() []extractor.NetworkExchange {
	return nil
}
func (s *stubSession) Close() {}

func (s *stubSession) Eval(js string) (json.RawMessage, error) {
	s.scriptMu.Lock()
	defer s.scriptMu.Unlock()
	if s.script != "" && strings.Contains(js, "querySelectorAll('script')") {
		return json.RawMessage(s.script), nil
	}
	return json.RawMessage("[]"), nil
}

type stubEngine struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	session *stubSession
}

func (e *stubEngine) Render(_ context.Context, url string, _ time.Duration) (RenderSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	call := e.calls
	e.calls++
	if call < len(e.errs) && e.errs[call] != nil {
		return nil, e.errs[call]
	}
	if e.session == nil {
		return nil, errors.New("no session configured")
	}
	return e.session, nil
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type stubFetcher struct {
	mu    sync.Mutex
	calls []string
	pages map[string]*StaticPage
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*StaticPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return nil, utils.NewFetchNetworkError("no page configured for " + url)
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Crawler.RetryBackoff = time.Millisecond
	return cfg
}

func staticCareerPage(t *testing.T, url string) *StaticPage {
	t.Helper()
	page, err := ParseHTML(url, careerPageHTML)
	require.NoError(t, err)
	page.StatusCode = 200
	return page
}

func breakdownURLs(breakdowns []models.ScoreBreakdown) []string {
	urls := make([]string, 0, len(breakdowns))
	for _, bd := range breakdowns {
		urls = append(urls, bd.URL)
	}
	return urls
}

func TestCrawlRenderSuccess(t *testing.T) {
	cfg := testConfig(t)
	engine := &stubEngine{session: &stubSession{url: "https://acme.example/careers", html: careerPageHTML}}
	fetcher := &stubFetcher{}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", nil)

	require.True(t, result.Success)
	assert.Equal(t, models.StateDone, result.State)
	assert.Equal(t, models.MethodRender, result.Method)
	assert.Equal(t, "https://acme.example/careers", result.FinalURL)
	assert.Zero(t, fetcher.callCount(), "fallback must not run when rendering succeeds")
	assert.False(t, result.CompletedAt.IsZero())

	careerURLs := breakdownURLs(result.CareerPages)
	assert.Contains(t, careerURLs, "https://acme.example/careers")
	assert.Contains(t, careerURLs, "https://acme.example/jobs")

	jobURLs := breakdownURLs(result.JobLinks)
	assert.Contains(t, jobURLs, "https://acme.example/careers/senior-backend-engineer")
	assert.Contains(t, jobURLs, "https://acme.example/careers/product-designer")
	assert.NotContains(t, careerURLs, "https://acme.example/careers/senior-backend-engineer")

	assert.NotEmpty(t, result.RejectedURLs)
	for _, bd := range result.RejectedURLs {
		assert.False(t, bd.Accepted)
		assert.NotEmpty(t, bd.RejectionReason)
	}
	assert.Equal(t, 5, result.DiscoveredURLs)
}

func TestCrawlFallbackRunsExactlyOnce(t *testing.T) {
	cfg := testConfig(t)
	engine := &stubEngine{errs: []error{errors.New("browser crashed")}}
	fetcher := &stubFetcher{pages: map[string]*StaticPage{
		"https://acme.example/careers": staticCareerPage(t, "https://acme.example/careers"),
	}}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", nil)

	require.True(t, result.Success)
	assert.Equal(t, models.MethodFallback, result.Method)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, 1, engine.callCount(), "non-retryable render failure must not retry")
	assert.Equal(t, 1, fetcher.callCount())

	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "Senior Backend Engineer", result.Jobs[0].Title)
	assert.Equal(t, extractor.SourceVisible, result.Jobs[0].Provenance())
}

func TestCrawlRetriesTransientRenderFailures(t *testing.T) {
	cfg := testConfig(t)
	engine := &stubEngine{
		errs: []error{
			utils.NewFetchTimeoutError("navigation deadline"),
			utils.NewFetchTimeoutError("navigation deadline"),
		},
		session: &stubSession{url: "https://acme.example/careers", html: careerPageHTML},
	}
	fetcher := &stubFetcher{}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", nil)

	require.True(t, result.Success)
	assert.Equal(t, models.MethodRender, result.Method)
	assert.Equal(t, 3, engine.callCount())
	assert.Zero(t, fetcher.callCount())
}

func TestCrawlDoubleFailureReportsClassifiedError(t *testing.T) {
	cfg := testConfig(t)
	engine := &stubEngine{errs: []error{
		utils.NewFetchTimeoutError("t1"),
		utils.NewFetchTimeoutError("t2"),
		utils.NewFetchTimeoutError("t3"),
	}}
	fetcher := &stubFetcher{err: utils.NewFetchNetworkError("connection refused")}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", nil)

	require.False(t, result.Success)
	assert.Equal(t, models.StateFailed, result.State)
	assert.Equal(t, utils.ErrKindFetchNetwork, result.ErrorKind)
	assert.Equal(t, 3, engine.callCount(), "retry budget is MaxRetries plus the first attempt")
	assert.Equal(t, 1, fetcher.callCount(), "fallback runs exactly once")
}

func TestCrawlRejectsUnsupportedScheme(t *testing.T) {
	cfg := testConfig(t)
	orch := NewOrchestrator(cfg, &stubEngine{}, &stubFetcher{})

	result := orch.Crawl(context.Background(), "ftp://acme.example/careers", nil)

	require.False(t, result.Success)
	assert.Equal(t, models.StateFailed, result.State)
	assert.Equal(t, utils.ErrKindParse, result.ErrorKind)
}

func TestCrawlHiddenExtractionMergesWithSeed(t *testing.T) {
	cfg := testConfig(t)
	session := &stubSession{
		url:    "https://acme.example/careers",
		html:   careerPageHTML,
		script: `[{"title": "Platform Engineer", "location": "Remote", "description": "Build and run our delivery platform."}]`,
	}
	engine := &stubEngine{session: session}
	orch := NewOrchestrator(cfg, engine, &stubFetcher{})

	result := orch.Crawl(context.Background(), "https://acme.example/careers", &models.CrawlOptions{
		ExtractHiddenJobs: true,
	})

	require.True(t, result.Success)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "Platform Engineer", result.Jobs[0].Title)
	assert.Equal(t, "Remote", result.Jobs[0].Location)
	assert.Equal(t, extractor.SourceScriptData, result.Jobs[0].Provenance())
}

func TestCrawlMaxJobsCapMarksPartial(t *testing.T) {
	cfg := testConfig(t)
	twoCards := `<html><head><title>Careers</title></head><body>
<div class="job-item"><h3>Backend Engineer</h3><div class="location">Hanoi</div></div>
<div class="job-item"><h3>Frontend Engineer</h3><div class="location">Da Nang</div></div>
</body></html>`
	page, err := ParseHTML("https://acme.example/careers", twoCards)
	require.NoError(t, err)
	page.StatusCode = 200

	engine := &stubEngine{errs: []error{errors.New("browser crashed")}}
	fetcher := &stubFetcher{pages: map[string]*StaticPage{"https://acme.example/careers": page}}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", &models.CrawlOptions{MaxJobs: 1})

	require.True(t, result.Success)
	assert.Len(t, result.Jobs, 1)
	assert.True(t, result.Partial)
}

func TestCrawlScansAcceptedCareerPages(t *testing.T) {
	cfg := testConfig(t)
	subPage, err := ParseHTML("https://acme.example/jobs", `<html><head><title>Open positions</title></head><body>
<a href="/jobs/data-scientist" class="job-link">Data Scientist</a>
<div class="job-item"><h3>Data Scientist</h3><div class="location">Hanoi</div></div>
</body></html>`)
	require.NoError(t, err)
	subPage.StatusCode = 200

	engine := &stubEngine{session: &stubSession{url: "https://acme.example/careers", html: careerPageHTML}}
	fetcher := &stubFetcher{pages: map[string]*StaticPage{"https://acme.example/jobs": subPage}}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", &models.CrawlOptions{
		MaxPagesToScan: 2,
	})

	require.True(t, result.Success)
	assert.Contains(t, fetcher.calls, "https://acme.example/jobs")
	assert.Contains(t, breakdownURLs(result.JobLinks), "https://acme.example/jobs/data-scientist")

	titles := make([]string, 0, len(result.Jobs))
	for _, job := range result.Jobs {
		titles = append(titles, job.Title)
	}
	assert.Contains(t, titles, "Data Scientist")
}

func TestCrawlSkipsOffSiteLinks(t *testing.T) {
	cfg := testConfig(t)
	html := `<html><head><title>Careers at Acme</title></head><body>
<p>We are hiring, apply for our open positions.</p>
<a href="https://other.example/careers">Partner careers</a>
<a href="/careers/senior-backend-engineer" class="job-card-link">Senior Backend Engineer</a>
</body></html>`
	engine := &stubEngine{session: &stubSession{url: "https://acme.example/careers", html: html}}
	orch := NewOrchestrator(cfg, engine, &stubFetcher{})

	result := orch.Crawl(context.Background(), "https://acme.example/careers", nil)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.DiscoveredURLs)
	assert.NotContains(t, breakdownURLs(result.CareerPages), "https://other.example/careers")
}

func TestCrawlStrictFilteringRaisesThreshold(t *testing.T) {
	cfg := testConfig(t)
	html := `<html><head><title>Careers at Acme</title></head><body>
<p>We are hiring, apply for our open positions.</p>
<a href="/positions/qa">QA</a>
</body></html>`
	session := &stubSession{url: "https://acme.example/careers", html: html}

	relaxed := NewOrchestrator(cfg, &stubEngine{session: session}, &stubFetcher{})
	loose := relaxed.Crawl(context.Background(), "https://acme.example/careers", &models.CrawlOptions{
		JobQualityThreshold: 7,
	})
	require.True(t, loose.Success)
	assert.Contains(t, breakdownURLs(loose.JobLinks), "https://acme.example/positions/qa")

	strictOrch := NewOrchestrator(cfg, &stubEngine{session: session}, &stubFetcher{})
	strict := strictOrch.Crawl(context.Background(), "https://acme.example/careers", &models.CrawlOptions{
		JobQualityThreshold: 7,
		StrictFiltering:     true,
	})
	require.True(t, strict.Success)
	assert.NotContains(t, breakdownURLs(strict.JobLinks), "https://acme.example/positions/qa")
}

func TestCrawlSubdomainSearchAdmitsCareerHosts(t *testing.T) {
	cfg := testConfig(t)
	html := `<html><head><title>Careers at Acme</title></head><body>
<p>We are hiring, apply for our open positions.</p>
<a href="https://careers.acme.example/jobs">Acme careers portal</a>
</body></html>`
	session := &stubSession{url: "https://acme.example/careers", html: html}

	defaultOrch := NewOrchestrator(cfg, &stubEngine{session: session}, &stubFetcher{})
	sameHostOnly := defaultOrch.Crawl(context.Background(), "https://acme.example/careers", nil)
	require.True(t, sameHostOnly.Success)
	assert.Zero(t, sameHostOnly.DiscoveredURLs)
	assert.NotContains(t, breakdownURLs(sameHostOnly.CareerPages), "https://careers.acme.example/jobs")

	subOrch := NewOrchestrator(cfg, &stubEngine{session: session}, &stubFetcher{})
	expanded := subOrch.Crawl(context.Background(), "https://acme.example/careers", &models.CrawlOptions{
		IncludeSubdomainSearch: true,
	})
	require.True(t, expanded.Success)
	assert.Equal(t, 1, expanded.DiscoveredURLs)
	assert.Contains(t, breakdownURLs(expanded.CareerPages), "https://careers.acme.example/jobs")
}

func TestCrawlDoesNotRetryDNSFailures(t *testing.T) {
	cfg := testConfig(t)
	dnsErr := &net.DNSError{Err: "no such host", Name: "acme.example", IsNotFound: true}
	engine := &stubEngine{errs: []error{dnsErr, dnsErr, dnsErr}}
	fetcher := &stubFetcher{err: utils.NewFetchNetworkError("connection refused")}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://acme.example/careers", nil)

	require.False(t, result.Success)
	assert.Equal(t, utils.ErrKindFetchNetwork, result.ErrorKind)
	assert.Equal(t, 1, engine.callCount(), "a name that does not resolve is not retried")
	assert.Equal(t, 1, fetcher.callCount())
}

func TestCrawlScanSkipsRootPageVariants(t *testing.T) {
	cfg := testConfig(t)
	subPage, err := ParseHTML("https://acme.example/jobs", `<html><head><title>Open positions</title></head><body>
<div class="job-item"><h3>Data Scientist</h3><div class="location">Hanoi</div></div>
</body></html>`)
	require.NoError(t, err)
	subPage.StatusCode = 200

	// The browser reports a trailing slash and the caller an uppercase
	// host, so neither matches the normalized root breakdown verbatim.
	engine := &stubEngine{session: &stubSession{url: "https://acme.example/careers/", html: careerPageHTML}}
	fetcher := &stubFetcher{pages: map[string]*StaticPage{"https://acme.example/jobs": subPage}}
	orch := NewOrchestrator(cfg, engine, fetcher)

	result := orch.Crawl(context.Background(), "https://ACME.example/careers/", &models.CrawlOptions{
		MaxPagesToScan: 5,
	})

	require.True(t, result.Success)
	assert.Contains(t, fetcher.calls, "https://acme.example/jobs")
	assert.NotContains(t, fetcher.calls, "https://acme.example/careers")
}
