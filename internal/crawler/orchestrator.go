package crawler

import (
	"context"
	"strings"
	"time"

	"careerscout/internal/classifier"
	"careerscout/internal/config"
	"careerscout/internal/crawler/engines/headed"
	"careerscout/internal/extractor"
	"careerscout/internal/logging"
	"careerscout/internal/logging/types"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

// RenderSession is a live rendered page owned by one crawl.
type RenderSession interface {
	extractor.PageSession
	Close()
}

// RenderEngine is the primary fetch strategy.
type RenderEngine interface {
	Render(ctx context.Context, url string, timeout time.Duration) (RenderSession, error)
}

// Fetcher is the fallback fetch strategy.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*StaticPage, error)
}

// NewHeadedEngine adapts the browser-pool engine to the orchestrator's
// interface.
func NewHeadedEngine(engine *headed.Engine) RenderEngine {
	return &headedAdapter{engine: engine}
}

type headedAdapter struct {
	engine *headed.Engine
}

func (a *headedAdapter) Render(ctx context.Context, url string, timeout time.Duration) (RenderSession, error) {
	session, err := a.engine.Render(ctx, url, timeout)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Rejected breakdowns kept on a result, so pathological pages do not bloat
// responses.
const maxRejectedRecorded = 50

// Orchestrator drives a single URL through fetch, classification,
// extraction and dedup. Render is primary; a lightweight static fetch is
// attempted exactly once when rendering fails.
type Orchestrator struct {
	cfg     *config.Config
	engine  RenderEngine
	fetcher Fetcher
	logger  types.Logger
}

// NewOrchestrator creates a crawl orchestrator.
func NewOrchestrator(cfg *config.Config, engine RenderEngine, fetcher Fetcher) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		engine:  engine,
		fetcher: fetcher,
		logger:  logging.GetGlobalLogger(),
	}
}

// Crawl runs the full pipeline for one URL. It never returns an error:
// failures surface as a terminal result with a classified error.
func (o *Orchestrator) Crawl(ctx context.Context, rawURL string, opts *models.CrawlOptions) *models.CrawlResult {
	start := time.Now()
	if opts == nil {
		opts = &models.CrawlOptions{}
	}

	result := &models.CrawlResult{
		RequestedURL: rawURL,
		State:        models.StatePending,
	}
	defer func() {
		result.CrawlTime = time.Since(start)
		result.CompletedAt = time.Now().UTC()
	}()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	target, err := classifier.Normalize(rawURL)
	if err != nil {
		return o.fail(result, utils.NewParseError(err.Error()))
	}

	cls := o.classifierFor(opts)
	result.State = models.StateFetching

	session, static, fetchErr := o.fetchPage(ctx, result, target.Normalized)
	if fetchErr != nil {
		return o.fail(result, fetchErr)
	}
	if session != nil {
		defer session.Close()
	}

	var parsed *StaticPage
	var visible []models.JobRecord
	if session != nil {
		html, err := session.HTML()
		if err != nil {
			return o.fail(result, utils.NewRenderError(err.Error()))
		}
		parsed, err = ParseHTML(session.URL(), html)
		if err != nil {
			return o.fail(result, err)
		}
		result.FinalURL = session.URL()
		visible = tagRecords(extractor.ExtractVisible(session), extractor.SourceVisible)
	} else {
		parsed = static
		result.FinalURL = static.URL
		visible = tagRecords(static.Jobs, extractor.SourceVisible)
	}

	o.classifyLinks(cls, target, parsed.Anchors, opts, result)

	pageBreakdown := cls.Classify(target.Normalized, classifier.KindCareer, &parsed.Content)
	if pageBreakdown.Accepted {
		result.CareerPages = append([]models.ScoreBreakdown{pageBreakdown}, result.CareerPages...)
	}

	jobs := visible
	if session != nil && pageBreakdown.Accepted && opts.ExtractHiddenJobs {
		result.State = models.StateExtracting
		settings := extractor.SettingsFromConfig(o.cfg)
		runner := extractor.NewRunner(settings, o.logger)
		extracted, partial := runner.Extract(ctx, session, o.cfg.Extractor.TimeBudget, visible)
		jobs = extracted
		if partial {
			result.Partial = true
		}
	}

	jobs = append(jobs, o.scanCareerPages(ctx, cls, target, opts, result)...)

	result.State = models.StateDeduping
	jobs = extractor.DedupeRecords(jobs)
	if opts.MaxJobs > 0 && len(jobs) > opts.MaxJobs {
		jobs = jobs[:opts.MaxJobs]
		result.Partial = true
	}
	result.Jobs = jobs

	result.Success = true
	result.State = models.StateDone
	return result
}

// fetchPage runs the primary render strategy with bounded retries, then the
// fallback exactly once. Exactly one of session/static is non-nil on
// success.
func (o *Orchestrator) fetchPage(ctx context.Context, result *models.CrawlResult, url string) (RenderSession, *StaticPage, error) {
	session, renderErr := o.renderWithRetries(ctx, url)
	if renderErr == nil {
		result.Method = models.MethodRender
		return session, nil, nil
	}

	o.logger.Warn("render failed, attempting fallback fetch", map[string]interface{}{
		"url":   url,
		"error": renderErr.Error(),
	})
	result.State = models.StateRenderFailed
	result.State = models.StateFallbackFetch

	static, fetchErr := o.fetcher.Fetch(ctx, url)
	if fetchErr != nil {
		if static != nil {
			result.StatusCode = static.StatusCode
		}
		return nil, nil, fetchErr
	}
	result.Method = models.MethodFallback
	result.StatusCode = static.StatusCode
	return nil, static, nil
}

// renderWithRetries retries transient render failures with backoff.
// Permanent failures abort immediately.
func (o *Orchestrator) renderWithRetries(ctx context.Context, url string) (RenderSession, error) {
	var lastErr error
	backoff := o.cfg.Crawler.RetryBackoff
	for attempt := 0; attempt <= o.cfg.Crawler.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, utils.ClassifyFetchError(ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		session, err := o.engine.Render(ctx, url, o.cfg.Crawler.NavigationTimeout)
		if err == nil {
			return session, nil
		}

		classified := utils.ClassifyFetchError(err)
		lastErr = classified
		if utils.IsPermanentFetchError(classified) {
			break
		}
		o.logger.Debug("retrying render after transient failure", map[string]interface{}{
			"url":     url,
			"attempt": attempt + 1,
			"error":   classified.Error(),
		})
	}
	return nil, lastErr
}

// classifyLinks scores every discovered anchor, bounded by the discovery
// cap. Each normalized URL is scored once regardless of how many anchors
// point at it.
func (o *Orchestrator) classifyLinks(cls *classifier.Classifier, base *classifier.Candidate, anchors []PageAnchor, opts *models.CrawlOptions, result *models.CrawlResult) {
	seen := map[string]bool{base.Normalized: true}
	for _, anchor := range anchors {
		if result.DiscoveredURLs >= o.cfg.Crawler.MaxDiscoveredURLs {
			break
		}
		candidate, err := classifier.ResolveRef(base.Normalized, anchor.Href)
		if err != nil || seen[candidate.Normalized] {
			continue
		}
		seen[candidate.Normalized] = true
		if !inScope(base, candidate, opts) {
			continue
		}
		result.DiscoveredURLs++

		careerBd := cls.Classify(candidate.Normalized, classifier.KindCareer, nil)
		jobBd := cls.ClassifyAnchor(candidate.Normalized, &classifier.Anchor{
			Text:  anchor.Text,
			Class: anchor.Class,
			ID:    anchor.ID,
		}, nil)

		// Hub pages like /careers route to career pages even though the
		// job rule set also accepts them; postings beneath a hub route to
		// job links.
		switch {
		case careerBd.Accepted && candidate.IsCareerHub():
			result.CareerPages = append(result.CareerPages, careerBd)
		case jobBd.Accepted:
			result.JobLinks = append(result.JobLinks, jobBd)
		case careerBd.Accepted:
			result.CareerPages = append(result.CareerPages, careerBd)
		default:
			if len(result.RejectedURLs) < maxRejectedRecorded {
				rejected := careerBd
				if jobBd.Total > careerBd.Total {
					rejected = jobBd
				}
				result.RejectedURLs = append(result.RejectedURLs, rejected)
			}
		}
	}
}

// inScope keeps discovery on the target site: same host, subdomains when
// enabled, and links out to hosted job boards.
func inScope(base, candidate *classifier.Candidate, opts *models.CrawlOptions) bool {
	if candidate.Host == base.Host {
		return true
	}
	if candidate.IsJobBoard() {
		return true
	}
	if opts.IncludeSubdomainSearch {
		baseHost := strings.TrimPrefix(base.Host, "www.")
		candHost := strings.TrimPrefix(candidate.Host, "www.")
		return candHost == baseHost || strings.HasSuffix(candHost, "."+baseHost)
	}
	return false
}

// scanCareerPages visits accepted career sub-pages with the lightweight
// fetcher, harvesting their job links and visible records. Bounded by the
// caller's page budget; per-page failures are logged and skipped.
func (o *Orchestrator) scanCareerPages(ctx context.Context, cls *classifier.Classifier, target *classifier.Candidate, opts *models.CrawlOptions, result *models.CrawlResult) []models.JobRecord {
	if opts.MaxPagesToScan <= 0 {
		return nil
	}

	var jobs []models.JobRecord
	scanned := 0
	seenJobLinks := map[string]bool{}
	for _, bd := range result.JobLinks {
		seenJobLinks[bd.URL] = true
	}

	for _, career := range result.CareerPages {
		if scanned >= opts.MaxPagesToScan || ctx.Err() != nil {
			break
		}
		// Breakdowns carry normalized URLs, so the root page is matched on
		// its normalized form rather than the raw requested URL.
		if career.URL == target.Normalized || career.URL == result.FinalURL {
			continue
		}
		scanned++

		page, err := o.fetcher.Fetch(ctx, career.URL)
		if err != nil {
			o.logger.Warn("career page scan failed", map[string]interface{}{
				"url":   career.URL,
				"error": err.Error(),
			})
			continue
		}

		jobs = append(jobs, tagRecords(page.Jobs, extractor.SourceVisible)...)

		base, err := classifier.Normalize(career.URL)
		if err != nil {
			continue
		}
		for _, anchor := range page.Anchors {
			candidate, err := classifier.ResolveRef(base.Normalized, anchor.Href)
			if err != nil || seenJobLinks[candidate.Normalized] {
				continue
			}
			if !inScope(base, candidate, opts) {
				continue
			}
			jobBd := cls.ClassifyAnchor(candidate.Normalized, &classifier.Anchor{
				Text:  anchor.Text,
				Class: anchor.Class,
				ID:    anchor.ID,
			}, nil)
			if jobBd.Accepted {
				seenJobLinks[candidate.Normalized] = true
				result.JobLinks = append(result.JobLinks, jobBd)
			}
		}
	}
	return jobs
}

// classifierFor builds the scoring engine for one request's options.
func (o *Orchestrator) classifierFor(opts *models.CrawlOptions) *classifier.Classifier {
	settings := classifier.SettingsFromConfig(o.cfg)
	settings.Strict = opts.StrictFiltering
	if opts.JobQualityThreshold > 0 {
		settings.JobThreshold = opts.JobQualityThreshold
	}
	return classifier.New(settings)
}

func (o *Orchestrator) fail(result *models.CrawlResult, err error) *models.CrawlResult {
	crawlErr := utils.AsCrawlError(err)
	result.Success = false
	result.State = models.StateFailed
	result.ErrorKind = crawlErr.Kind
	result.ErrorMessage = crawlErr.Error()
	o.logger.Error("crawl failed", map[string]interface{}{
		"url":   result.RequestedURL,
		"kind":  crawlErr.Kind,
		"error": crawlErr.Error(),
	})
	return result
}

func tagRecords(records []models.JobRecord, source string) []models.JobRecord {
	for i := range records {
		if len(records[i].Sources) == 0 {
			records[i].Sources = []string{source}
		}
	}
	return records
}
