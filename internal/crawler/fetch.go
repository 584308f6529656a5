package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"careerscout/internal/classifier"
	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/internal/logging/types"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

const maxStaticBodySize = 5 << 20

// StaticFetcher is the fallback fetch strategy: one plain HTTP GET plus a
// static parse. It sees no JavaScript-rendered content.
type StaticFetcher struct {
	client    *http.Client
	userAgent string
	logger    types.Logger
}

// StaticPage is the parsed outcome of a lightweight fetch.
type StaticPage struct {
	URL        string
	StatusCode int
	Content    classifier.PageContent
	Anchors    []PageAnchor
	Jobs       []models.JobRecord
}

// PageAnchor is one link found in a page, with the element context the
// classifier scores.
type PageAnchor struct {
	Href  string
	Text  string
	Class string
	ID    string
}

// NewStaticFetcher creates the fallback fetcher from configuration.
func NewStaticFetcher(cfg *config.Config) *StaticFetcher {
	return &StaticFetcher{
		client: &http.Client{
			Timeout: cfg.Crawler.FallbackTimeout,
		},
		userAgent: cfg.Crawler.UserAgent,
		logger:    logging.GetGlobalLogger(),
	}
}

// Fetch performs a single GET and parses the response body. Non-2xx
// statuses are returned as errors carrying the status code.
func (f *StaticFetcher) Fetch(ctx context.Context, rawURL string) (*StaticPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, utils.NewFetchNetworkError(fmt.Sprintf("invalid request for %s: %v", rawURL, err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, utils.ClassifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StaticPage{URL: rawURL, StatusCode: resp.StatusCode},
			utils.NewFetchNetworkError(fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, rawURL))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStaticBodySize))
	if err != nil {
		return nil, utils.ClassifyFetchError(err)
	}

	page, err := ParseHTML(rawURL, string(body))
	if err != nil {
		return nil, err
	}
	page.StatusCode = resp.StatusCode
	return page, nil
}

// ParseHTML parses an HTML document into the content, anchors and visible
// job records the crawl pipeline consumes. Both fetch strategies share it.
func ParseHTML(pageURL, html string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, utils.NewParseError(fmt.Sprintf("failed to parse HTML from %s: %v", pageURL, err))
	}

	page := &StaticPage{URL: pageURL}

	page.Content = classifier.PageContent{
		Title:           utils.CleanText(doc.Find("title").First().Text()),
		MetaDescription: metaDescription(doc),
		BodyText:        utils.CleanText(doc.Find("body").Text()),
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		page.Anchors = append(page.Anchors, PageAnchor{
			Href:  href,
			Text:  utils.CleanText(sel.Text()),
			Class: class,
			ID:    id,
		})
	})

	page.Jobs = staticJobCards(doc, pageURL)
	return page, nil
}

func metaDescription(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return utils.CleanText(content)
}

var staticCardSelectors = []string{
	".job-item", ".career-item", ".position-item",
	".job-card", ".career-card", ".position-card",
	".job-listing", ".career-listing", ".position-listing",
	"[data-job]", "[data-position]", "[data-career]",
}

var staticTitleSelectors = "h1, h2, h3, h4, h5, h6, .title, .job-title, .position-title"

// staticJobCards reads job records out of the static DOM with the same card
// shape the live extractor uses.
func staticJobCards(doc *goquery.Document, pageURL string) []models.JobRecord {
	var records []models.JobRecord
	for _, selector := range staticCardSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := utils.CleanText(sel.Text())
			if len(text) < 10 {
				return
			}
			title := utils.CleanText(sel.Find(staticTitleSelectors).First().Text())
			if title == "" {
				title, _ = sel.Attr("data-title")
				title = utils.CleanText(title)
			}
			if len(title) < 4 {
				return
			}

			jobURL, _ := sel.Find("a[href]").First().Attr("href")
			records = append(records, models.JobRecord{
				Title:       title,
				Description: utils.Truncate(text, 500),
				Location:    firstSelectionText(sel, ".location, .job-location, .position-location"),
				Company:     firstSelectionText(sel, ".company, .job-company"),
				JobType:     firstSelectionText(sel, ".job-type, .employment-type"),
				Salary:      firstSelectionText(sel, ".salary, .job-salary"),
				JobURL:      strings.TrimSpace(jobURL),
				SourceURL:   pageURL,
				ExtractedAt: time.Now().UTC(),
			})
		})
	}
	return records
}

func firstSelectionText(sel *goquery.Selection, selector string) string {
	text := utils.CleanText(sel.Find(selector).First().Text())
	if len(text) <= 2 {
		return ""
	}
	return text
}
