package extractor

import (
	"regexp"

	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

const (
	minCardTextLength  = 10
	minTitleLength     = 4
	maxDescriptionSize = 500
)

// jobCardSelectors is the battery tried, in order, when harvesting job
// cards from the current DOM state.
var jobCardSelectors = []string{
	".job-item", ".career-item", ".position-item",
	".job-card", ".career-card", ".position-card",
	".job-listing", ".career-listing", ".position-listing",
	"[data-job]", "[data-position]", "[data-career]",
	"article", ".card",
}

var titleSelectors = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	".title", ".job-title", ".position-title",
}

var locationSelectors = []string{".location", ".job-location", ".position-location", "[data-location]"}
var companySelectors = []string{".company", ".job-company", ".position-company", "[data-company]"}
var jobTypeSelectors = []string{".job-type", ".position-type", ".employment-type", "[data-type]"}
var salarySelectors = []string{".salary", ".job-salary", ".position-salary", "[data-salary]"}

// Title shapes recognized in free text pulled from hidden elements.
var textTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Developer|Engineer|Designer|Manager|Analyst|Specialist)`),
	regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Position|Role|Job)`),
	regexp.MustCompile(`(?:Senior|Junior|Lead|Principal)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`),
}

// ExtractVisible harvests job records from the page's current DOM state
// without running any reveal technique. The orchestrator uses it for the
// initial render pass.
func ExtractVisible(page PageSession) []models.JobRecord {
	return extractVisibleCards(page)
}

func extractVisibleCards(page PageSession) []models.JobRecord {
	var records []models.JobRecord
	for _, selector := range jobCardSelectors {
		elements, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			if rec, ok := extractCard(el); ok {
				rec.SourceURL = page.URL()
				records = append(records, rec)
			}
		}
	}
	return records
}

// countCards reports how many card elements the page currently exposes,
// used to detect whether a scroll round loaded anything new.
func countCards(page PageSession) int {
	count := 0
	for _, selector := range []string{".job-item", ".career-item", ".position-item"} {
		if elements, err := page.Elements(selector); err == nil {
			count += len(elements)
		}
	}
	return count
}

// extractCard reads one job record out of a card element. Missing optional
// fields stay empty; a card without a title yields nothing.
func extractCard(el Element) (models.JobRecord, bool) {
	text, err := el.Text()
	if err != nil {
		return models.JobRecord{}, false
	}
	text = utils.CleanText(text)
	if len(text) < minCardTextLength {
		return models.JobRecord{}, false
	}

	title := extractCardTitle(el)
	if title == "" {
		return models.JobRecord{}, false
	}

	rec := models.JobRecord{
		Title:       title,
		Description: utils.Truncate(text, maxDescriptionSize),
		Location:    firstText(el, locationSelectors),
		Company:     firstText(el, companySelectors),
		JobType:     firstText(el, jobTypeSelectors),
		Salary:      firstText(el, salarySelectors),
		JobURL:      extractCardURL(el),
	}
	return rec, true
}

func extractCardTitle(el Element) string {
	for _, selector := range titleSelectors {
		child, err := el.Find(selector)
		if err != nil || child == nil {
			continue
		}
		if title, err := child.Text(); err == nil {
			title = utils.CleanText(title)
			if len(title) >= minTitleLength {
				return title
			}
		}
	}
	for _, attr := range []string{"data-title", "title"} {
		if value, err := el.Attribute(attr); err == nil {
			value = utils.CleanText(value)
			if len(value) >= minTitleLength {
				return value
			}
		}
	}
	return ""
}

func extractCardURL(el Element) string {
	if link, err := el.Find("a[href]"); err == nil && link != nil {
		if href, err := link.Attribute("href"); err == nil && href != "" {
			return href
		}
	}
	if dataURL, err := el.Attribute("data-url"); err == nil {
		return dataURL
	}
	return ""
}

func firstText(el Element, selectors []string) string {
	for _, selector := range selectors {
		child, err := el.Find(selector)
		if err != nil || child == nil {
			continue
		}
		if text, err := child.Text(); err == nil {
			text = utils.CleanText(text)
			if len(text) > 2 {
				return text
			}
		}
	}
	return ""
}

// recordFromText builds a record from free-form text when no structured
// markup is available, as with hidden-DOM fragments.
func recordFromText(text string) (models.JobRecord, bool) {
	cleaned := utils.CleanText(text)
	title := ""
	for _, pattern := range textTitlePatterns {
		if match := pattern.FindString(cleaned); match != "" {
			title = match
			break
		}
	}
	if title == "" {
		return models.JobRecord{}, false
	}
	return models.JobRecord{
		Title:       title,
		Description: utils.Truncate(cleaned, maxDescriptionSize),
	}, true
}
