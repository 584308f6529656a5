package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"careerscout/pkg/models"
)

// technique is one step of the extraction battery. Order matters: later
// techniques assume the DOM mutations earlier ones made.
type technique struct {
	name string
	run  func(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error)
}

var techniques = []technique{
	{SourceSettle, runSettle},
	{SourceReveal, runReveal},
	{SourceScroll, runScroll},
	{SourceTabs, runTabs},
	{SourceScriptData, runScriptData},
	{SourceNetwork, runNetwork},
	{SourceHiddenDOM, runHiddenDOM},
	{SourcePagination, runPagination},
	{SourceFilters, runFilters},
	{SourceModal, runModal},
}

var loadingIndicatorSelectors = []string{
	".job-list", ".career-list", ".position-list",
	".job-item", ".career-item", ".position-item",
	"[data-job]", "[data-position]", "[data-career]",
	".loading", ".spinner", ".loader",
}

var expandSelectors = []string{
	".expand", ".collapse", ".toggle",
	".show-more", ".load-more", ".view-more",
	`[data-toggle="collapse"]`, `[data-bs-toggle="collapse"]`,
	".accordion-button", ".accordion-header",
	".expand-btn", ".more-btn", ".load-btn",
	`button[aria-expanded="false"]`,
	".job-expand", ".position-expand",
}

var tabSelectors = []string{
	".tab", ".tab-item", ".nav-tab",
	`[role="tab"]`, "[data-tab]", "[data-bs-tab]",
	".job-tab", ".career-tab", ".position-tab",
}

var accordionSelectors = []string{
	".accordion-item", ".accordion-header",
	".collapse-header", ".expand-header",
	`[data-toggle="collapse"]`, `[data-bs-toggle="collapse"]`,
}

var paginationSelectors = []string{
	".pagination", ".pager", ".page-nav",
	".next", ".page-number",
	"[data-page]", `[aria-label*="page"]`,
	".load-more", ".show-more", ".view-more",
}

var nextPageKeywords = []string{"next", ">", "»", "more", "load"}

// filterMatrix is the bounded set of filter combinations applied during the
// filter sweep.
var filterMatrix = []map[string]string{
	{"department": "engineering"},
	{"department": "design"},
	{"department": "marketing"},
	{"type": "full-time"},
	{"type": "remote"},
	{"level": "senior"},
	{"level": "junior"},
}

const modalTriggerSelector = `[data-toggle="modal"], [data-bs-toggle="modal"], .modal-trigger, .popup-trigger`
const modalContentSelector = `.modal, .popup, [role="dialog"]`
const modalCloseSelector = `.modal .close, .modal .btn-close, [data-dismiss="modal"]`

// runSettle waits for job-list markup to appear and for the page to
// quiesce. It produces no records itself.
func runSettle(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	for _, selector := range loadingIndicatorSelectors {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if el, err := page.Element(selector); err == nil && el != nil {
			break
		}
	}
	return nil, page.WaitStable()
}

// runReveal activates expand/collapse controls, then harvests whatever
// became visible.
func runReveal(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	for _, selector := range expandSelectors {
		if ctx.Err() != nil {
			return extractVisibleCards(page), ctx.Err()
		}
		elements, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			if visible, err := el.Visible(); err != nil || !visible {
				continue
			}
			if err := el.Click(); err != nil {
				continue
			}
		}
	}
	if err := page.WaitStable(); err != nil {
		return nil, err
	}
	return extractVisibleCards(page), nil
}

// runScroll repeats scroll-to-bottom cycles until the card count stops
// growing or the round cap is hit.
func runScroll(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	for round := 0; round < r.settings.MaxScrollRounds; round++ {
		if ctx.Err() != nil {
			return extractVisibleCards(page), ctx.Err()
		}
		before := countCards(page)
		if err := page.ScrollToBottom(); err != nil {
			break
		}
		if err := page.WaitStable(); err != nil {
			break
		}
		if countCards(page) <= before {
			break
		}
	}
	return extractVisibleCards(page), nil
}

// runTabs activates every tab and accordion pane in turn, extracting after
// each activation.
func runTabs(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	var records []models.JobRecord
	selectorGroups := [][]string{tabSelectors, accordionSelectors}
	for _, group := range selectorGroups {
		for _, selector := range group {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			elements, err := page.Elements(selector)
			if err != nil {
				continue
			}
			for _, el := range elements {
				if visible, err := el.Visible(); err != nil || !visible {
					continue
				}
				if err := el.Click(); err != nil {
					continue
				}
				if err := page.WaitStable(); err != nil {
					continue
				}
				records = append(records, extractVisibleCards(page)...)
			}
		}
	}
	return records, nil
}

// scriptDataJS scans inline scripts for job-shaped arrays and returns the
// raw objects. Malformed fragments are skipped inside the page.
const scriptDataJS = `() => {
	const out = [];
	const patterns = [
		/(?:jobs?|positions?|careers?|openings?|opportunities|vacancies)\s*[:=]\s*(\[[\s\S]*?\])/gi,
	];
	for (const script of document.querySelectorAll('script')) {
		const content = script.textContent || '';
		for (const pattern of patterns) {
			let match;
			while ((match = pattern.exec(content)) !== null) {
				try {
					const data = JSON.parse(match[1]);
					if (Array.isArray(data)) out.push(...data);
				} catch (e) {
					const objects = match[1].match(/\{[^{}]*"title"[^{}]*\}/gi) || [];
					for (const obj of objects) {
						try { out.push(JSON.parse(obj)); } catch (e2) {}
					}
				}
			}
		}
	}
	return out;
}`

// runScriptData parses job-shaped structured data embedded in inline
// scripts.
func runScriptData(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	raw, err := page.Eval(scriptDataJS)
	if err != nil {
		return nil, err
	}
	var objects []map[string]interface{}
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, err
	}
	var records []models.JobRecord
	for _, obj := range objects {
		if rec, ok := normalizeFields(obj); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// runNetwork parses JSON bodies captured from requests whose URLs look like
// job or career API endpoints.
func runNetwork(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	var records []models.JobRecord
	for _, exchange := range page.NetworkExchanges() {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		if !isJobAPIURL(exchange.URL) {
			continue
		}
		var payload interface{}
		if err := json.Unmarshal(exchange.Body, &payload); err != nil {
			continue
		}
		for _, obj := range collectJobShaped(payload, 0) {
			if rec, ok := normalizeFields(obj); ok {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// isJobAPIURL applies the job/career/API path heuristics to a captured
// request URL.
func isJobAPIURL(url string) bool {
	lower := strings.ToLower(url)
	for _, token := range []string{"job", "career", "position", "vacan", "opening", "/api/", "graphql"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// hiddenDOMJS walks the full DOM including display:none, visibility:hidden
// and zero-opacity elements, returning those with job-related text.
const hiddenDOMJS = `() => {
	const out = [];
	const keywordRe = /job|career|position|hiring|recruitment|tuyển dụng|việc làm/i;
	for (const element of document.querySelectorAll('*')) {
		const style = window.getComputedStyle(element);
		const hidden = style.display === 'none' ||
			style.visibility === 'hidden' ||
			style.opacity === '0';
		if (!hidden) continue;
		const text = element.textContent || '';
		if (!keywordRe.test(text)) continue;
		out.push({
			tag: element.tagName,
			class: element.className,
			id: element.id,
			text: text.substring(0, 500),
		});
	}
	return out;
}`

type hiddenElement struct {
	Tag   string `json:"tag"`
	Class string `json:"class"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// runHiddenDOM surfaces job records from elements the page keeps hidden.
func runHiddenDOM(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	raw, err := page.Eval(hiddenDOMJS)
	if err != nil {
		return nil, err
	}
	var elements []hiddenElement
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, err
	}
	var records []models.JobRecord
	for _, el := range elements {
		if rec, ok := recordFromText(el.Text); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// runPagination clicks through "next page" controls up to the page cap,
// extracting after each navigation.
func runPagination(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	var records []models.JobRecord
	for pageNum := 1; pageNum <= r.settings.MaxPages; pageNum++ {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		next := findNextControl(page)
		if next == nil {
			break
		}
		if err := next.Click(); err != nil {
			break
		}
		if err := page.WaitStable(); err != nil {
			break
		}
		records = append(records, extractVisibleCards(page)...)
	}
	return records, nil
}

func findNextControl(page PageSession) Element {
	for _, selector := range paginationSelectors {
		elements, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			text, err := el.Text()
			if err != nil {
				continue
			}
			lower := strings.ToLower(text)
			for _, keyword := range nextPageKeywords {
				if strings.Contains(lower, keyword) {
					return el
				}
			}
		}
	}
	return nil
}

// runFilters applies the predefined filter matrix, extracting after each
// combination. A combination that cannot be applied is skipped.
func runFilters(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	var records []models.JobRecord
	for _, combination := range filterMatrix {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		applied := false
		for name, value := range combination {
			if applyFilter(page, name, value) {
				applied = true
			}
		}
		if !applied {
			continue
		}
		if err := page.WaitStable(); err != nil {
			continue
		}
		records = append(records, extractVisibleCards(page)...)
	}
	return records, nil
}

func applyFilter(page PageSession, name, value string) bool {
	selectors := []string{
		`select[name*="` + name + `"]`,
		`input[name*="` + name + `"]`,
		`[data-filter="` + name + `"]`,
		".filter-" + name,
	}
	for _, selector := range selectors {
		el, err := page.Element(selector)
		if err != nil || el == nil {
			continue
		}
		if strings.HasPrefix(selector, "select") {
			if err := el.SelectOption(value); err == nil {
				return true
			}
			continue
		}
		if err := el.Input(value); err == nil {
			return true
		}
	}
	return false
}

// runModal opens modal/dialog triggers one at a time, extracts from the
// overlay, and closes it before moving on.
func runModal(ctx context.Context, r *Runner, page PageSession) ([]models.JobRecord, error) {
	triggers, err := page.Elements(modalTriggerSelector)
	if err != nil {
		return nil, err
	}

	var records []models.JobRecord
	opened := 0
	for _, trigger := range triggers {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		if opened >= r.settings.MaxModals {
			break
		}
		if visible, err := trigger.Visible(); err != nil || !visible {
			continue
		}
		if err := trigger.Click(); err != nil {
			continue
		}
		opened++
		if err := page.WaitStable(); err != nil {
			continue
		}

		if modal, err := page.Element(modalContentSelector); err == nil && modal != nil {
			if rec, ok := extractCard(modal); ok {
				records = append(records, rec)
			}
		}

		if closeBtn, err := page.Element(modalCloseSelector); err == nil && closeBtn != nil {
			_ = closeBtn.Click()
		}
	}
	return records, nil
}
