package classifier

import (
	"fmt"
	"strings"

	"careerscout/internal/config"
	"careerscout/pkg/models"
)

// Kind selects which rule set scores a URL.
type Kind string

const (
	KindCareer Kind = "career"
	KindJob    Kind = "job"
)

// PageContent is the fetched content used to corroborate a URL-level
// decision. All fields are optional.
type PageContent struct {
	Title           string
	MetaDescription string
	BodyText        string
}

// Anchor carries the link element context available when a URL was
// discovered inside a page, used for additional job-link signals.
type Anchor struct {
	Text      string
	Class     string
	ID        string
	DataAttrs map[string]string
}

// Settings holds every threshold and cap the scoring engine uses.
type Settings struct {
	CareerThreshold int
	JobThreshold    int
	MaxCareerDepth  int
	MaxJobDepth     int
	// Strict raises both thresholds by StrictBonus.
	Strict      bool
	StrictBonus int
}

// DefaultSettings returns the production thresholds.
func DefaultSettings() Settings {
	return Settings{
		CareerThreshold: 6,
		JobThreshold:    5,
		MaxCareerDepth:  4,
		MaxJobDepth:     5,
		StrictBonus:     2,
	}
}

// SettingsFromConfig maps the service configuration onto scoring settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.Classifier.CareerThreshold > 0 {
		s.CareerThreshold = cfg.Classifier.CareerThreshold
	}
	if cfg.Classifier.JobThreshold > 0 {
		s.JobThreshold = cfg.Classifier.JobThreshold
	}
	if cfg.Classifier.StrictBonus > 0 {
		s.StrictBonus = cfg.Classifier.StrictBonus
	}
	return s
}

// Classifier scores URLs against career-page and job-link rule sets. It is
// stateless beyond its settings; identical inputs always produce identical
// breakdowns.
type Classifier struct {
	settings Settings
}

// New creates a classifier with the given settings.
func New(settings Settings) *Classifier {
	if settings.CareerThreshold == 0 && settings.JobThreshold == 0 {
		settings = DefaultSettings()
	}
	return &Classifier{settings: settings}
}

// Threshold returns the acceptance threshold in effect for a kind.
func (c *Classifier) Threshold(kind Kind) int {
	threshold := c.settings.JobThreshold
	if kind == KindCareer {
		threshold = c.settings.CareerThreshold
	}
	if c.settings.Strict {
		threshold += c.settings.StrictBonus
	}
	return threshold
}

// Classify scores a URL as a career page or job link. It never returns an
// error; a URL that cannot be parsed is simply rejected with a reason.
func (c *Classifier) Classify(rawURL string, kind Kind, content *PageContent) models.ScoreBreakdown {
	return c.classify(rawURL, kind, content, nil)
}

// ClassifyAnchor scores a discovered link as a job link, folding in the
// anchor text and element attributes it was found with.
func (c *Classifier) ClassifyAnchor(rawURL string, anchor *Anchor, content *PageContent) models.ScoreBreakdown {
	return c.classify(rawURL, KindJob, content, anchor)
}

func (c *Classifier) classify(rawURL string, kind Kind, content *PageContent, anchor *Anchor) models.ScoreBreakdown {
	threshold := c.Threshold(kind)
	breakdown := models.ScoreBreakdown{
		URL:       rawURL,
		Kind:      string(kind),
		Threshold: threshold,
	}

	candidate, err := Normalize(rawURL)
	if err != nil {
		breakdown.RejectionReason = fmt.Sprintf("unparseable url: %v", err)
		return breakdown
	}
	breakdown.URL = candidate.Normalized

	if reason := checkEarlyRejection(candidate, kind); reason != "" {
		breakdown.RejectionReason = reason
		return breakdown
	}

	var factors []models.ScoreFactor
	if kind == KindCareer {
		factors = scoreCareer(candidate)
	} else {
		factors = scoreJob(candidate, anchor)
	}

	total := 0
	for _, f := range factors {
		total += f.Delta
	}
	breakdown.Factors = factors
	breakdown.Total = total

	if total < threshold {
		breakdown.RejectionReason = fmt.Sprintf("score %d below threshold %d", total, threshold)
		return breakdown
	}

	maxDepth := c.settings.MaxJobDepth
	if kind == KindCareer {
		maxDepth = c.settings.MaxCareerDepth
	}
	if candidate.Depth() > maxDepth {
		breakdown.RejectionReason = fmt.Sprintf("path depth %d exceeds maximum %d", candidate.Depth(), maxDepth)
		return breakdown
	}

	if kind == KindCareer && !hasAnyPattern(candidate.Path, careerExactPatterns) {
		breakdown.RejectionReason = "no recognized career path pattern"
		return breakdown
	}

	if reason := checkSuspiciousPatterns(candidate.Path); reason != "" {
		breakdown.RejectionReason = reason
		return breakdown
	}

	if content != nil {
		if reason := validateContent(kind, content); reason != "" {
			breakdown.RejectionReason = reason
			return breakdown
		}
	}

	breakdown.Accepted = true
	return breakdown
}

// checkEarlyRejection runs the cheap hard-negative checks. A non-empty
// return is the rejection reason; no scoring happens after a match.
func checkEarlyRejection(candidate *Candidate, kind Kind) string {
	path := candidate.Path
	query := encodeSorted(candidate.Query)

	indicators := nonCareerIndicators
	if kind == KindJob {
		indicators = nonJobIndicators
	}
	for _, indicator := range indicators {
		if strings.Contains(path, indicator) || strings.Contains(query, indicator) {
			return fmt.Sprintf("contains non-%s indicator %q", kind, indicator)
		}
	}

	for _, pattern := range rejectedDatePatterns {
		if pattern.MatchString(path) {
			return "contains date-shaped path segment"
		}
	}

	for _, pattern := range rejectedIDPatterns {
		if pattern.MatchString(path) {
			return "contains long id-shaped path segment"
		}
	}

	for _, ext := range rejectedFileExtensions {
		if strings.Contains(path, ext) {
			return fmt.Sprintf("contains file extension %s", ext)
		}
	}

	if candidate.Depth() > maxPathDepth {
		return fmt.Sprintf("path depth %d exceeds hard ceiling %d", candidate.Depth(), maxPathDepth)
	}

	return ""
}

func scoreCareer(candidate *Candidate) []models.ScoreFactor {
	var factors []models.ScoreFactor
	path := candidate.Path
	query := encodeSorted(candidate.Query)

	for _, pattern := range careerHighPriorityPatterns {
		if strings.Contains(path, pattern) {
			factors = append(factors, models.ScoreFactor{
				Name: "high_priority_path", Delta: weightHighPriorityPath,
				Rationale: pattern,
			})
			break
		}
	}

	for _, pattern := range careerMediumPriorityPatterns {
		if strings.Contains(path, pattern) {
			factors = append(factors, models.ScoreFactor{
				Name: "medium_priority_path", Delta: weightMediumPriorityPath,
				Rationale: pattern,
			})
			break
		}
	}

	hits := 0
	for _, keyword := range careerKeywords {
		if strings.Contains(path, keyword) || strings.Contains(query, keyword) {
			hits++
			if hits <= maxKeywordHits {
				factors = append(factors, models.ScoreFactor{
					Name: "career_keyword", Delta: weightKeywordHit,
					Rationale: keyword,
				})
			}
		}
	}

	for _, pattern := range careerExactPatterns {
		if strings.Contains(path, pattern) {
			factors = append(factors, models.ScoreFactor{
				Name: "exact_pattern", Delta: weightExactPattern,
				Rationale: pattern,
			})
			break
		}
	}

	for _, param := range careerQueryParams {
		if candidate.Query.Has(param) {
			factors = append(factors, models.ScoreFactor{
				Name: "query_param", Delta: weightCareerQueryParam,
				Rationale: param,
			})
		}
	}

	for _, clean := range cleanCareerPaths {
		if path == clean {
			factors = append(factors, models.ScoreFactor{
				Name: "clean_career_path", Delta: weightCleanCareerPath,
			})
			break
		}
	}

	for _, keyword := range nonCareerKeywords {
		if strings.Contains(path, keyword) || strings.Contains(query, keyword) {
			factors = append(factors, models.ScoreFactor{
				Name: "penalty_non_career_keyword", Delta: penaltyNonTargetKeyword,
				Rationale: keyword,
			})
		}
	}

	if depth := candidate.Depth(); depth > careerSoftDepth {
		factors = append(factors, models.ScoreFactor{
			Name:  "penalty_deep_path",
			Delta: -(depth - careerSoftDepth) * careerDepthPenaltyPerLevel,
		})
	}

	if numericIDPattern.MatchString(path) || mediumHexPattern.MatchString(path) {
		factors = append(factors, models.ScoreFactor{
			Name: "penalty_contains_ids", Delta: penaltyContainsIDs,
		})
	}

	if specialCharsPattern.MatchString(path) {
		factors = append(factors, models.ScoreFactor{
			Name: "penalty_special_chars", Delta: penaltySpecialChars,
		})
	}

	return factors
}

func scoreJob(candidate *Candidate, anchor *Anchor) []models.ScoreFactor {
	var factors []models.ScoreFactor
	path := candidate.Path
	// Trailing slash is stripped during normalization, so pattern tables
	// built on "/segment/" also need to match a path-final segment.
	probe := path + "/"

	for _, pattern := range jobHighPriorityPatterns {
		if strings.Contains(probe, pattern) {
			factors = append(factors, models.ScoreFactor{
				Name: "high_priority_path", Delta: weightHighPriorityPath,
				Rationale: pattern,
			})
			break
		}
	}

	for _, pattern := range jobMediumPriorityPatterns {
		if strings.Contains(probe, pattern) {
			factors = append(factors, models.ScoreFactor{
				Name: "medium_priority_path", Delta: weightMediumPriorityPath,
				Rationale: pattern,
			})
			break
		}
	}

	hits := 0
	for _, keyword := range jobRoleKeywords {
		if strings.Contains(path, keyword) {
			hits++
			if hits <= maxKeywordHits {
				factors = append(factors, models.ScoreFactor{
					Name: "job_keyword", Delta: weightKeywordHit,
					Rationale: keyword,
				})
			}
		}
	}

	if anchor != nil {
		factors = append(factors, scoreAnchor(anchor)...)
	}

	for _, param := range jobQueryParams {
		if candidate.Query.Has(param) {
			factors = append(factors, models.ScoreFactor{
				Name: "query_param", Delta: weightJobQueryParam,
				Rationale: param,
			})
		}
	}

	for _, prefix := range cleanJobPathPrefixes {
		if strings.Contains(probe, prefix) {
			factors = append(factors, models.ScoreFactor{
				Name: "clean_job_path", Delta: weightCleanJobPath,
			})
			break
		}
	}

	text := ""
	if anchor != nil {
		text = strings.ToLower(anchor.Text)
	}
	for _, keyword := range nonJobKeywords {
		if strings.Contains(path, keyword) || strings.Contains(text, keyword) {
			factors = append(factors, models.ScoreFactor{
				Name: "penalty_non_job_keyword", Delta: penaltyNonTargetKeyword,
				Rationale: keyword,
			})
		}
	}

	if depth := candidate.Depth(); depth > jobSoftDepth {
		factors = append(factors, models.ScoreFactor{
			Name:  "penalty_deep_path",
			Delta: -(depth - jobSoftDepth) * jobDepthPenaltyPerLevel,
		})
	}

	for _, generic := range genericJobPaths {
		if strings.Contains(probe, generic) {
			factors = append(factors, models.ScoreFactor{
				Name: "penalty_generic_path", Delta: penaltyGenericPath,
			})
			break
		}
	}

	if numericIDPattern.MatchString(path) || mediumHexPattern.MatchString(path) {
		factors = append(factors, models.ScoreFactor{
			Name: "penalty_contains_ids", Delta: penaltyJobContainsIDs,
		})
	}

	return factors
}

func scoreAnchor(anchor *Anchor) []models.ScoreFactor {
	var factors []models.ScoreFactor

	text := strings.ToLower(anchor.Text)
	for _, indicator := range jobTextIndicators {
		if strings.Contains(text, indicator) {
			factors = append(factors, models.ScoreFactor{
				Name: "link_text", Delta: weightLinkText,
				Rationale: indicator,
			})
			break
		}
	}

	class := strings.ToLower(anchor.Class)
	for _, indicator := range jobAttrIndicators {
		if strings.Contains(class, indicator) {
			factors = append(factors, models.ScoreFactor{
				Name: "class_indicator", Delta: weightClassIndicator,
				Rationale: indicator,
			})
			break
		}
	}

	id := strings.ToLower(anchor.ID)
	for _, indicator := range jobAttrIndicators {
		if strings.Contains(id, indicator) {
			factors = append(factors, models.ScoreFactor{
				Name: "id_indicator", Delta: weightIDIndicator,
				Rationale: indicator,
			})
			break
		}
	}

	if len(anchor.DataAttrs) > 0 {
		// Data attributes are checked in a stable order so repeated calls
		// produce the same factor list.
		matched := ""
		for _, indicator := range jobAttrIndicators {
			for _, value := range anchor.DataAttrs {
				if strings.Contains(strings.ToLower(value), indicator) {
					matched = indicator
					break
				}
			}
			if matched != "" {
				break
			}
		}
		if matched != "" {
			factors = append(factors, models.ScoreFactor{
				Name: "data_attr_indicator", Delta: weightDataAttrIndicator,
				Rationale: matched,
			})
		}
	}

	return factors
}

// checkSuspiciousPatterns applies the residual checks that run after a URL
// clears the score threshold.
func checkSuspiciousPatterns(path string) string {
	if yearSegmentPattern.MatchString(path) {
		return "contains year-shaped segment"
	}
	if longHexPattern.MatchString(path) {
		return "contains long hex id"
	}
	if longNumericPattern.MatchString(path) {
		return "contains long numeric id"
	}
	return ""
}

// validateContent corroborates a URL-level decision against fetched page
// content. A non-empty return is the rejection reason.
func validateContent(kind Kind, content *PageContent) string {
	titleIndicators := careerTitleIndicators
	bodyIndicators := careerContentIndicators
	if kind == KindJob {
		titleIndicators = jobTitleIndicators
		bodyIndicators = jobContentIndicators
	}

	title := strings.ToLower(content.Title)
	for _, indicator := range titleIndicators {
		if strings.Contains(title, indicator) {
			return ""
		}
	}

	meta := strings.ToLower(content.MetaDescription)
	for _, indicator := range titleIndicators {
		if meta != "" && strings.Contains(meta, indicator) {
			return ""
		}
	}

	body := strings.ToLower(content.BodyText)
	hits := 0
	for _, indicator := range bodyIndicators {
		if strings.Contains(body, indicator) {
			hits++
		}
	}
	if hits >= contentIndicatorMinimum {
		return ""
	}
	return fmt.Sprintf("content corroboration failed: %d of %d required indicators", hits, contentIndicatorMinimum)
}

func hasAnyPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
