package extractor

import (
	"fmt"
	"sort"
	"strings"

	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

// fieldMappings translates the field names seen in script data and API
// payloads onto the JobRecord shape. First present source field wins.
var fieldMappings = []struct {
	target  string
	sources []string
}{
	{"title", []string{"title", "name", "position", "job_title", "jobTitle", "position_title"}},
	{"description", []string{"description", "desc", "summary", "details", "content"}},
	{"location", []string{"location", "city", "place", "address", "office"}},
	{"company", []string{"company", "employer", "organization", "firm"}},
	{"job_type", []string{"type", "employment_type", "employmentType", "job_type", "work_type"}},
	{"salary", []string{"salary", "compensation", "pay", "wage"}},
	{"url", []string{"url", "link", "href", "apply_url", "applyUrl", "job_url", "absolute_url"}},
}

// normalizeFields maps one raw job-shaped object onto a JobRecord. Missing
// optional fields stay empty, never fabricated. An object without a title
// yields nothing.
func normalizeFields(raw map[string]interface{}) (models.JobRecord, bool) {
	values := make(map[string]string, len(fieldMappings))
	for _, mapping := range fieldMappings {
		for _, source := range mapping.sources {
			if v, ok := lookupField(raw, source); ok && v != "" {
				values[mapping.target] = v
				break
			}
		}
	}

	title := utils.CleanText(values["title"])
	if title == "" {
		return models.JobRecord{}, false
	}

	return models.JobRecord{
		Title:       title,
		Description: utils.Truncate(utils.CleanText(values["description"]), maxDescriptionSize),
		Location:    utils.CleanText(values["location"]),
		Company:     utils.CleanText(values["company"]),
		JobType:     utils.CleanText(values["job_type"]),
		Salary:      utils.CleanText(values["salary"]),
		JobURL:      strings.TrimSpace(values["url"]),
	}, true
}

// lookupField reads a field case-insensitively and renders scalar values
// as strings. Nested objects and arrays are not flattened.
func lookupField(raw map[string]interface{}, field string) (string, bool) {
	value, ok := raw[field]
	if !ok {
		lowered := strings.ToLower(field)
		for key, v := range raw {
			if strings.ToLower(key) == lowered {
				value = v
				ok = true
				break
			}
		}
	}
	if !ok || value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), true
		}
		return fmt.Sprintf("%g", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	default:
		return "", false
	}
}

// Job-like keys used to decide whether a JSON object describes a posting.
var jobShapeKeys = []string{"title", "name", "position", "job_title", "jobTitle"}

const maxPayloadDepth = 4

// collectJobShaped walks a decoded JSON payload and gathers every object
// that looks like a job posting. API responses wrap their lists in varying
// envelopes, so nesting is followed to a bounded depth.
func collectJobShaped(payload interface{}, depth int) []map[string]interface{} {
	if depth > maxPayloadDepth {
		return nil
	}

	var out []map[string]interface{}
	switch v := payload.(type) {
	case []interface{}:
		for _, item := range v {
			out = append(out, collectJobShaped(item, depth+1)...)
		}
	case map[string]interface{}:
		if isJobShaped(v) {
			out = append(out, v)
			return out
		}
		// Keys are visited in sorted order so the output order is stable.
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch v[key].(type) {
			case []interface{}, map[string]interface{}:
				out = append(out, collectJobShaped(v[key], depth+1)...)
			}
		}
	}
	return out
}

func isJobShaped(obj map[string]interface{}) bool {
	for _, key := range jobShapeKeys {
		if v, ok := lookupField(obj, key); ok && v != "" {
			return true
		}
	}
	return false
}
