package extractor

import (
	"context"
	"fmt"
	"time"

	"careerscout/internal/config"
	"careerscout/internal/logging"
	"careerscout/pkg/models"
	"careerscout/pkg/utils"
)

// Provenance values recorded on extracted job records. SourceVisible marks
// records taken from the initial render before any technique ran.
const (
	SourceVisible    = "visible"
	SourceSettle     = "settle"
	SourceReveal     = "reveal"
	SourceScroll     = "scroll"
	SourceTabs       = "tabs"
	SourceScriptData = "script-data"
	SourceNetwork    = "network"
	SourceHiddenDOM  = "hidden-dom"
	SourcePagination = "pagination"
	SourceFilters    = "filters"
	SourceModal      = "modal"
)

// Settings bounds every technique the runner executes.
type Settings struct {
	TechniqueTimeout time.Duration
	MaxScrollRounds  int
	MaxPages         int
	MaxModals        int
	// MaxRecords caps the total records per page; 0 means unbounded.
	MaxRecords int
}

// SettingsFromConfig maps service configuration onto extractor settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		TechniqueTimeout: cfg.Extractor.TechniqueTimeout,
		MaxScrollRounds:  cfg.Extractor.MaxScrollRounds,
		MaxPages:         cfg.Extractor.MaxPages,
		MaxModals:        cfg.Extractor.MaxModals,
		MaxRecords:       cfg.Crawler.MaxJobsPerPage,
	}
}

// Runner executes the fixed-order battery of hidden-content techniques
// against a rendered page. Techniques run strictly in sequence because each
// builds on the DOM state the previous one left behind.
type Runner struct {
	settings Settings
	log      logging.Logger
}

// NewRunner creates a technique runner.
func NewRunner(settings Settings, log logging.Logger) *Runner {
	if log == nil {
		log = logging.GetGlobalLogger()
	}
	if settings.TechniqueTimeout <= 0 {
		settings.TechniqueTimeout = 8 * time.Second
	}
	if settings.MaxScrollRounds <= 0 {
		settings.MaxScrollRounds = 3
	}
	if settings.MaxPages <= 0 {
		settings.MaxPages = 10
	}
	if settings.MaxModals <= 0 {
		settings.MaxModals = 5
	}
	return &Runner{settings: settings, log: log}
}

// Extract runs every technique against the page within the overall time
// budget. Seed records, typically the jobs already visible in the initial
// render, pre-populate deduplication so techniques surfacing the same
// records only add provenance. The bool result reports whether the output
// is partial: the budget or record cap cut the run short.
func (r *Runner) Extract(ctx context.Context, page PageSession, budget time.Duration, seed []models.JobRecord) ([]models.JobRecord, bool) {
	deadline := time.Now().Add(budget)
	sink := newFragmentSink()
	for _, rec := range seed {
		sink.add(rec, rec.Provenance())
	}

	partial := false
	for _, t := range techniques {
		if ctx.Err() != nil {
			partial = true
			break
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			r.log.Warn("extraction time budget exhausted", map[string]interface{}{
				"url":       page.URL(),
				"technique": t.name,
			})
			partial = true
			break
		}
		if r.settings.MaxRecords > 0 && sink.len() >= r.settings.MaxRecords {
			partial = true
			break
		}

		timeout := r.settings.TechniqueTimeout
		if remaining < timeout {
			timeout = remaining
		}
		techniqueCtx, cancel := context.WithTimeout(ctx, timeout)
		records, err := r.runTechnique(techniqueCtx, t, page)
		cancel()

		// Records found before a technique failed are still kept.
		for _, rec := range records {
			rec.SourceURL = orDefault(rec.SourceURL, page.URL())
			sink.add(rec, t.name)
		}

		if err != nil {
			// A failing technique is logged and skipped. It never aborts
			// the ones after it.
			r.log.Warn("extraction technique failed", map[string]interface{}{
				"url":       page.URL(),
				"technique": t.name,
				"error":     err.Error(),
			})
		}
	}

	records := sink.records()
	if r.settings.MaxRecords > 0 && len(records) > r.settings.MaxRecords {
		records = records[:r.settings.MaxRecords]
		partial = true
	}
	return records, partial
}

// runTechnique isolates one technique: a panic or failure inside it becomes
// a technique error attributed to that technique alone.
func (r *Runner) runTechnique(ctx context.Context, t technique, page PageSession) (records []models.JobRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = utils.NewTechniqueError(t.name, fmt.Sprintf("panic: %v", p))
		}
	}()
	records, err = t.run(ctx, r, page)
	if err != nil {
		err = utils.NewTechniqueError(t.name, err.Error())
	}
	return records, err
}

// fragmentSink deduplicates raw fragments across techniques. The first
// occurrence of a record wins; later findings of the same record append
// their technique to Sources as a confidence signal.
type fragmentSink struct {
	order []string
	byKey map[string]*models.JobRecord
}

func newFragmentSink() *fragmentSink {
	return &fragmentSink{byKey: make(map[string]*models.JobRecord)}
}

func (s *fragmentSink) add(rec models.JobRecord, source string) {
	if rec.Title == "" {
		return
	}
	key := rec.DedupKey()
	if existing, ok := s.byKey[key]; ok {
		for _, src := range existing.Sources {
			if src == source {
				return
			}
		}
		existing.Sources = append(existing.Sources, source)
		return
	}

	if len(rec.Sources) == 0 {
		rec.Sources = []string{source}
	}
	if rec.ExtractedAt.IsZero() {
		rec.ExtractedAt = time.Now().UTC()
	}
	rec.Complete = rec.IsComplete()
	s.byKey[key] = &rec
	s.order = append(s.order, key)
}

func (s *fragmentSink) len() int { return len(s.order) }

func (s *fragmentSink) records() []models.JobRecord {
	out := make([]models.JobRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byKey[key])
	}
	return out
}

// DedupeRecords merges job records by dedup key, preserving first-occurrence
// order and accumulating provenance from duplicates.
func DedupeRecords(records []models.JobRecord) []models.JobRecord {
	sink := newFragmentSink()
	for _, rec := range records {
		sink.add(rec, rec.Provenance())
	}
	return sink.records()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
