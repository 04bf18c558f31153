package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ppiankov/fnolroute/internal/cache"
	"github.com/ppiankov/fnolroute/internal/extract"
	"github.com/ppiankov/fnolroute/internal/llm"
	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/route"
	"github.com/ppiankov/fnolroute/internal/source"
	"github.com/ppiankov/fnolroute/internal/validate"
)

// TextSource turns a document path into raw text
type TextSource interface {
	Read(ctx context.Context, path string) source.Result
}

// Pipeline orchestrates extraction, validation and routing for one document at a time.
// It holds no per-document state and is safe for concurrent use.
type Pipeline struct {
	source     TextSource
	extractor  *extract.FieldExtractor
	validator  *validate.Validator
	router     *route.Router
	cache      cache.Cache     // Optional report cache (nil if disabled)
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	renderer   *Renderer
	logger     *slog.Logger
	config     *model.Config
	now        func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSource replaces the document reader
func WithSource(s TextSource) Option {
	return func(p *Pipeline) { p.source = s }
}

// WithClock fixes "today" for the future-date check, the year of yearless
// dates and the cache key
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCache replaces the report cache; nil disables caching
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithSummarizer replaces the LLM summarizer; nil disables it
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		router:   route.NewRouter(cfg.Routing.FastTrackThreshold),
		renderer: NewRenderer(nil),
		logger:   slog.Default(),
		config:   cfg,
		now:      time.Now,
	}
	if cfg.Cache.Enabled {
		p.cache = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}
	for _, opt := range opts {
		opt(p)
	}

	p.extractor = extract.NewFieldExtractor(
		extract.WithMaxInputBytes(cfg.Extract.MaxInputBytes),
		extract.WithSnippetLines(cfg.Extract.SnippetLines),
		extract.WithClock(p.now),
	)
	p.validator = validate.NewValidator(validate.WithClock(p.now))

	if p.source == nil {
		p.source = source.NewAdapter(cfg.Source, nil, p.logger)
	}

	// Create LLM summarizer if configured and not injected
	if p.summarizer == nil && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			p.logger.Warn("LLM provider disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			p.summarizer = s
		}
	}

	return p
}

// Threshold returns the fast-track threshold the router applies
func (p *Pipeline) Threshold() int64 {
	return p.router.Threshold()
}

// ProcessText runs extraction, validation and routing on raw text. It performs
// no I/O and always returns a report.
func (p *Pipeline) ProcessText(text string) *model.Report {
	fields := p.extractor.Extract(text)
	validation := p.validator.Validate(fields)
	decision := p.router.Route(fields, validation)

	p.logger.Debug("claim routed",
		"route", decision.Route,
		"rule", decision.Rule,
		"missing", len(validation.MissingFields),
		"inconsistencies", len(validation.Inconsistencies),
	)
	return model.NewReport(fields, validation, decision)
}

// Process reads the document at path and returns its report. A panic anywhere
// below is contained and returned as ErrPipelineFault.
func (p *Pipeline) Process(ctx context.Context, path string) (report *model.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", "path", path, "panic", r, "stack", string(debug.Stack()))
			report = nil
			err = fmt.Errorf("%w: %v", model.ErrPipelineFault, r)
		}
	}()

	start := time.Now()

	// 1. Read document text (never fails; "" on total failure)
	res := p.source.Read(ctx, path)
	meta := &model.SourceMeta{Path: path, TextBytes: len(res.Text)}

	// 2. Serve from cache when the same text was routed recently
	key := cache.ReportKey(res.Text, p.router.Threshold(), p.now())
	if cached := p.cached(key); cached != nil {
		meta.Cached = true
		cached.Source = meta
		p.summarize(ctx, cached)
		p.logger.Info("document processed", "path", path, "route", cached.RecommendedRoute, "cached", true)
		return cached, nil
	}

	// 3. Extract, validate, route
	report = p.ProcessText(res.Text)
	p.store(key, report)
	report.Source = meta

	// 4. Optional narrative (AFTER routing, never affects the route)
	p.summarize(ctx, report)

	p.logger.Info("document processed",
		"path", path,
		"method", res.Method,
		"route", report.RecommendedRoute,
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (p *Pipeline) cached(key string) *model.Report {
	if p.cache == nil {
		return nil
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return nil
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		p.logger.Warn("dropping unreadable cache entry", "error", err)
		_ = p.cache.Delete(key)
		return nil
	}
	return &report
}

// store caches the core decision only; source metadata and summaries are per request
func (p *Pipeline) store(key string, report *model.Report) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		p.logger.Warn("report not cached", "error", err)
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		p.logger.Warn("report not cached", "error", err)
	}
}

func (p *Pipeline) summarize(ctx context.Context, report *model.Report) {
	if !p.summarizer.IsEnabled() {
		return
	}
	summary, err := p.summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		// Don't fail the document, just warn
		p.logger.Warn("LLM summary generation failed", "error", err)
		return
	}
	report.LLM = summary
}

// RenderReport writes the report JSON to jsonPath ("" or "-" for stdout) and,
// when a summary is present and jsonPath is a file, a sibling .llm.md note.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, verbose bool) error {
	if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	if verbose && !isStdout(jsonPath) {
		p.logger.Info("wrote report", "path", jsonPath)
	}

	if report.LLM != nil && report.LLM.Enabled && !isStdout(jsonPath) {
		mdPath := LLMNotePath(jsonPath)
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), mdPath); err != nil {
			p.logger.Warn("failed to write LLM summary", "path", mdPath, "error", err)
		} else if verbose {
			p.logger.Info("wrote LLM summary", "path", mdPath)
		}
	}
	return nil
}
