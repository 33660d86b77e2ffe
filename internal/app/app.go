// Package app wires the discovery stages into a single pipeline run:
// sitemap resolution, relevance filtering, page loading, extraction,
// semantic validation and aggregation.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"faq_scrap/internal/config"
	"faq_scrap/internal/crawler"
	"faq_scrap/internal/extract"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/metrics"
	"faq_scrap/internal/relevance"
	"faq_scrap/internal/report"
	"faq_scrap/internal/semantic"
)

// Pipeline runs the whole discovery flow for one configuration. It holds no
// state between runs, so Run may be called repeatedly and concurrently.
type Pipeline struct {
	cfg        config.Config
	log        logger.Logger
	metrics    *metrics.Metrics
	encoder    semantic.Encoder
	loader     crawler.Loader
	extractor  *extract.Extractor
	patterns   []faq.Pattern
	strategyOf func(*semantic.Classifier) (relevance.Strategy, error)
	configErrs []*faq.Error
}

var errSitemapRequired = errors.New("sitemap url is required")

// Result is the outcome of one run. Items is deduplicated and ordered by
// sitemap position; Pages lists every fetched page in the same order.
type Result struct {
	Items  []faq.Item
	Pages  []faq.PageResult
	Report report.Report
}

// New builds a pipeline for cfg. Configuration problems never fail
// construction: each is logged, replaced by its empty default and reported
// in every run. A missing sitemap makes every run return an empty result.
func New(cfg config.Config, deps Deps) (*Pipeline, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var configErrs []*faq.Error
	degrade := func(err *faq.Error, msg string) {
		log.Warn(msg, logger.String("setting", err.URL), logger.Error(err.Cause))
		configErrs = append(configErrs, err)
	}

	if strings.TrimSpace(cfg.Sitemap) == "" {
		degrade(faq.NewConfigError("sitemap", errSitemapRequired), "No sitemap configured, runs will be empty")
	}

	enc := deps.Encoder
	if enc == nil && cfg.UsesEncoder() {
		var err error
		if enc, err = semantic.NewEncoder(cfg.Semantic.Encoder); err != nil {
			degrade(faq.NewConfigError("semantic.encoder", err), "Unusable encoder, falling back to local hashing")
			enc = semantic.NewHashEncoder(cfg.Semantic.Encoder.Dimensions)
		}
	}

	if _, err := relevance.NewPatternStrategy(cfg.FAQURLPattern); err != nil {
		degrade(faq.NewConfigError("faq_url_pattern", err), "Ignoring invalid FAQ URL pattern")
		cfg.FAQURLPattern = ""
	}

	// The strategy is built per run so each run gets a fresh classifier cache.
	strategyOf := func(clf *semantic.Classifier) (relevance.Strategy, error) {
		return relevance.New(cfg, clf, log)
	}

	loader := deps.Loader
	if loader == nil {
		loader = newLoader(cfg, log)
	}

	patterns := cfg.Patterns()
	if len(patterns) < len(cfg.ScrapePatterns) {
		log.Warn("Ignoring incomplete scrape patterns",
			logger.Int("configured", len(cfg.ScrapePatterns)),
			logger.Int("usable", len(patterns)),
		)
	}

	return &Pipeline{
		cfg:        cfg,
		log:        log,
		metrics:    deps.Metrics,
		encoder:    enc,
		loader:     loader,
		extractor:  extract.New(extract.Options{AnswerFormat: cfg.AnswerFormat, Logger: log}),
		patterns:   patterns,
		strategyOf: strategyOf,
		configErrs: configErrs,
	}, nil
}

// run holds per-invocation state.
type run struct {
	*Pipeline
	log logger.Logger
	clf *semantic.Classifier

	mu  sync.Mutex
	rep report.Report
}

func (r *run) addError(err *faq.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rep.AddError(err)
}

// Run executes one full discovery pass. Per-URL failures are recorded in the
// report and never fail the run; only a canceled context does.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	r := &run{
		Pipeline: p,
		log:      p.log.With(logger.String("run_id", runID)),
		clf:      semantic.New(p.encoder, semantic.Options{MaxTokens: p.cfg.Semantic.MaxTokens}),
		rep: report.Report{
			RunID:     runID,
			Sitemap:   p.cfg.Sitemap,
			Prefilter: p.cfg.PrefilterStrategy(),
			StartedAt: start,
		},
	}
	r.log.Info("Starting run", logger.String("sitemap", p.cfg.Sitemap), logger.String("prefilter", r.rep.Prefilter))
	for _, e := range p.configErrs {
		r.rep.AddError(e)
	}
	if strings.TrimSpace(p.cfg.Sitemap) == "" {
		return r.finish(Result{Items: []faq.Item{}}, start, nil)
	}

	urls := newResolver(p.cfg, r.log, r.addError).Resolve(ctx, p.cfg.Sitemap)
	r.rep.Discovered = len(urls)
	p.metrics.AddSitemapURLs(len(urls))

	relevant, err := r.filter(ctx, urls)
	if err != nil {
		return r.finish(Result{}, start, err)
	}
	r.rep.Relevant = len(relevant)
	p.metrics.AddPages(metrics.PageFiltered, len(urls)-len(relevant))

	pages := p.loader.Load(ctx, relevant)
	results, err := r.processAll(ctx, pages)
	if err != nil {
		return r.finish(Result{}, start, err)
	}

	perPage := make([][]faq.Item, len(results))
	for i, res := range results {
		perPage[i] = res.Items
	}
	items := faq.Aggregate(perPage)

	candidates := r.rep.Extracted - r.rep.Rejected
	r.rep.Kept = len(items)
	r.rep.Duplicates = candidates - len(items)
	p.metrics.AddItems(metrics.ItemDuplicate, r.rep.Duplicates)
	p.metrics.AddItems(metrics.ItemKept, r.rep.Kept)

	return r.finish(Result{Items: items, Pages: results}, start, nil)
}

func (r *run) finish(res Result, start time.Time, err error) (Result, error) {
	r.rep.Duration = time.Since(start)
	r.rep.SortErrors()
	res.Report = r.rep

	status := "ok"
	if err != nil {
		status = "aborted"
	}
	r.metrics.RecordRun(status, r.rep.Duration)

	fields := []logger.Field{
		logger.Int("discovered", r.rep.Discovered),
		logger.Int("relevant", r.rep.Relevant),
		logger.Int("fetched", r.rep.Fetched),
		logger.Int("failed", r.rep.Failed),
		logger.Int("kept", r.rep.Kept),
		logger.Int("errors", len(r.rep.Errors)),
		logger.Duration("duration", r.rep.Duration),
	}
	if err != nil {
		r.log.Error("Run aborted", append(fields, logger.Error(err))...)
		return res, err
	}
	r.log.Info("Run complete", fields...)
	return res, nil
}

// filter applies the relevance strategy on a bounded pool and keeps the
// surviving URLs in sitemap order.
func (r *run) filter(ctx context.Context, urls []string) ([]string, error) {
	strategy, err := r.strategyOf(r.clf)
	if err != nil {
		return nil, faq.NewConfigError("prefilter", err)
	}
	_, semanticStage := strategy.(*relevance.SemanticStrategy)

	keep := make([]bool, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Fetch.MaxInFlight)
	for i, u := range urls {
		g.Go(func() error {
			ok, err := strategy.Relevant(gctx, u)
			if semanticStage {
				r.metrics.RecordClassification(metrics.StageURL, ok, err)
			}
			if err != nil {
				r.log.Warn("Relevance check failed, dropping URL", logger.String("url", u), logger.Error(err))
				r.addError(faq.NewClassificationError(u, err))
				return nil
			}
			keep[i] = ok
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("relevance filter: %w", err)
	}

	var out []string
	for i, u := range urls {
		if keep[i] {
			out = append(out, u)
		}
	}
	r.log.Debug("Filtered URLs", logger.Int("in", len(urls)), logger.Int("out", len(out)))
	return out, nil
}
