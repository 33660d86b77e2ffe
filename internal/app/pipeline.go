package app

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"faq_scrap/internal/crawler"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/metrics"
	"faq_scrap/internal/parse"
	"faq_scrap/internal/semantic"
)

// pageOutcome is what one worker learned about one page.
type pageOutcome struct {
	result    faq.PageResult
	gated     bool
	extracted int
	rejected  int
	errs      []*faq.Error
}

// processAll runs processPage on a bounded pool. Outcomes are slotted by
// position, so result order equals URL order whatever the completion order.
func (r *run) processAll(ctx context.Context, pages []crawler.Page) ([]faq.PageResult, error) {
	outcomes := make([]pageOutcome, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Fetch.MaxInFlight)
	for i, page := range pages {
		g.Go(func() error {
			outcomes[i] = r.processPage(gctx, page)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("process pages: %w", err)
	}

	results := make([]faq.PageResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.result
		if o.result.Err != nil && o.result.Err.Kind == faq.KindFetch {
			r.rep.Failed++
		} else {
			r.rep.Fetched++
		}
		if o.gated {
			r.rep.Gated++
		}
		r.rep.Extracted += o.extracted
		r.rep.Rejected += o.rejected
		if o.result.Err != nil {
			r.rep.AddError(o.result.Err)
		}
		for _, e := range o.errs {
			r.rep.AddError(e)
		}
	}
	r.metrics.AddPages(metrics.PageFetched, r.rep.Fetched)
	r.metrics.AddPages(metrics.PageFailed, r.rep.Failed)
	r.metrics.AddPages(metrics.PageGated, r.rep.Gated)
	r.metrics.AddItems(metrics.ItemExtracted, r.rep.Extracted)
	r.metrics.AddItems(metrics.ItemRejected, r.rep.Rejected)
	return results, nil
}

func (r *run) processPage(ctx context.Context, page crawler.Page) pageOutcome {
	out := pageOutcome{result: faq.PageResult{URL: page.URL}}
	log := r.log.With(logger.String("url", page.URL))
	if page.Err != nil {
		out.result.Err = page.Err
		return out
	}

	doc, err := parse.NewDocument(page.HTML)
	if err != nil {
		log.Warn("Page could not be parsed", logger.Error(err))
		out.result.Err = faq.NewParseError(page.URL, err)
		return out
	}

	if r.cfg.Semantic.PageGate {
		ok, err := r.clf.Classify(ctx, parse.PageText(doc), semantic.ItemIndicators, r.cfg.Semantic.ContentThreshold)
		r.metrics.RecordClassification(metrics.StagePage, ok, err)
		if err != nil {
			log.Warn("Page gate failed, skipping page", logger.Error(err))
			out.result.Err = faq.NewClassificationError(page.URL, err)
			return out
		}
		if !ok {
			log.Debug("Page gated out")
			out.gated = true
			return out
		}
	}

	items := r.extractor.Extract(doc, page.URL, r.patterns)
	out.extracted = len(items)
	if r.cfg.Semantic.ValidateItems {
		items = r.validate(ctx, log, page.URL, items, &out)
	}
	out.result.Items = items
	log.Debug("Processed page", logger.Int("extracted", out.extracted), logger.Int("kept", len(items)))
	return out
}

// validate keeps items whose combined text is long enough and classifies
// as FAQ content. Classification errors reject the item.
func (r *run) validate(ctx context.Context, log logger.Logger, pageURL string, items []faq.Item, out *pageOutcome) []faq.Item {
	kept := items[:0:0]
	for _, it := range items {
		text := it.Question + " " + it.Answer
		if utf8.RuneCountInString(text) <= r.cfg.Semantic.MinItemChars {
			out.rejected++
			continue
		}
		ok, err := r.clf.Classify(ctx, text, semantic.ItemIndicators, r.cfg.Semantic.ContentThreshold)
		r.metrics.RecordClassification(metrics.StageItem, ok, err)
		if err != nil {
			log.Warn("Item classification failed, rejecting item", logger.String("question", it.Question), logger.Error(err))
			out.errs = append(out.errs, faq.NewClassificationError(pageURL, err))
			out.rejected++
			continue
		}
		if !ok {
			out.rejected++
			continue
		}
		kept = append(kept, it)
	}
	return kept
}
