// Package extract pulls question/answer pairs out of a parsed page using
// configured CSS selector patterns.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"faq_scrap/internal/config"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/parse"
)

type Options struct {
	// AnswerFormat is config.AnswerText (default) or config.AnswerMarkdown.
	AnswerFormat string
	Logger       logger.Logger
}

type Extractor struct {
	opts Options
}

func New(opts Options) *Extractor {
	if opts.AnswerFormat == "" {
		opts.AnswerFormat = config.AnswerText
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Extractor{opts: opts}
}

// PatternMatch reports what one pattern found on a page.
type PatternMatch struct {
	Pattern    faq.Pattern
	Containers int
	Items      []faq.Item
}

// Extract applies every complete pattern in order and returns the
// concatenated items. Duplicates are left for the aggregator.
func (e *Extractor) Extract(doc *goquery.Document, sourceURL string, patterns []faq.Pattern) []faq.Item {
	var items []faq.Item
	for _, m := range e.Match(doc, sourceURL, patterns) {
		items = append(items, m.Items...)
	}
	return items
}

// Match is Extract with a per-pattern breakdown. Incomplete patterns are
// skipped and do not appear in the result.
func (e *Extractor) Match(doc *goquery.Document, sourceURL string, patterns []faq.Pattern) []PatternMatch {
	if doc == nil {
		return nil
	}
	image := pageImage(doc, sourceURL)
	var md *markdownConverter
	if e.opts.AnswerFormat == config.AnswerMarkdown {
		md = newMarkdownConverter(sourceURL)
	}

	var out []PatternMatch
	for _, p := range patterns {
		if !p.Complete() {
			e.opts.Logger.Debug("Skipping incomplete pattern", logger.String("pattern", p.Label()))
			continue
		}
		m := PatternMatch{Pattern: p}
		doc.Find(p.Selector).Each(func(_ int, container *goquery.Selection) {
			m.Containers++
			q := container.Find(p.Question).First()
			a := container.Find(p.Answer).First()
			if q.Length() == 0 || a.Length() == 0 {
				return
			}
			question := NormalizeQuestion(parse.SelectionText(q))
			if question == "" {
				return
			}
			m.Items = append(m.Items, faq.Item{
				Question:  question,
				Answer:    e.answer(a, md, sourceURL),
				Image:     image,
				SourceURL: sourceURL,
			})
		})
		e.opts.Logger.Debug("Applied pattern",
			logger.String("url", sourceURL),
			logger.String("pattern", p.Label()),
			logger.Int("containers", m.Containers),
			logger.Int("items", len(m.Items)),
		)
		out = append(out, m)
	}
	return out
}

func (e *Extractor) answer(sel *goquery.Selection, md *markdownConverter, sourceURL string) string {
	if md != nil {
		out, err := md.convert(sel)
		if err == nil {
			return out
		}
		e.opts.Logger.Warn("Markdown conversion failed, using plain text",
			logger.String("url", sourceURL),
			logger.Error(err),
		)
	}
	return parse.SelectionText(sel)
}

func pageImage(doc *goquery.Document, sourceURL string) *string {
	src := parse.FirstImage(doc, sourceURL)
	if src == "" {
		return nil
	}
	return &src
}

// NormalizeQuestion collapses whitespace, applies NFC and removes exactly one
// trailing question mark.
func NormalizeQuestion(s string) string {
	s = parse.NormalizeText(s)
	s = strings.TrimSuffix(s, "?")
	return strings.TrimSpace(s)
}

// ValidatePattern checks that all three selectors are present and parse as
// CSS selector groups.
func ValidatePattern(p faq.Pattern) error {
	if !p.Complete() {
		return fmt.Errorf("pattern %q: selector, question and answer are all required", p.Label())
	}
	fields := []struct{ name, sel string }{
		{"selector", p.Selector},
		{"question", p.Question},
		{"answer", p.Answer},
	}
	for _, f := range fields {
		if _, err := cascadia.ParseGroup(f.sel); err != nil {
			return fmt.Errorf("pattern %q: invalid %s selector %q: %w", p.Label(), f.name, f.sel, err)
		}
	}
	return nil
}
