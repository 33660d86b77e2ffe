// Package relevance decides which sitemap URLs are worth fetching in full.
package relevance

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"faq_scrap/internal/config"
	"faq_scrap/internal/fetch"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/parse"
	"faq_scrap/internal/semantic"
)

// Strategy keeps or drops a candidate URL.
type Strategy interface {
	Name() string
	Relevant(ctx context.Context, pageURL string) (bool, error)
}

// AllStrategy keeps every URL.
type AllStrategy struct{}

func (AllStrategy) Name() string { return config.PrefilterNone }

func (AllStrategy) Relevant(context.Context, string) (bool, error) { return true, nil }

// PatternStrategy keeps URLs matching a case-insensitive regular expression.
// It never touches the network.
type PatternStrategy struct {
	re *regexp.Regexp
}

func NewPatternStrategy(pattern string) (*PatternStrategy, error) {
	if strings.TrimSpace(pattern) == "" {
		return &PatternStrategy{}, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid faq_url_pattern: %w", err)
	}
	return &PatternStrategy{re: re}, nil
}

func (s *PatternStrategy) Name() string { return config.PrefilterPattern }

func (s *PatternStrategy) Relevant(_ context.Context, pageURL string) (bool, error) {
	if s.re == nil {
		return true, nil
	}
	return s.re.MatchString(pageURL), nil
}

// SemanticStrategy classifies a short text preview of the page, or the words
// of its URL path when no preview is available, against PageIndicators.
type SemanticStrategy struct {
	Classifier   *semantic.Classifier
	Threshold    float64
	PreviewChars int
	Fetch        fetch.Options
	Logger       logger.Logger
}

func (s *SemanticStrategy) Name() string { return config.PrefilterSemantic }

func (s *SemanticStrategy) Relevant(ctx context.Context, pageURL string) (bool, error) {
	text := s.preview(ctx, pageURL)
	if text == "" {
		text = URLWords(pageURL)
	}
	return s.Classifier.Classify(ctx, text, semantic.PageIndicators, s.Threshold)
}

func (s *SemanticStrategy) preview(ctx context.Context, pageURL string) string {
	opts := s.Fetch
	opts.URL = pageURL
	opts.Mode = fetch.ModeStatic
	res, err := fetch.Fetch(ctx, opts)
	if err != nil {
		s.log().Debug("Preview fetch failed, using URL words",
			logger.String("url", pageURL),
			logger.Error(err),
		)
		return ""
	}
	doc, err := parse.NewDocument(res.HTML)
	if err != nil {
		return ""
	}
	return parse.Preview(doc, s.PreviewChars)
}

func (s *SemanticStrategy) log() logger.Logger {
	if s.Logger == nil {
		return logger.NewNop()
	}
	return s.Logger
}

var urlWordSeparators = strings.NewReplacer("/", " ", "-", " ", "_", " ", ".", " ")

// URLWords turns a URL path into space separated words, so
// https://x.com/help/frequently-asked_questions becomes
// "help frequently asked questions". A URL without a path yields its host.
func URLWords(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return parse.CollapseWhitespace(urlWordSeparators.Replace(pageURL))
	}
	words := parse.CollapseWhitespace(urlWordSeparators.Replace(u.Path))
	if words == "" {
		words = parse.CollapseWhitespace(urlWordSeparators.Replace(u.Hostname()))
	}
	return words
}

// New builds the strategy named by cfg. clf may be nil unless the semantic
// strategy is selected.
func New(cfg config.Config, clf *semantic.Classifier, log logger.Logger) (Strategy, error) {
	switch name := cfg.PrefilterStrategy(); name {
	case config.PrefilterNone:
		return AllStrategy{}, nil
	case config.PrefilterPattern:
		return NewPatternStrategy(cfg.FAQURLPattern)
	case config.PrefilterSemantic:
		if clf == nil {
			return nil, fmt.Errorf("prefilter %q requires a classifier", name)
		}
		return &SemanticStrategy{
			Classifier:   clf,
			Threshold:    cfg.Semantic.URLThreshold,
			PreviewChars: cfg.Fetch.PreviewChars,
			Fetch: fetch.Options{
				Timeout:            time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
				UserAgent:          cfg.Fetch.UserAgent,
				InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
			},
			Logger: log,
		}, nil
	default:
		return nil, fmt.Errorf("unknown prefilter: %s", name)
	}
}
