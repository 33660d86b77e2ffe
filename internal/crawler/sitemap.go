package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"faq_scrap/internal/faq"
	"faq_scrap/internal/fetch"
	"faq_scrap/internal/logger"
)

// DefaultMaxSitemapDepth bounds nested sitemap indexes.
const DefaultMaxSitemapDepth = 5

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name          `xml:"sitemapindex"`
	Sitemaps []sitemapLocation `xml:"sitemap"`
}

type sitemapLocation struct {
	Loc string `xml:"loc"`
}

type SitemapOptions struct {
	UserAgent          string
	Headers            map[string]string
	Timeout            time.Duration
	MaxDepth           int
	InsecureSkipVerify bool
	Logger             logger.Logger
	// OnError receives every node that could not be fetched or parsed.
	OnError func(*faq.Error)
}

// SitemapResolver expands a sitemap URL into the page URLs it lists.
type SitemapResolver struct {
	opts SitemapOptions
}

func NewSitemapResolver(opts SitemapOptions) *SitemapResolver {
	if opts.Timeout == 0 {
		opts.Timeout = fetch.DefaultTimeout
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxSitemapDepth
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &SitemapResolver{opts: opts}
}

// Resolve returns every page URL reachable from sitemapURL in document order.
// Nested indexes are expanded depth first. A node that fails to load
// contributes nothing and its siblings are still processed, so the result
// may be partial or empty but never an error.
func (r *SitemapResolver) Resolve(ctx context.Context, sitemapURL string) []string {
	visited := map[string]struct{}{}
	return r.resolve(ctx, strings.TrimSpace(sitemapURL), 0, visited)
}

func (r *SitemapResolver) resolve(ctx context.Context, sitemapURL string, depth int, visited map[string]struct{}) []string {
	log := r.opts.Logger.With(logger.String("sitemap", sitemapURL), logger.Int("depth", depth))
	if sitemapURL == "" {
		return nil
	}
	if _, seen := visited[sitemapURL]; seen {
		log.Warn("Skipping sitemap already visited in this run")
		return nil
	}
	visited[sitemapURL] = struct{}{}
	if depth > r.opts.MaxDepth {
		log.Warn("Skipping sitemap beyond max depth", logger.Int("max_depth", r.opts.MaxDepth))
		return nil
	}
	if err := ctx.Err(); err != nil {
		r.fail(log, faq.NewFetchError(sitemapURL, err))
		return nil
	}

	res, err := fetch.Fetch(ctx, fetch.Options{
		URL:                sitemapURL,
		Mode:               fetch.ModeStatic,
		Timeout:            r.opts.Timeout,
		UserAgent:          r.opts.UserAgent,
		Headers:            r.opts.Headers,
		InsecureSkipVerify: r.opts.InsecureSkipVerify,
	})
	if err != nil {
		r.fail(log, faq.NewFetchError(sitemapURL, err))
		return nil
	}

	body := []byte(res.HTML)
	root, err := rootElement(body)
	if err != nil {
		r.fail(log, faq.NewParseError(sitemapURL, err))
		return nil
	}

	switch root {
	case "sitemapindex":
		var index sitemapIndex
		if err := newDecoder(body).Decode(&index); err != nil {
			r.fail(log, faq.NewParseError(sitemapURL, fmt.Errorf("parse sitemap index: %w", err)))
			return nil
		}
		var all []string
		for _, child := range index.Sitemaps {
			all = append(all, r.resolve(ctx, strings.TrimSpace(child.Loc), depth+1, visited)...)
		}
		log.Debug("Expanded sitemap index", logger.Int("children", len(index.Sitemaps)), logger.Int("urls", len(all)))
		return all
	case "urlset":
		urls, err := parseURLSet(body)
		if err != nil {
			r.fail(log, faq.NewParseError(sitemapURL, err))
			return nil
		}
		log.Debug("Parsed sitemap", logger.Int("urls", len(urls)))
		return urls
	default:
		r.fail(log, faq.NewParseError(sitemapURL, fmt.Errorf("unexpected root element <%s>", root)))
		return nil
	}
}

func (r *SitemapResolver) fail(log logger.Logger, err *faq.Error) {
	log.Warn("Sitemap node failed", logger.String("kind", string(err.Kind)), logger.Error(err.Cause))
	if r.opts.OnError != nil {
		r.opts.OnError(err)
	}
}

// newDecoder reads body in the encoding its XML declaration names.
func newDecoder(body []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// rootElement returns the local name of the document's first element.
func rootElement(body []byte) (string, error) {
	dec := newDecoder(body)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no root element")
			}
			return "", fmt.Errorf("parse sitemap XML: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func parseURLSet(body []byte) ([]string, error) {
	var set urlset
	if err := newDecoder(body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parse sitemap XML: %w", err)
	}

	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}
