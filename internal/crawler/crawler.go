package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"faq_scrap/internal/faq"
	"faq_scrap/internal/fetch"
	"faq_scrap/internal/logger"
)

// sourceKey carries the requested URL through redirects.
const sourceKey = "source_url"

type Options struct {
	Parallelism        int // concurrent requests (default: 4)
	UserAgent          string
	Headers            map[string]string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Logger             logger.Logger
}

// Page is the outcome of loading one URL. Err is nil on success.
type Page struct {
	URL  string
	HTML string
	Err  *faq.Error
}

// Loader fetches a batch of pages. The result is aligned with urls: entry i
// always describes urls[i], whatever order the requests completed in.
type Loader interface {
	Load(ctx context.Context, urls []string) []Page
}

// Crawler loads pages with a colly collector. It never follows links; only
// the URLs handed to Load are requested.
type Crawler struct {
	opts Options
}

func New(opts Options) *Crawler {
	normalizeOptions(&opts)
	return &Crawler{opts: opts}
}

func normalizeOptions(opts *Options) {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.UserAgent == "" {
		opts.UserAgent = fetch.DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
}

func (cr *Crawler) newCollector(ctx context.Context) (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.Async(true),
		colly.UserAgent(cr.opts.UserAgent),
	)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cr.opts.Parallelism,
	}); err != nil {
		return nil, fmt.Errorf("failed to set parallelism: %w", err)
	}
	c.SetRequestTimeout(cr.opts.Timeout)
	c.WithTransport(fetch.NewHTTPClient(cr.opts.Timeout, cr.opts.InsecureSkipVerify).Transport)
	return c, nil
}

// Load requests every distinct URL once and fans the result out to each
// position it occupies in urls.
func (cr *Crawler) Load(ctx context.Context, urls []string) []Page {
	pages := make([]Page, len(urls))
	positions := map[string][]int{}
	var order []string
	for i, u := range urls {
		pages[i].URL = u
		if _, seen := positions[u]; !seen {
			order = append(order, u)
		}
		positions[u] = append(positions[u], i)
	}
	if len(order) == 0 {
		return pages
	}

	var mu sync.Mutex
	record := func(source, html string, err *faq.Error) {
		mu.Lock()
		defer mu.Unlock()
		for _, i := range positions[source] {
			pages[i].HTML = html
			pages[i].Err = err
		}
	}

	c, err := cr.newCollector(ctx)
	if err != nil {
		for _, u := range order {
			record(u, "", faq.NewFetchError(u, err))
		}
		return pages
	}

	c.OnResponse(func(r *colly.Response) {
		source := r.Ctx.Get(sourceKey)
		cr.opts.Logger.Debug("Fetched page",
			logger.String("url", source),
			logger.Int("status", r.StatusCode),
			logger.Int("bytes", len(r.Body)),
		)
		record(source, string(r.Body), nil)
	})
	c.OnError(func(r *colly.Response, err error) {
		source := r.Ctx.Get(sourceKey)
		if r.StatusCode >= 300 {
			err = &fetch.StatusError{URL: source, Code: r.StatusCode}
		} else if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("static fetch timed out after %s: %w", cr.opts.Timeout, err)
		}
		cr.opts.Logger.Warn("Page fetch failed", logger.String("url", source), logger.Error(err))
		record(source, "", faq.NewFetchError(source, err))
	})

	headers := fetch.BrowserHeaders(cr.opts.UserAgent, cr.opts.Headers)
	for _, u := range order {
		reqCtx := colly.NewContext()
		reqCtx.Put(sourceKey, u)
		if err := c.Request("GET", u, nil, reqCtx, headers.Clone()); err != nil {
			cr.opts.Logger.Warn("Page request rejected", logger.String("url", u), logger.Error(err))
			record(u, "", faq.NewFetchError(u, err))
		}
	}
	c.Wait()
	return pages
}
