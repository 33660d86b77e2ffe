package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"faq_scrap/internal/faq"
	"faq_scrap/internal/fetch"
	"faq_scrap/internal/logger"
)

type FetchLoaderOptions struct {
	// Fetch is the template applied to every URL; its URL field is ignored.
	Fetch       fetch.Options
	Parallelism int
	Logger      logger.Logger
}

// FetchLoader loads pages one fetch.Fetch call at a time on a bounded pool.
// It backs the dynamic and auto fetch modes, which colly cannot render.
type FetchLoader struct {
	opts FetchLoaderOptions
}

func NewFetchLoader(opts FetchLoaderOptions) *FetchLoader {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &FetchLoader{opts: opts}
}

func (l *FetchLoader) Load(ctx context.Context, urls []string) []Page {
	pages := make([]Page, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Parallelism)
	for i, u := range urls {
		g.Go(func() error {
			pages[i] = l.loadOne(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return pages
}

func (l *FetchLoader) loadOne(ctx context.Context, u string) Page {
	opts := l.opts.Fetch
	opts.URL = u
	res, err := fetch.Fetch(ctx, opts)
	if err != nil {
		l.opts.Logger.Warn("Page fetch failed", logger.String("url", u), logger.Error(err))
		return Page{URL: u, Err: faq.NewFetchError(u, err)}
	}
	l.opts.Logger.Debug("Fetched page",
		logger.String("url", u),
		logger.String("mode", res.SourceInfo),
		logger.Int("bytes", len(res.HTML)),
	)
	return Page{URL: u, HTML: res.HTML}
}
