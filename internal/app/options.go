package app

import (
	"time"

	"faq_scrap/internal/config"
	"faq_scrap/internal/crawler"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/fetch"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/metrics"
	"faq_scrap/internal/semantic"
)

// Deps carries collaborators. Zero values are replaced with defaults built
// from the configuration.
type Deps struct {
	Logger  logger.Logger
	Metrics *metrics.Metrics
	// Encoder overrides the encoder selected by semantic.encoder.kind.
	Encoder semantic.Encoder
	// Loader overrides the page loader selected by fetch.mode.
	Loader crawler.Loader
}

// FetchOptions maps the fetch section of cfg onto fetcher options. URL is left
// for the caller.
func FetchOptions(cfg config.Config) fetch.Options {
	return fetch.Options{
		Mode:               fetch.Mode(cfg.Fetch.Mode),
		Timeout:            time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		UserAgent:          cfg.Fetch.UserAgent,
		WaitForSelector:    cfg.Fetch.WaitFor,
		Headless:           cfg.Fetch.Headless,
		InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
	}
}

// newLoader uses colly for static pages and the browser-capable fetcher for
// dynamic and auto modes.
func newLoader(cfg config.Config, log logger.Logger) crawler.Loader {
	opts := FetchOptions(cfg)
	if opts.Mode == "" || opts.Mode == fetch.ModeStatic {
		return crawler.New(crawler.Options{
			Parallelism:        cfg.Fetch.MaxInFlight,
			UserAgent:          opts.UserAgent,
			Timeout:            opts.Timeout,
			InsecureSkipVerify: opts.InsecureSkipVerify,
			Logger:             log,
		})
	}
	return crawler.NewFetchLoader(crawler.FetchLoaderOptions{
		Fetch:       opts,
		Parallelism: cfg.Fetch.MaxInFlight,
		Logger:      log,
	})
}

func newResolver(cfg config.Config, log logger.Logger, onError func(*faq.Error)) *crawler.SitemapResolver {
	opts := FetchOptions(cfg)
	return crawler.NewSitemapResolver(crawler.SitemapOptions{
		UserAgent:          opts.UserAgent,
		Timeout:            opts.Timeout,
		MaxDepth:           cfg.MaxSitemapDepth,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		Logger:             log,
		OnError:            onError,
	})
}
