package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// renderRequest is everything a browser needs to load one page.
type renderRequest struct {
	URL               string
	UserAgent         string
	Headers           map[string]string
	WaitFor           string
	Timeout           time.Duration
	Headless          bool
	IgnoreHTTPSErrors bool
}

// renderer returns the DOM of a page after scripts have run.
type renderer interface {
	Render(ctx context.Context, req renderRequest) (string, error)
}

func fetchDynamic(ctx context.Context, opts Options) (string, error) {
	return renderWith(ctx, opts, chromium{})
}

func renderWith(ctx context.Context, opts Options, r renderer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := r.Render(ctx, renderRequest{
		URL:               opts.URL,
		UserAgent:         opts.UserAgent,
		Headers:           dynamicHeaders(opts),
		WaitFor:           opts.WaitForSelector,
		Timeout:           opts.Timeout,
		Headless:          opts.Headless,
		IgnoreHTTPSErrors: opts.InsecureSkipVerify,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, playwright.ErrTimeout) {
			return "", fmt.Errorf("dynamic fetch timed out after %s: %w", opts.Timeout, err)
		}
		return "", err
	}
	return html, nil
}

// dynamicHeaders flattens the browser header set minus User-Agent, which the
// browser context sets itself.
func dynamicHeaders(opts Options) map[string]string {
	out := map[string]string{}
	for key, values := range BrowserHeaders(opts.UserAgent, opts.Headers) {
		if key == "User-Agent" || len(values) == 0 {
			continue
		}
		out[key] = values[0]
	}
	return out
}

// chromium starts a Playwright driver and a fresh Chromium for every page.
// Canceling ctx closes the browser, which aborts any pending navigation.
type chromium struct{}

func (chromium) Render(ctx context.Context, req renderRequest) (string, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return "", fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer func() { _ = pw.Stop() }()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(req.Headless),
	})
	if err != nil {
		return "", fmt.Errorf("launch chromium: %w", err)
	}
	defer func() { _ = browser.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = browser.Close() })
	defer stop()

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(req.UserAgent),
		IgnoreHttpsErrors: playwright.Bool(req.IgnoreHTTPSErrors),
		ExtraHttpHeaders:  req.Headers,
	})
	if err != nil {
		return "", err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return "", err
	}

	timeout := playwright.Float(float64(req.Timeout.Milliseconds()))
	resp, err := page.Goto(req.URL, playwright.PageGotoOptions{
		Timeout:   timeout,
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	if resp != nil && !resp.Ok() {
		return "", &StatusError{URL: req.URL, Code: resp.Status()}
	}
	if req.WaitFor != "" {
		if err := page.Locator(req.WaitFor).WaitFor(playwright.LocatorWaitForOptions{Timeout: timeout}); err != nil {
			return "", fmt.Errorf("wait-for selector %s: %w", req.WaitFor, err)
		}
	}
	return page.Content()
}
