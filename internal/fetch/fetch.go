package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

	maxBodyBytes = 10 << 20
)

type Options struct {
	URL                string
	Mode               Mode
	Timeout            time.Duration
	UserAgent          string
	Headers            map[string]string
	WaitForSelector    string
	Headless           bool
	InsecureSkipVerify bool
}

type Result struct {
	HTML       string
	FinalMode  Mode
	SourceInfo string
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.Code, e.URL)
}

// BrowserHeaders returns the header set sent with every request. Values in
// extra override the defaults.
func BrowserHeaders(userAgent string, extra map[string]string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}

// NewHTTPClient builds the client used for static fetches.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

var staticFetch = fetchStatic
var dynamicFetch = fetchDynamic

func Fetch(ctx context.Context, opts Options) (Result, error) {
	if opts.URL == "" {
		return Result{}, errors.New("url is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Mode == "" {
		opts.Mode = ModeStatic
	}

	switch opts.Mode {
	case ModeStatic:
		html, err := staticFetch(ctx, opts)
		if err != nil {
			return Result{}, err
		}
		return Result{HTML: html, FinalMode: ModeStatic, SourceInfo: "static"}, nil
	case ModeDynamic:
		html, err := dynamicFetch(ctx, opts)
		if err != nil {
			return Result{}, err
		}
		return Result{HTML: html, FinalMode: ModeDynamic, SourceInfo: "dynamic"}, nil
	case ModeAuto:
		html, err := staticFetch(ctx, opts)
		if err == nil && !looksDynamic(html) {
			return Result{HTML: html, FinalMode: ModeStatic, SourceInfo: "auto:static"}, nil
		}
		// The server answered; rendering the same URL in a browser will not help.
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return Result{}, err
		}
		html, derr := dynamicFetch(ctx, opts)
		if derr != nil {
			if err != nil {
				return Result{}, fmt.Errorf("static failed: %v; dynamic failed: %w", err, derr)
			}
			return Result{}, derr
		}
		return Result{HTML: html, FinalMode: ModeDynamic, SourceInfo: "auto:dynamic"}, nil
	default:
		return Result{}, fmt.Errorf("unknown mode: %s", opts.Mode)
	}
}

func fetchStatic(ctx context.Context, opts Options) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header = BrowserHeaders(opts.UserAgent, opts.Headers)

	resp, err := NewHTTPClient(opts.Timeout, opts.InsecureSkipVerify).Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("static fetch timed out after %s: %w", opts.Timeout, err)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{URL: opts.URL, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func looksDynamic(html string) bool {
	trimmed := strings.TrimSpace(html)
	if len(trimmed) < 2000 {
		return true
	}
	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "<h1") && !strings.Contains(lower, "<h2") && !strings.Contains(lower, "<h3") {
		if strings.Contains(lower, "id=\"root\"") || strings.Contains(lower, "id=\"app\"") || strings.Contains(lower, "data-reactroot") {
			return true
		}
	}
	return false
}
