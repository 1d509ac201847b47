// Package fetcher acquires page markup for analysis. The plain HTTP path
// covers static sites; browser.go provides a rendered-page path for pages
// that only take shape after script execution.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Fetcher performs HTTP GETs and returns raw or sanitized markup.
type Fetcher struct {
	client  *http.Client
	ua      string
	maxBody int64
	policy  *bluemonday.Policy
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.ua = ua }
}

// WithMaxBodySize caps the response read, in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) { f.maxBody = n }
}

// WithSanitizer applies a bluemonday policy to fetched markup before it is
// returned. Use StructuralPolicy to strip scripts while keeping the
// attributes the structure analysis depends on.
func WithSanitizer(p *bluemonday.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher with sensible defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		ua:      "Mozilla/5.0 (compatible; StructAudit/1.0)",
		maxBody: 10 << 20,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// StructuralPolicy returns a sanitization policy that removes scripts and
// unknown markup while preserving sectioning elements and the role and
// labelling attributes the analyzer reads.
func StructuralPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("html", "head", "title", "body",
		"main", "nav", "header", "footer", "aside", "section", "form")
	p.AllowAttrs("role", "aria-label", "aria-labelledby", "id").Globally()
	return p
}

// Fetch GETs a URL and returns the markup. Satisfies contentcache.FetchFunc.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetcher: %s returned status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body: %w", err)
	}

	if f.policy != nil {
		body = f.policy.SanitizeBytes(body)
	}

	f.logger.Debug("fetcher: fetched",
		"url", pageURL, "status", resp.StatusCode, "size", len(body))

	return body, nil
}
