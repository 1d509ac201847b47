package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Browser fetches rendered markup through headless Chrome. Create one per
// process and share it: tabs are cheap, browsers are not.
type Browser struct {
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	remote  string
	timeout time.Duration
	logger  *slog.Logger
	closed  bool
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithRemote connects to an external Chrome instance instead of launching
// a local one. The value is the DevTools WebSocket URL.
func WithRemote(wsURL string) BrowserOption {
	return func(b *Browser) { b.remote = wsURL }
}

// WithNavigateTimeout bounds navigation plus load wait per page.
func WithNavigateTimeout(d time.Duration) BrowserOption {
	return func(b *Browser) { b.timeout = d }
}

// WithBrowserLogger sets a custom logger.
func WithBrowserLogger(l *slog.Logger) BrowserOption {
	return func(b *Browser) { b.logger = l }
}

// NewBrowser launches (or connects to) Chrome.
func NewBrowser(opts ...BrowserOption) (*Browser, error) {
	b := &Browser{
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}

	wsURL := b.remote
	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("fetcher: launch browser: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.logger.Info("fetcher: launched local chrome", "url", wsURL)
	} else {
		b.logger.Info("fetcher: connecting to remote chrome", "url", wsURL)
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("fetcher: connect browser: %w", err)
	}
	if err := br.IgnoreCertErrors(true); err != nil {
		b.logger.Warn("fetcher: ignore cert errors failed", "error", err)
	}

	b.browser = br
	return b, nil
}

// Fetch opens a stealth tab, waits for the page to load and returns the
// rendered outer HTML. Satisfies contentcache.FetchFunc.
func (b *Browser) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("fetcher: browser is closed")
	}
	br := b.browser
	b.mu.Unlock()

	page, err := stealth.Page(br)
	if err != nil {
		return nil, fmt.Errorf("fetcher: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("fetcher: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.logger.Warn("fetcher: wait load timeout", "url", pageURL, "error", err)
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("fetcher: render %s: %w", pageURL, err)
	}

	html := res.Value.Str()
	b.logger.Debug("fetcher: rendered", "url", pageURL, "size", len(html))
	return []byte(html), nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return fmt.Errorf("fetcher: close browser: %w", err)
		}
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
	}
	return nil
}
