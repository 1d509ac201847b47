// Package contentcache deduplicates fetches of page markup. Concurrent
// callers requesting the same URL before resolution share one underlying
// fetch and one eventual result; resolved bodies are cached until
// explicitly cleared. A failed fetch leaves no cache entry behind, so the
// next caller can retry.
package contentcache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc obtains raw markup for a URL. It is the injected capability
// boundary: the cache performs no network I/O of its own.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Cache shares fetch results per URL.
type Cache struct {
	fetch  FetchFunc
	group  singleflight.Group
	logger *slog.Logger

	mu     sync.Mutex
	bodies map[string][]byte
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates a Cache around a fetch capability.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:  fetch,
		logger: slog.Default(),
		bodies: make(map[string][]byte),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchContent returns the document body for a URL. At most one fetch per
// URL is outstanding at a time; all concurrent callers receive the same
// result. Once resolved, the body is reused until ClearCache.
//
// An in-flight fetch is never cancelled by a single caller's context: it
// runs to completion or failure for whoever still awaits it.
func (c *Cache) FetchContent(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	if body, ok := c.bodies[url]; ok {
		c.mu.Unlock()
		return body, nil
	}
	c.mu.Unlock()

	v, err, shared := c.group.Do(url, func() (any, error) {
		body, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.bodies[url] = body
		c.mu.Unlock()
		return body, nil
	})
	if err != nil {
		c.logger.Debug("contentcache: fetch failed", "url", url, "error", err)
		return nil, err
	}

	c.logger.Debug("contentcache: fetched", "url", url, "shared", shared)
	return v.([]byte), nil
}

// ClearCache removes the cached entry for a URL, forcing the next
// FetchContent to re-fetch. An in-flight fetch for the URL is forgotten
// but not cancelled.
func (c *Cache) ClearCache(url string) {
	c.mu.Lock()
	delete(c.bodies, url)
	c.mu.Unlock()
	c.group.Forget(url)
}

// Clear drops every cached body.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = make(map[string][]byte)
}

// Cached reports whether a resolved body is present for the URL.
func (c *Cache) Cached(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bodies[url]
	return ok
}
