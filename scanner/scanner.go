// Package scanner wires the analysis pipeline together: content cache in
// front of an injected fetch capability, structure analysis, optional
// scan persistence and report rendering. It exposes the pipeline over
// HTTP (chi) and MCP.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/structaudit/structaudit/contentcache"
	"github.com/structaudit/structaudit/observability"
	"github.com/structaudit/structaudit/report"
	"github.com/structaudit/structaudit/store"
	"github.com/structaudit/structaudit/structure"
)

// Config configures a scanner Service.
type Config struct {
	// Cache provides markup per URL. Without one, only raw-markup
	// analysis is available.
	Cache *contentcache.Cache

	// Analyzer runs the structure analyses. Defaults to a fresh one.
	Analyzer *structure.Analyzer

	// Store persists scans. Optional: without it, scans are returned but
	// not retained.
	Store *store.Store

	// Reports renders markdown. Defaults to a Writer with built-in
	// labels.
	Reports *report.Writer

	// Events records scan lifecycle events. Optional.
	Events *observability.EventLogger

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Analyzer == nil {
		c.Analyzer = structure.New(structure.Config{Logger: c.Logger})
	}
	if c.Reports == nil {
		c.Reports = report.NewWriter()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service is the scan orchestration layer.
type Service struct {
	cache    *contentcache.Cache
	analyzer *structure.Analyzer
	store    *store.Store
	reports  *report.Writer
	events   *observability.EventLogger
	logger   *slog.Logger
}

// New creates a Service.
func New(cfg Config) *Service {
	cfg.defaults()
	return &Service{
		cache:    cfg.Cache,
		analyzer: cfg.Analyzer,
		store:    cfg.Store,
		reports:  cfg.Reports,
		events:   cfg.Events,
		logger:   cfg.Logger,
	}
}

// Analyzer returns the underlying structure analyzer.
func (s *Service) Analyzer() *structure.Analyzer { return s.analyzer }

// ScanURL fetches a page through the cache, analyzes it, and persists the
// scan when a store is configured.
func (s *Service) ScanURL(ctx context.Context, pageURL string, types ...structure.Type) (*store.Scan, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("scanner: no content cache configured")
	}

	body, err := s.cache.FetchContent(ctx, pageURL)
	if err != nil {
		s.logEvent(ctx, observability.ScanEvent{
			URL: pageURL, Stage: observability.StageFailed, Detail: err.Error(),
		})
		return nil, fmt.Errorf("scanner: fetch %s: %w", pageURL, err)
	}

	res, err := s.analyzer.AnalyzeHTML(body, types...)
	if err != nil {
		s.logEvent(ctx, observability.ScanEvent{
			URL: pageURL, Stage: observability.StageFailed, Detail: err.Error(),
		})
		return nil, fmt.Errorf("scanner: analyze %s: %w", pageURL, err)
	}

	scan := &store.Scan{
		URL:       pageURL,
		CreatedAt: time.Now().UTC(),
		Errors:    res.Errors(),
		Warnings:  res.Warnings(),
		Result:    res,
	}

	if s.store != nil {
		id, err := s.store.SaveScan(ctx, pageURL, res)
		if err != nil {
			return nil, err
		}
		scan.ID = id
	}

	s.logger.Info("scanner: scanned",
		"url", pageURL, "scan_id", scan.ID,
		"errors", scan.Errors, "warnings", scan.Warnings)
	s.logEvent(ctx, observability.ScanEvent{
		ScanID: scan.ID, URL: pageURL, Stage: observability.StageScanned,
		Errors: scan.Errors, Warnings: scan.Warnings,
	})

	return scan, nil
}

func (s *Service) logEvent(ctx context.Context, ev observability.ScanEvent) {
	if s.events != nil {
		s.events.LogEvent(ctx, ev)
	}
}

// AnalyzeHTML analyzes raw markup without fetching or persisting.
func (s *Service) AnalyzeHTML(markup []byte, types ...structure.Type) (*structure.Result, error) {
	return s.analyzer.AnalyzeHTML(markup, types...)
}

// Report renders a markdown report for a result.
func (s *Service) Report(pageURL string, res *structure.Result) string {
	return s.reports.Markdown(pageURL, res)
}

// ClearCache evicts one URL from the content cache.
func (s *Service) ClearCache(pageURL string) {
	if s.cache != nil {
		s.cache.ClearCache(pageURL)
		s.logEvent(context.Background(), observability.ScanEvent{
			URL: pageURL, Stage: observability.StageEvicted,
		})
	}
}
