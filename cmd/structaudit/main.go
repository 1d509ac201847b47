// Command structaudit audits rendered page markup for structural
// accessibility defects: heading hierarchy and ARIA landmark regions.
//
// Usage:
//
//	structaudit -config structaudit.yaml      # HTTP service
//	structaudit -url https://example.com      # one-shot audit, report to stdout
//	structaudit -mcp                          # MCP tools over stdio
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/structaudit/structaudit/contentcache"
	"github.com/structaudit/structaudit/fetcher"
	"github.com/structaudit/structaudit/observability"
	"github.com/structaudit/structaudit/scanner"
	"github.com/structaudit/structaudit/store"
	"github.com/structaudit/structaudit/structure"
)

func main() {
	configPath := flag.String("config", "", "path to structaudit.yaml config file")
	oneShotURL := flag.String("url", "", "audit a single URL, print a markdown report and exit")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdio instead of HTTP")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *oneShotURL, *mcpStdio); err != nil {
		logger.Error("structaudit: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, oneShotURL string, mcpStdio bool) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	fetch, cleanup, err := buildFetch(cfg.Fetch, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	cache := contentcache.New(fetch, contentcache.WithLogger(logger))

	if oneShotURL != "" {
		svc := scanner.New(scanner.Config{Cache: cache, Logger: logger})
		scan, err := svc.ScanURL(ctx, oneShotURL)
		if err != nil {
			return err
		}
		fmt.Print(svc.Report(oneShotURL, scan.Result))
		return nil
	}

	db, err := store.Open(cfg.Database, store.WithMkdirAll())
	if err != nil {
		return err
	}
	defer db.Close()

	scans := store.NewStore(db)
	if err := scans.Init(); err != nil {
		return err
	}

	events := observability.NewEventLogger(db, observability.WithLogger(logger))
	if err := events.Init(); err != nil {
		return err
	}

	svc := scanner.New(scanner.Config{
		Cache:    cache,
		Analyzer: structure.New(structure.Config{Logger: logger}),
		Store:    scans,
		Events:   events,
		Logger:   logger,
	})

	if mcpStdio {
		srv := mcp.NewServer(&mcp.Implementation{
			Name:    "structaudit",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(srv)
		logger.Info("structaudit: MCP stdio serving")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api", svc.RegisterRoutes)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("structaudit: listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("structaudit: stopped")
	return nil
}

// buildFetch assembles the configured acquisition path.
func buildFetch(cfg FetchConfig, logger *slog.Logger) (contentcache.FetchFunc, func(), error) {
	switch cfg.Mode {
	case "browser":
		opts := []fetcher.BrowserOption{
			fetcher.WithNavigateTimeout(cfg.Timeout),
			fetcher.WithBrowserLogger(logger),
		}
		if cfg.RemoteBrowser != "" {
			opts = append(opts, fetcher.WithRemote(cfg.RemoteBrowser))
		}
		browser, err := fetcher.NewBrowser(opts...)
		if err != nil {
			return nil, nil, err
		}
		return browser.Fetch, func() { browser.Close() }, nil

	case "http":
		opts := []fetcher.Option{
			fetcher.WithClient(&http.Client{Timeout: cfg.Timeout}),
			fetcher.WithMaxBodySize(cfg.MaxBody),
			fetcher.WithLogger(logger),
		}
		if cfg.UserAgent != "" {
			opts = append(opts, fetcher.WithUserAgent(cfg.UserAgent))
		}
		if cfg.Sanitize {
			opts = append(opts, fetcher.WithSanitizer(fetcher.StructuralPolicy()))
		}
		return fetcher.New(opts...).Fetch, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown fetch mode %q", cfg.Mode)
	}
}
