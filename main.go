package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/TC94615/binance-data-downloader/internal/config"
	"github.com/TC94615/binance-data-downloader/internal/fetcher"
	"github.com/TC94615/binance-data-downloader/internal/pipeline"
	"github.com/TC94615/binance-data-downloader/internal/ratelimit"
	"github.com/TC94615/binance-data-downloader/internal/symbols"
	"github.com/TC94615/binance-data-downloader/internal/task"
	"github.com/TC94615/binance-data-downloader/internal/vision"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	sel, err := cfg.Selection()
	if err != nil {
		log.Fatalf("Invalid selectors: %v", err)
	}

	// An unwritable output root is the one error worth aborting the whole
	// run for, and it has to surface before any task starts.
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("Output directory is not writable: %v", err)
	}

	// Without explicit symbols, download everything currently tradable.
	if len(sel.Symbols) == 0 {
		logger.Info("no symbols given, listing all tradable symbols")
		lister := symbols.NewLister(nil, logger)
		all, err := lister.ListAll(ctx, sel.Markets)
		if err != nil {
			log.Fatalf("Failed to list symbols: %v", err)
		}
		sel.Symbols = all
	}

	tasks, skips := task.NewEnumerator(sel, logger).Tasks()
	for _, notice := range skips {
		fmt.Println(notice)
	}
	if len(tasks) == 0 {
		logger.Warn("no archives to download for the given selectors")
		return 0
	}

	limiter := ratelimit.New(cfg.RateLimit)
	client := fetcher.NewClient(fetcher.Options{
		Retries: cfg.Retries,
		Timeout: cfg.Timeout,
	}, limiter, logger)
	builder := vision.NewBuilder(cfg.BaseURL, cfg.OutputDir)
	pipe := pipeline.New(client, builder, cfg.Concurrency, cfg.KeepArchives, logger)

	fmt.Printf("Downloading %d archives with %d workers...\n", len(tasks), cfg.Concurrency)
	fmt.Println("================================================")
	summary := pipe.Run(ctx, tasks)
	printSummary(summary)

	return summary.ExitCode()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printSummary(s pipeline.Summary) {
	fmt.Println("================================================")
	fmt.Printf("Total: %d  succeeded: %d  skipped: %d  not found: %d\n",
		s.Total,
		s.Count(pipeline.KindSuccess),
		s.Count(pipeline.KindSkipped),
		s.Count(pipeline.KindNotFound))
	fmt.Printf("Failed: network %d, checksum %d, extract %d\n",
		s.Count(pipeline.KindNetworkFailed),
		s.Count(pipeline.KindChecksumMismatch),
		s.Count(pipeline.KindExtractFailed))

	for _, f := range s.Failures {
		fmt.Printf("  %s: %s - %v\n", f.Kind, f.Task.Name(), f.Err)
	}
}
