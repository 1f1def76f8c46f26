// Package pipeline drives the download-and-verify batch: a bounded pool of
// workers that fetch, verify and extract archives, feeding every terminal
// outcome into an aggregator. One bad file never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/TC94615/binance-data-downloader/internal/extract"
	"github.com/TC94615/binance-data-downloader/internal/fetcher"
	"github.com/TC94615/binance-data-downloader/internal/task"
	"github.com/TC94615/binance-data-downloader/internal/verify"
	"github.com/TC94615/binance-data-downloader/internal/vision"
)

const defaultConcurrency = 5

// Pipeline executes download tasks with bounded concurrency.
type Pipeline struct {
	client      *fetcher.Client
	builder     *vision.Builder
	verifier    *verify.Verifier
	concurrency int
	keepArchive bool
	logger      *slog.Logger
}

// New creates a pipeline. Concurrency values below one fall back to the default.
func New(client *fetcher.Client, builder *vision.Builder, concurrency int, keepArchive bool, logger *slog.Logger) *Pipeline {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		client:      client,
		builder:     builder,
		verifier:    verify.New(logger),
		concurrency: concurrency,
		keepArchive: keepArchive,
		logger:      logger,
	}
}

// Run executes all tasks and returns the batch summary. Cancelling the context
// stops new tasks from starting; tasks already in flight finish or abort within
// their own timeouts, and every started task still reaches a terminal outcome.
func (p *Pipeline) Run(ctx context.Context, tasks []task.Task) Summary {
	agg := NewAggregator()

	var group errgroup.Group
	group.SetLimit(p.concurrency)

	started := 0
	for _, t := range tasks {
		if ctx.Err() != nil {
			p.logger.Info("cancellation requested, not starting remaining tasks", "remaining", len(tasks)-started)
			break
		}
		started++
		t := t
		group.Go(func() error {
			outcome := p.process(ctx, t)
			p.report(outcome)
			agg.Record(outcome)
			return nil
		})
	}

	group.Wait()
	return agg.Finalize()
}

// process runs one task through its full lifecycle and returns its terminal
// outcome. Failures are captured as outcome values, never propagated.
func (p *Pipeline) process(ctx context.Context, t task.Task) Outcome {
	obj := p.builder.Resolve(t)

	// Resume safety: trust only the marker the pipeline itself wrote,
	// not the mere presence of an archive.
	if verify.Verified(obj.MarkerPath) {
		return Outcome{Task: t, Kind: KindSkipped}
	}

	// Checksum first. Its absence always implies absence of the dataset,
	// and finding out is far cheaper than downloading the archive.
	checksumText, err := p.client.FetchChecksum(ctx, obj.ChecksumURL)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return Outcome{Task: t, Kind: KindNotFound, Err: err}
		}
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}

	if err := os.MkdirAll(obj.ExtractDir, 0o755); err != nil {
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}
	if err := os.WriteFile(obj.ChecksumPath, []byte(checksumText), 0o644); err != nil {
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}

	if _, err := p.client.DownloadArchive(ctx, obj.DataURL, obj.PartPath); err != nil {
		os.Remove(obj.ChecksumPath)
		if fetcher.IsNotFound(err) {
			return Outcome{Task: t, Kind: KindNotFound, Err: err}
		}
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}

	digest, err := p.verifier.Verify(obj.PartPath, obj.ChecksumPath)
	if err != nil {
		var mismatch *verify.MismatchError
		if errors.As(err, &mismatch) {
			return Outcome{
				Task:     t,
				Kind:     KindChecksumMismatch,
				Expected: mismatch.Expected,
				Actual:   mismatch.Actual,
				Err:      err,
			}
		}
		os.Remove(obj.PartPath)
		os.Remove(obj.ChecksumPath)
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}

	if err := os.Rename(obj.PartPath, obj.ArchivePath); err != nil {
		os.Remove(obj.PartPath)
		os.Remove(obj.ChecksumPath)
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}

	if err := p.verifier.WriteMarker(obj.MarkerPath, digest, filepath.Base(obj.ArchivePath)); err != nil {
		return Outcome{Task: t, Kind: KindNetworkFailed, Err: err}
	}

	extractedPath, err := extract.CSV(obj.ArchivePath, obj.ExtractDir)
	if err != nil {
		// The digest was correct, so the archive stays on disk.
		return Outcome{Task: t, Kind: KindExtractFailed, Err: err}
	}

	if !p.keepArchive {
		if err := os.Remove(obj.ArchivePath); err != nil {
			p.logger.Warn("failed to remove extracted archive", "path", obj.ArchivePath, "error", err)
		}
	}

	return Outcome{Task: t, Kind: KindSuccess, ExtractedPath: extractedPath}
}

func (p *Pipeline) report(o Outcome) {
	switch o.Kind {
	case KindSuccess:
		p.logger.Info("task succeeded", "task", o.Task.Name(), "extracted", o.ExtractedPath)
	case KindSkipped:
		p.logger.Debug("task skipped, already verified", "task", o.Task.Name())
	case KindNotFound:
		p.logger.Warn("dataset not published", "task", o.Task.Name())
	case KindChecksumMismatch:
		p.logger.Error("checksum mismatch, archive purged",
			"task", o.Task.Name(), "expected", o.Expected, "actual", o.Actual)
	default:
		p.logger.Error("task failed", "task", o.Task.Name(), "kind", string(o.Kind), "error", o.Err)
	}
}
