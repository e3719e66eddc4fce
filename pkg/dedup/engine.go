// Package dedup runs a complete catalog, match and link pass over two trees
package dedup

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/dirlink/pkg/catalog"
	"github.com/sdejongh/dirlink/pkg/compare"
	"github.com/sdejongh/dirlink/pkg/link"
	"github.com/sdejongh/dirlink/pkg/logging"
	"github.com/sdejongh/dirlink/pkg/matcher"
	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/output"
	"github.com/sdejongh/dirlink/pkg/ratelimit"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// Engine orchestrates a dedup run: catalog target, catalog destination,
// match, then replace each match with a link
type Engine struct {
	target    storage.Backend
	dest      storage.Backend
	digester  compare.Digester
	formatter output.Formatter
	logger    logging.Logger
	operation *models.Operation
	out       io.Writer
	started   bool
}

// NewEngine creates a new dedup engine
func NewEngine(
	target, dest storage.Backend,
	formatter output.Formatter,
	logger logging.Logger,
	operation *models.Operation,
) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{
		target:    target,
		dest:      dest,
		formatter: formatter,
		logger:    logger,
		operation: operation,
		out:       os.Stdout,
	}
}

// SetDigester replaces the digester built from the operation settings
func (e *Engine) SetDigester(d compare.Digester) {
	e.digester = d
}

// SetOutput sets the writer passed to the formatter
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

// Run executes the operation. A report is returned even when the run fails;
// the error is non-nil only for failures that aborted the run.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	op := e.operation
	report := &models.RunReport{
		OperationID:     op.ID,
		TargetPath:      op.TargetPath,
		DestinationPath: op.DestinationPath,
		DryRun:          op.DryRun,
		StartTime:       time.Now(),
		Status:          models.StatusSuccess,
	}
	logger := e.logger.WithFields(logging.Fields{"operation_id": op.ID})

	if err := op.Validate(); err != nil {
		return e.abort(ctx, report, fmt.Errorf("invalid operation: %w", err))
	}

	limiter := ratelimit.NewLimiter(op.BandwidthLimit)
	digester, err := e.buildDigester(ctx, limiter)
	if err != nil {
		return e.abort(ctx, report, err)
	}

	if e.formatter != nil {
		if err := e.formatter.Start(e.out, op); err != nil {
			return e.abort(ctx, report, fmt.Errorf("failed to start output: %w", err))
		}
		e.started = true
	}

	logger.Info(ctx, "Starting dedup run", logging.Fields{
		"target":      op.TargetPath,
		"destination": op.DestinationPath,
		"patterns":    op.SearchPatterns,
		"dry_run":     op.DryRun,
		"max_workers": op.MaxWorkers,
	})

	// Phase 1: catalog both trees
	targets, err := e.buildCatalog(ctx, e.target, models.SideTarget, report, logger)
	if err != nil {
		return e.stop(ctx, report, err)
	}
	report.Stats.TargetFilesFound.Store(int32(targets.Len()))

	dests, err := e.buildCatalog(ctx, e.dest, models.SideDestination, report, logger)
	if err != nil {
		return e.stop(ctx, report, err)
	}
	report.Stats.DestinationFilesFound.Store(int32(dests.Len()))

	// Phase 2: match
	m := matcher.New(e.target, e.dest, digester, matcher.Config{
		PrefixSize: op.PrefixSize,
		Verify:     op.Verify,
		MaxWorkers: op.MaxWorkers,
		BufferSize: op.BufferSize,
	}, logger)
	m.SetStatistics(&report.Stats)
	m.SetFormatter(e.formatter)
	if limiter != nil {
		m.SetReaderWrapper(throttle(ctx, limiter))
	}

	matches, err := m.Find(ctx, targets, dests)
	report.Matches = matches
	report.Errors = append(report.Errors, m.Failures()...)
	if err != nil {
		return e.stop(ctx, report, fmt.Errorf("matching failed: %w", err))
	}

	// Phase 3: replace matches with links
	if op.DryRun {
		logger.Info(ctx, "Dry run, destination left untouched", logging.Fields{"matches": len(matches)})
		return e.finish(ctx, report), nil
	}

	replacer := link.NewReplacer(e.dest, link.Options{
		TempSuffix: op.TempSuffix,
		UseTrash:   op.UseTrash,
	}, logger)
	linker := link.NewLinker(replacer, op.MaxWorkers, logger)
	linker.SetStatistics(&report.Stats)
	linker.SetFormatter(e.formatter)

	report.Links = linker.Apply(ctx, matches)

	cancelled := false
	for _, r := range report.Links {
		switch r.Status {
		case models.LinkFailed, models.LinkStranded:
			report.Status = models.StatusPartial
			report.Errors = append(report.Errors, models.RunError{
				FilePath:  r.Match.LinkPath,
				Phase:     "link",
				Error:     r.Error.Error(),
				Timestamp: time.Now(),
			})
		case models.LinkSkipped:
			cancelled = true
		}
	}
	if cancelled {
		report.Status = models.StatusCancelled
	}

	return e.finish(ctx, report), nil
}

func (e *Engine) buildDigester(ctx context.Context, limiter *ratelimit.Limiter) (compare.Digester, error) {
	if e.digester != nil {
		return e.digester, nil
	}

	op := e.operation
	d, err := compare.NewHashDigester(op.HashAlgorithm, op.BufferSize)
	if err != nil {
		return nil, err
	}

	if limiter != nil {
		d.SetReaderWrapper(throttle(ctx, limiter))
	}
	if e.formatter != nil {
		d.SetProgressCallback(func(path string, current int64) {
			e.formatter.Progress(output.ProgressUpdate{
				Type:      output.UpdateHashProgress,
				FilePath:  path,
				BytesDone: current,
			})
		})
	}

	return d, nil
}

func (e *Engine) buildCatalog(ctx context.Context, backend storage.Backend, side models.Side, report *models.RunReport, logger logging.Logger) (*catalog.Catalog, error) {
	c, err := catalog.Build(ctx, backend, catalog.Options{
		Side:            side,
		SearchPatterns:  e.operation.SearchPatterns,
		ExcludePatterns: e.operation.ExcludePatterns,
	}, logger)
	if err != nil {
		return nil, err
	}

	for _, s := range c.Skipped() {
		report.Stats.FilesSkipped.Add(1)
		report.Errors = append(report.Errors, models.RunError{
			FilePath:  s.Path,
			Phase:     "catalog",
			Error:     s.Err.Error(),
			Timestamp: time.Now(),
		})
	}

	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{
			Type:       output.UpdateCatalogComplete,
			Side:       side,
			Total:      c.Len(),
			TotalBytes: int64(c.TotalBytes()),
		})
	}

	return c, nil
}

// stop ends the run early: cancelled when the context is done, failed otherwise
func (e *Engine) stop(ctx context.Context, report *models.RunReport, err error) (*models.RunReport, error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		report.Status = models.StatusCancelled
		e.logger.Warn(ctx, "Dedup run cancelled", logging.Fields{"operation_id": e.operation.ID})
		return e.finish(ctx, report), nil
	}
	return e.abort(ctx, report, err)
}

// abort marks the run failed, reports err and returns it
func (e *Engine) abort(ctx context.Context, report *models.RunReport, err error) (*models.RunReport, error) {
	report.Status = models.StatusFailed
	e.logger.Error(ctx, "Dedup run failed", err, logging.Fields{"operation_id": e.operation.ID})
	if e.formatter != nil {
		e.formatter.Error(err)
	}
	e.finish(ctx, report)
	return report, err
}

func (e *Engine) finish(ctx context.Context, report *models.RunReport) *models.RunReport {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	e.logger.Info(ctx, "Dedup run finished", logging.Fields{
		"operation_id":    report.OperationID,
		"status":          string(report.Status),
		"target_files":    report.Stats.TargetFilesFound.Load(),
		"dest_files":      report.Stats.DestinationFilesFound.Load(),
		"matches":         len(report.Matches),
		"links_created":   report.Stats.LinksCreated.Load(),
		"links_failed":    report.Stats.LinksFailed.Load(),
		"bytes_reclaimed": report.Stats.BytesReclaimed.Load(),
		"duration":        report.Duration.String(),
	})

	if e.formatter != nil && e.started {
		e.formatter.Complete(report)
	}
	return report
}

// throttle draws every hash read from the shared bandwidth limiter
func throttle(ctx context.Context, limiter *ratelimit.Limiter) compare.ReaderWrapper {
	return func(rc io.ReadCloser) io.ReadCloser {
		return ratelimit.NewReadCloser(ctx, rc, limiter)
	}
}
