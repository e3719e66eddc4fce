// Package matcher finds destination files that are byte-identical to target files
package matcher

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/sdejongh/dirlink/pkg/catalog"
	"github.com/sdejongh/dirlink/pkg/compare"
	"github.com/sdejongh/dirlink/pkg/errors"
	"github.com/sdejongh/dirlink/pkg/logging"
	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/output"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// Config holds matcher settings
type Config struct {
	PrefixSize int
	Verify     bool // byte-by-byte check after digests agree
	MaxWorkers int
	BufferSize int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		PrefixSize: compare.DefaultPrefixSize,
		MaxWorkers: 5,
		BufferSize: 1024 * 1024,
	}
}

// Matcher runs the size, prefix and full-digest stages over every
// destination/target pair that could possibly be equal
type Matcher struct {
	target   storage.Backend
	dest     storage.Backend
	digester compare.Digester
	verifier *compare.Verifier
	config   Config

	targetHashes *compare.HashCache
	destHashes   *compare.HashCache

	formatter output.Formatter
	logger    logging.Logger
	stats     *models.Statistics

	failuresMu sync.Mutex
	failures   []models.RunError
}

// New creates a matcher. Hash caches live as long as the matcher, so one
// matcher should serve exactly one run.
func New(target, dest storage.Backend, digester compare.Digester, config Config, logger logging.Logger) *Matcher {
	if config.PrefixSize < 1 {
		config.PrefixSize = compare.DefaultPrefixSize
	}
	if config.MaxWorkers < 1 {
		config.MaxWorkers = 1
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	m := &Matcher{
		target:       target,
		dest:         dest,
		digester:     digester,
		config:       config,
		targetHashes: compare.NewHashCache(),
		destHashes:   compare.NewHashCache(),
		logger:       logger,
		stats:        &models.Statistics{},
	}
	if config.Verify {
		m.verifier = compare.NewVerifier(config.BufferSize)
	}
	return m
}

// SetFormatter sets the formatter receiving progress updates
func (m *Matcher) SetFormatter(f output.Formatter) {
	m.formatter = f
}

// SetStatistics makes the matcher count into stats
func (m *Matcher) SetStatistics(stats *models.Statistics) {
	m.stats = stats
}

// SetReaderWrapper wraps readers used by the verify stage
func (m *Matcher) SetReaderWrapper(wrapper compare.ReaderWrapper) {
	if m.verifier != nil {
		m.verifier.SetReaderWrapper(wrapper)
	}
}

// Failures returns the pairs that could not be compared
func (m *Matcher) Failures() []models.RunError {
	m.failuresMu.Lock()
	defer m.failuresMu.Unlock()
	return append([]models.RunError(nil), m.failures...)
}

// Find returns one match per destination file that has an identical target.
// Matches are ordered like the destination catalog. On cancellation it
// returns the matches found so far together with the context error.
func (m *Matcher) Find(ctx context.Context, targets, dests *catalog.Catalog) (models.MatchSet, error) {
	bySize := targets.BySize()
	entries := dests.Entries()
	results := make([]*models.FileMatch, len(entries))

	m.logger.Info(ctx, "Matching files", logging.Fields{
		"target_files":      targets.Len(),
		"destination_files": len(entries),
		"workers":           m.config.MaxWorkers,
		"digest":            m.digester.Name(),
	})
	m.notify(output.ProgressUpdate{Type: output.UpdateMatchStart, Total: len(entries)})

	jobs := make(chan int)
	var wg sync.WaitGroup
	var doneMu sync.Mutex
	done := 0

	for w := 0; w < m.config.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				d := entries[i]
				match := m.matchOne(ctx, d, bySize[d.Size])
				results[i] = match

				doneMu.Lock()
				done++
				update := output.ProgressUpdate{
					Type:     output.UpdateFileMatched,
					Side:     models.SideDestination,
					FilePath: d.RelativePath,
					Current:  done,
					Total:    len(entries),
					Matched:  match != nil,
				}
				if match != nil {
					update.TargetPath = match.TargetPath
				}
				m.notify(update)
				doneMu.Unlock()
			}
		}()
	}

feed:
	for i := range entries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var matches models.MatchSet
	for _, r := range results {
		if r != nil {
			matches = append(matches, *r)
		}
	}

	m.logger.Info(ctx, "Matching complete", logging.Fields{
		"matches":           len(matches),
		"pairs_compared":    m.stats.PairsCompared.Load(),
		"prefix_rejections": m.stats.PrefixRejections.Load(),
		"hash_rejections":   m.stats.HashRejections.Load(),
		"failed":            m.stats.ComparisonsFailed.Load(),
	})

	if err := ctx.Err(); err != nil {
		return matches, err
	}
	return matches, nil
}

// matchOne searches candidates (same-size targets) for the first one
// identical to d
func (m *Matcher) matchOne(ctx context.Context, d models.FileEntry, candidates []models.FileEntry) *models.FileMatch {
	if len(candidates) == 0 {
		return nil
	}

	destPrefix, err := compare.ReadPrefix(ctx, m.dest, d.Path, d.Size, m.config.PrefixSize)
	if err != nil {
		m.fail(ctx, d, nil, "prefix read", err)
		return nil
	}

	for _, t := range candidates {
		if ctx.Err() != nil {
			return nil
		}
		if t.Path == d.Path {
			// overlapping trees; a file never links to itself
			continue
		}
		m.stats.PairsCompared.Add(1)

		equal, err := m.comparePair(ctx, t, d, destPrefix)
		if err != nil {
			m.fail(ctx, d, &t, "compare", err)
			continue
		}
		if !equal {
			continue
		}

		m.stats.MatchesFound.Add(1)
		m.logger.Debug(ctx, "Match found", logging.Fields{
			"target": t.Path,
			"link":   d.Path,
			"size":   d.Size,
		})
		return &models.FileMatch{
			TargetPath:       t.Path,
			LinkPath:         d.Path,
			LinkRelativePath: d.RelativePath,
			Size:             d.Size,
		}
	}

	return nil
}

// comparePair runs the prefix and digest stages for one same-size pair
func (m *Matcher) comparePair(ctx context.Context, t, d models.FileEntry, destPrefix []byte) (bool, error) {
	targetPrefix, err := compare.ReadPrefix(ctx, m.target, t.Path, t.Size, m.config.PrefixSize)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(targetPrefix, destPrefix) {
		m.stats.PrefixRejections.Add(1)
		return false, nil
	}

	targetSum, err := m.digest(ctx, m.targetHashes, m.target, t)
	if err != nil {
		return false, err
	}
	destSum, err := m.digest(ctx, m.destHashes, m.dest, d)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(targetSum, destSum) {
		m.stats.HashRejections.Add(1)
		return false, nil
	}

	if m.verifier == nil {
		return true, nil
	}

	equal, offset, err := m.verifier.Equal(ctx, m.target, t.Path, m.dest, d.Path)
	if err != nil {
		return false, err
	}
	if !equal {
		m.stats.HashRejections.Add(1)
		m.logger.Warn(ctx, "Digests agree but contents differ", logging.Fields{
			"target": t.Path,
			"link":   d.Path,
			"offset": offset,
		})
	}
	return equal, nil
}

func (m *Matcher) digest(ctx context.Context, cache *compare.HashCache, backend storage.Backend, e models.FileEntry) ([]byte, error) {
	sum, computed, err := cache.GetOrCompute(e.Path, func() ([]byte, error) {
		return m.digester.Digest(ctx, backend, e.Path)
	})
	if computed && err == nil {
		m.stats.HashesComputed.Add(1)
		m.stats.BytesHashed.Add(int64(e.Size))
	}
	return sum, err
}

func (m *Matcher) fail(ctx context.Context, d models.FileEntry, t *models.FileEntry, stage string, cause error) {
	if ctx.Err() != nil {
		return
	}

	err := errors.Wrapf(cause, errors.ErrComparisonFailed, "%s failed for %s", stage, d.Path).
		WithDetail("link_path", d.Path)
	fields := logging.Fields{"link": d.Path, "stage": stage}
	if t != nil {
		err.WithDetail("target_path", t.Path)
		fields["target"] = t.Path
	}

	m.stats.ComparisonsFailed.Add(1)
	m.logger.Error(ctx, "Comparison failed", err, fields)

	m.failuresMu.Lock()
	m.failures = append(m.failures, models.RunError{
		FilePath:  d.Path,
		Phase:     "match",
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
	m.failuresMu.Unlock()

	m.notify(output.ProgressUpdate{
		Type:       output.UpdateCompareError,
		Side:       models.SideDestination,
		FilePath:   d.RelativePath,
		TargetPath: targetPath(t),
		Error:      err,
	})
}

func (m *Matcher) notify(update output.ProgressUpdate) {
	if m.formatter != nil {
		m.formatter.Progress(update)
	}
}

func targetPath(t *models.FileEntry) string {
	if t == nil {
		return ""
	}
	return t.Path
}

