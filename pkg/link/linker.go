package link

import (
	"context"
	"sync"
	"time"

	"github.com/sdejongh/dirlink/pkg/logging"
	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/output"
)

// Linker applies a MatchSet through a bounded pool of replacers
type Linker struct {
	replacer   *Replacer
	maxWorkers int
	semaphore  chan struct{}
	formatter  output.Formatter
	logger     logging.Logger
	stats      *models.Statistics
}

// NewLinker creates a linker running at most maxWorkers replacements at once
func NewLinker(replacer *Replacer, maxWorkers int, logger logging.Logger) *Linker {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Linker{
		replacer:   replacer,
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		logger:     logger,
		stats:      &models.Statistics{},
	}
}

// SetFormatter sets the formatter receiving progress updates
func (l *Linker) SetFormatter(f output.Formatter) {
	l.formatter = f
}

// SetStatistics makes the linker count into stats
func (l *Linker) SetStatistics(stats *models.Statistics) {
	l.stats = stats
}

// Apply replaces every match and returns one result per match, in order.
// A failed replacement never stops the others. Cancellation is checked only
// between replacements; matches not started are reported as skipped.
func (l *Linker) Apply(ctx context.Context, matches models.MatchSet) []models.LinkResult {
	results := make([]models.LinkResult, len(matches))
	for i, m := range matches {
		results[i] = models.LinkResult{Match: m, Status: models.LinkPending}
	}

	l.notify(output.ProgressUpdate{
		Type:       output.UpdateLinkStart,
		Total:      len(matches),
		TotalBytes: int64(matches.TotalBytes()),
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i := range matches {
		acquired := false
		select {
		case <-ctx.Done():
		case l.semaphore <- struct{}{}:
			acquired = true
		}
		if ctx.Err() != nil {
			if acquired {
				<-l.semaphore
			}
			for j := i; j < len(matches); j++ {
				results[j].Status = models.LinkSkipped
			}
			break
		}

		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer func() { <-l.semaphore }()

			match := matches[index]
			start := time.Now()
			// the protocol must finish (or roll back) once started
			status, err := l.replacer.Replace(context.WithoutCancel(ctx), match)

			mu.Lock()
			defer mu.Unlock()

			results[index].Status = status
			results[index].Error = err
			results[index].Duration = time.Since(start)
			completed++

			update := output.ProgressUpdate{
				FilePath:   match.LinkRelativePath,
				TargetPath: match.TargetPath,
				TotalBytes: int64(match.Size),
				Current:    completed,
				Total:      len(matches),
			}

			if err != nil {
				l.stats.LinksFailed.Add(1)
				l.logger.Error(ctx, "Link replacement failed", err, logging.Fields{
					"link":   match.LinkPath,
					"target": match.TargetPath,
					"status": string(status),
				})
				update.Type = output.UpdateLinkError
				update.Error = err
			} else {
				l.stats.LinksCreated.Add(1)
				l.stats.BytesReclaimed.Add(int64(match.Size))
				l.logger.Debug(ctx, "Linked", logging.Fields{
					"link":   match.LinkPath,
					"target": match.TargetPath,
				})
				update.Type = output.UpdateLinkComplete
				update.BytesDone = int64(match.Size)
			}
			l.notify(update)
		}(i)
	}

	wg.Wait()
	return results
}

func (l *Linker) notify(update output.ProgressUpdate) {
	if l.formatter != nil {
		l.formatter.Progress(update)
	}
}
