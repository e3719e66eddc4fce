package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/dirlink/internal/platform"
	"github.com/sdejongh/dirlink/pkg/models"
)

// HumanFormatter prints phase messages, one line per link and a summary
type HumanFormatter struct {
	mu        sync.Mutex
	writer    io.Writer
	dryRun    bool
	announced bool // match count printed
	matches   int
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, op *models.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.dryRun = op != nil && op.DryRun

	fmt.Fprintln(f.writer, "Starting...")
	fmt.Fprintln(f.writer, "Finding files in target directory...")
	return nil
}

// Progress reports progress during the run
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdateCatalogComplete:
		fmt.Fprintf(f.writer, "%d files found in %s directory (%s).\n",
			update.Total, update.Side, humanize.IBytes(uint64(update.TotalBytes)))
		if update.Side == models.SideTarget {
			fmt.Fprintln(f.writer, "Finding files in destination directory...")
		}

	case UpdateMatchStart:
		fmt.Fprintln(f.writer, "Finding matching files. This can take some time...")

	case UpdateFileMatched:
		if update.Matched {
			f.matches++
		}

	case UpdateCompareError:
		fmt.Fprintf(f.writer, "Cannot compare %s: %v\n", update.FilePath, update.Error)

	case UpdateLinkStart:
		f.announce()
		if update.Total > 0 {
			fmt.Fprintln(f.writer, "Making symbolic links...")
		}

	case UpdateLinkComplete:
		fmt.Fprintf(f.writer, "Linking %s\n", platform.ShortenPath(update.TargetPath))

	case UpdateLinkError:
		fmt.Fprintf(f.writer, "Failed to link %s: %v\n", update.FilePath, update.Error)
	}

	return nil
}

// announce prints the match count once (lock held)
func (f *HumanFormatter) announce() {
	if f.announced {
		return
	}
	f.announced = true
	fmt.Fprintf(f.writer, "%d matching files found.\n", f.matches)
}

// Complete prints the summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}
	if report.Status != models.StatusFailed {
		f.matches = len(report.Matches)
		f.announce()
	}

	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the run statistics and error list
func writeSummary(w io.Writer, report *models.RunReport) {
	stats := &report.Stats

	fmt.Fprintln(w)
	if report.DryRun {
		fmt.Fprintf(w, "Dry run completed in %s, destination left untouched\n", report.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Done in %s\n", report.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Files:\n")
	fmt.Fprintf(w, "    Target:         %d\n", stats.TargetFilesFound.Load())
	fmt.Fprintf(w, "    Destination:    %d\n", stats.DestinationFilesFound.Load())
	fmt.Fprintf(w, "    Skipped:        %d\n", stats.FilesSkipped.Load())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Matching:\n")
	fmt.Fprintf(w, "    Pairs compared: %d\n", stats.PairsCompared.Load())
	fmt.Fprintf(w, "    Matches:        %d\n", len(report.Matches))
	fmt.Fprintf(w, "    Failed:         %d\n", stats.ComparisonsFailed.Load())
	fmt.Fprintf(w, "    Data hashed:    %s\n", humanize.IBytes(uint64(stats.BytesHashed.Load())))
	if !report.DryRun {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Links:\n")
		fmt.Fprintf(w, "    Created:        %d\n", stats.LinksCreated.Load())
		fmt.Fprintf(w, "    Failed:         %d\n", stats.LinksFailed.Load())
		fmt.Fprintf(w, "    Reclaimed:      %s\n", humanize.IBytes(uint64(stats.BytesReclaimed.Load())))
	} else {
		fmt.Fprintf(w, "    Reclaimable:    %s\n", humanize.IBytes(report.Matches.TotalBytes()))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  [%s] %s: %s\n", e.Phase, e.FilePath, e.Error)
		}
	}
}
