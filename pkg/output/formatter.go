package output

import (
	"io"

	"github.com/sdejongh/dirlink/pkg/models"
)

// UpdateType identifies a progress notification
type UpdateType string

const (
	// UpdateCatalogComplete is sent once per tree after enumeration
	UpdateCatalogComplete UpdateType = "catalog_complete"
	// UpdateMatchStart is sent before the matcher starts; Total is the destination file count
	UpdateMatchStart UpdateType = "match_start"
	// UpdateFileMatched is sent when a destination file has been processed
	UpdateFileMatched UpdateType = "file_matched"
	// UpdateHashProgress reports bytes read while hashing one file
	UpdateHashProgress UpdateType = "hash_progress"
	// UpdateCompareError reports a pair that could not be compared
	UpdateCompareError UpdateType = "compare_error"
	// UpdateLinkStart is sent before replacing matches; Total is the match count
	UpdateLinkStart UpdateType = "link_start"
	// UpdateLinkComplete reports one successful replacement
	UpdateLinkComplete UpdateType = "link_complete"
	// UpdateLinkError reports one failed replacement
	UpdateLinkError UpdateType = "link_error"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type       UpdateType
	Side       models.Side
	FilePath   string
	TargetPath string // set when the update concerns a match
	BytesDone  int64
	TotalBytes int64
	Current    int
	Total      int
	Matched    bool
	Error      error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer, op *models.Operation) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the summary
	Complete(report *models.RunReport) error

	// Error reports a run-level error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}
