package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/dirlink/pkg/models"
)

// JSONFormatter writes a single JSON document for automation and scripting
type JSONFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	events []JSONEvent
}

// JSONEvent represents a notable event recorded during the run
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// JSONCatalogData describes one cataloged tree
type JSONCatalogData struct {
	Side  string `json:"side"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
}

// JSONFileData represents file-related event data
type JSONFileData struct {
	Path   string `json:"path"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JSONReportData represents the final report
type JSONReportData struct {
	OperationID     string          `json:"operation_id"`
	TargetPath      string          `json:"target_path"`
	DestinationPath string          `json:"destination_path"`
	DryRun          bool            `json:"dry_run"`
	Status          string          `json:"status"`
	Duration        string          `json:"duration"`
	DurationMs      int64           `json:"duration_ms"`
	Stats           JSONStatsData   `json:"stats"`
	Matches         []JSONMatchData `json:"matches,omitempty"`
	Errors          []JSONErrorData `json:"errors,omitempty"`
	Events          []JSONEvent     `json:"events,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	TargetFiles       int32  `json:"target_files"`
	DestinationFiles  int32  `json:"destination_files"`
	FilesSkipped      int32  `json:"files_skipped"`
	PairsCompared     int64  `json:"pairs_compared"`
	PrefixRejections  int64  `json:"prefix_rejections"`
	HashRejections    int64  `json:"hash_rejections"`
	ComparisonsFailed int64  `json:"comparisons_failed"`
	HashesComputed    int64  `json:"hashes_computed"`
	BytesHashed       int64  `json:"bytes_hashed"`
	MatchesFound      int32  `json:"matches_found"`
	LinksCreated      int32  `json:"links_created"`
	LinksFailed       int32  `json:"links_failed"`
	BytesReclaimed    int64  `json:"bytes_reclaimed"`
	Reclaimed         string `json:"reclaimed"`
}

// JSONMatchData represents one match and its link outcome
type JSONMatchData struct {
	TargetPath string `json:"target_path"`
	LinkPath   string `json:"link_path"`
	Size       uint64 `json:"size"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path  string `json:"path"`
	Phase string `json:"phase"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		events: make([]JSONEvent, 0),
	}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, op *models.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.record("start", nil)
	return nil
}

// Progress records notable events; per-file progress is not emitted to keep
// the output a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case UpdateCatalogComplete:
		f.record(string(update.Type), JSONCatalogData{
			Side:  string(update.Side),
			Files: update.Total,
			Bytes: update.TotalBytes,
		})
	case UpdateCompareError, UpdateLinkError:
		data := JSONFileData{Path: update.FilePath, Target: update.TargetPath}
		if update.Error != nil {
			data.Error = update.Error.Error()
		}
		f.record(string(update.Type), data)
	}
	return nil
}

// Complete writes the final report
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}
	f.record("complete", nil)

	data := buildJSONReport(report)
	data.Events = f.events

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error records a run-level error
func (f *JSONFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("error", map[string]string{"error": err.Error()})
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// record appends an event (lock held)
func (f *JSONFormatter) record(kind string, data any) {
	f.events = append(f.events, JSONEvent{Timestamp: time.Now(), Type: kind, Data: data})
}

func buildJSONReport(report *models.RunReport) JSONReportData {
	stats := &report.Stats

	data := JSONReportData{
		OperationID:     report.OperationID,
		TargetPath:      report.TargetPath,
		DestinationPath: report.DestinationPath,
		DryRun:          report.DryRun,
		Status:          string(report.Status),
		Duration:        report.Duration.Round(time.Millisecond).String(),
		DurationMs:      report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			TargetFiles:       stats.TargetFilesFound.Load(),
			DestinationFiles:  stats.DestinationFilesFound.Load(),
			FilesSkipped:      stats.FilesSkipped.Load(),
			PairsCompared:     stats.PairsCompared.Load(),
			PrefixRejections:  stats.PrefixRejections.Load(),
			HashRejections:    stats.HashRejections.Load(),
			ComparisonsFailed: stats.ComparisonsFailed.Load(),
			HashesComputed:    stats.HashesComputed.Load(),
			BytesHashed:       stats.BytesHashed.Load(),
			MatchesFound:      stats.MatchesFound.Load(),
			LinksCreated:      stats.LinksCreated.Load(),
			LinksFailed:       stats.LinksFailed.Load(),
			BytesReclaimed:    stats.BytesReclaimed.Load(),
			Reclaimed:         humanize.IBytes(uint64(stats.BytesReclaimed.Load())),
		},
		Matches: matchData(report),
	}

	for _, e := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{Path: e.FilePath, Phase: e.Phase, Error: e.Error})
	}

	return data
}

// matchData pairs every match with its link outcome, if any
func matchData(report *models.RunReport) []JSONMatchData {
	var out []JSONMatchData
	for i, m := range report.Matches {
		d := JSONMatchData{TargetPath: m.TargetPath, LinkPath: m.LinkPath, Size: m.Size}
		if i < len(report.Links) {
			d.Status = string(report.Links[i].Status)
			if report.Links[i].Error != nil {
				d.Error = report.Links[i].Error.Error()
			}
		}
		out = append(out, d)
	}
	return out
}
