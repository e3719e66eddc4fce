package models

import (
	"sync/atomic"
	"time"
)

// RunReport represents the results of a dedup run
type RunReport struct {
	OperationID     string
	TargetPath      string
	DestinationPath string
	DryRun          bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Stats Statistics

	// Matches found by the matcher
	Matches MatchSet

	// Links holds the per-match outcome, in the same order as Matches
	Links []LinkResult

	Errors []RunError

	Status RunStatus
}

// LinkResult is the outcome of replacing one match
type LinkResult struct {
	Match    FileMatch
	Status   LinkStatus
	Error    error
	Duration time.Duration
}

// Statistics holds run metrics. Counters are updated concurrently by workers.
type Statistics struct {
	TargetFilesFound      atomic.Int32
	DestinationFilesFound atomic.Int32
	FilesSkipped          atomic.Int32 // unreadable or excluded during cataloging

	PairsCompared     atomic.Int64 // pairs that passed the size filter
	PrefixRejections  atomic.Int64
	HashRejections    atomic.Int64
	ComparisonsFailed atomic.Int64
	HashesComputed    atomic.Int64

	MatchesFound atomic.Int32
	LinksCreated atomic.Int32
	LinksFailed  atomic.Int32

	BytesHashed    atomic.Int64
	BytesReclaimed atomic.Int64
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some link replacements failed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run failed
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was cancelled
	StatusCancelled RunStatus = "cancelled"
)

// RunError represents a per-item error reported at the end of a run
type RunError struct {
	FilePath  string
	Phase     string // "catalog", "match" or "link"
	Error     string
	Timestamp time.Time
}

// ExitCode returns the appropriate exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
