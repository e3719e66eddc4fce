package models

import (
	"time"
)

// HashAlgorithm selects the full-content digest
type HashAlgorithm string

const (
	// HashSHA256 is the default digest
	HashSHA256 HashAlgorithm = "sha256"
	// HashSHA512 trades speed for a wider digest
	HashSHA512 HashAlgorithm = "sha512"
)

// Operation describes one dedup run
type Operation struct {
	ID              string
	TargetPath      string
	DestinationPath string
	SearchPatterns  []string
	ExcludePatterns []string
	HashAlgorithm   HashAlgorithm
	PrefixSize      int
	Verify          bool  // byte-by-byte check after digests agree
	DryRun          bool  // match only, never touch the destination tree
	UseTrash        bool  // trash replaced files instead of deleting them
	TempSuffix      string
	MaxWorkers      int
	BandwidthLimit  int64 // bytes per second for hash reads, 0 = unlimited
	BufferSize      int
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *Operation) Validate() error {
	if op.TargetPath == "" {
		return &ValidationError{Field: "TargetPath", Message: "target path is required"}
	}
	if op.DestinationPath == "" {
		return &ValidationError{Field: "DestinationPath", Message: "destination path is required"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.PrefixSize < 1 {
		return &ValidationError{Field: "PrefixSize", Message: "prefix size must be positive"}
	}
	if op.TempSuffix == "" {
		return &ValidationError{Field: "TempSuffix", Message: "temp suffix cannot be empty"}
	}
	switch op.HashAlgorithm {
	case HashSHA256, HashSHA512:
	default:
		return &ValidationError{Field: "HashAlgorithm", Message: "unsupported hash algorithm: " + string(op.HashAlgorithm)}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
