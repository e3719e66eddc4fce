package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/sdejongh/dirlink/internal/platform"
	"github.com/sdejongh/dirlink/pkg/catalog"
	"github.com/sdejongh/dirlink/pkg/config"
	"github.com/sdejongh/dirlink/pkg/errors"
	"github.com/sdejongh/dirlink/pkg/models"
)

// UsageHint is printed after every command-line validation error
const UsageHint = "Try `dirlink --help' for more information."

// validatePaths checks the target and destination directories
func validatePaths(target, destination string) error {
	if target == "" {
		return usageError("target", "Missing target path.")
	}
	if !isDir(target) {
		return usageError("target", "Target path does not exist or is invalid.")
	}

	if destination == "" {
		return usageError("destination", "Missing symlink destination path.")
	}
	if !isDir(destination) {
		return usageError("destination", "Symlink destination path does not exist or is invalid.")
	}

	// compare real locations so a symlinked spelling of the same tree is caught
	target = platform.ResolvePath(target)
	destination = platform.ResolvePath(destination)

	if platform.SamePath(target, destination) {
		return usageError("destination", "Target path and destination path cannot be the same.")
	}
	if platform.IsWithin(target, destination) {
		return usageError("destination", "Destination path cannot be inside the target path.")
	}
	if platform.IsWithin(destination, target) {
		return usageError("target", "Target path cannot be inside the destination path.")
	}

	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func usageError(flag, msg string) error {
	return errors.New(errors.ErrValidation, msg).WithDetail("flag", flag)
}

// parseBandwidth parses a human size such as "10M" into bytes per second
func parseBandwidth(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrValidation, "invalid bandwidth limit %q", s)
	}
	if n > uint64(1<<62) {
		return 0, errors.New(errors.ErrValidation, fmt.Sprintf("bandwidth limit too large: %s", s))
	}
	return int64(n), nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config, flags *RunFlags) error {
	if flags.Hash != "" {
		cfg.Match.HashAlgorithm = models.HashAlgorithm(flags.Hash)
	}
	if flags.Verify {
		cfg.Match.Verify = true
	}
	if flags.NoTrash {
		cfg.Link.Trash = false
	}

	// Parallel workers (default: 5)
	if flags.Parallel > 0 {
		cfg.Performance.MaxWorkers = flags.Parallel
	} else if cfg.Performance.MaxWorkers == 0 {
		cfg.Performance.MaxWorkers = 5
	}

	if flags.Bandwidth != "" {
		limit, err := parseBandwidth(flags.Bandwidth)
		if err != nil {
			return err
		}
		cfg.Performance.BandwidthLimit = limit
	}

	if len(flags.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, flags.Exclude...)
	}

	if flags.Output != "" {
		cfg.Output.Format = flags.Output
	}

	if flags.LogFile != "" {
		cfg.Logging.File = flags.LogFile
	}
	if flags.LogFormat != "" {
		cfg.Logging.Format = flags.LogFormat
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
	}

	return cfg.Validate()
}

// createOperation creates a dedup operation from configuration
func createOperation(cfg *config.Config, flags *RunFlags) (*models.Operation, error) {
	search := catalog.SplitPatterns(flags.SearchPattern)
	if err := catalog.ValidatePatterns(search); err != nil {
		return nil, err
	}

	operation := &models.Operation{
		ID:              uuid.New().String(),
		TargetPath:      platform.NormalizePath(flags.Target),
		DestinationPath: platform.NormalizePath(flags.Destination),
		SearchPatterns:  search,
		ExcludePatterns: cfg.Exclude,
		HashAlgorithm:   cfg.Match.HashAlgorithm,
		PrefixSize:      cfg.Match.PrefixSize,
		Verify:          cfg.Match.Verify,
		DryRun:          flags.DryRun,
		UseTrash:        cfg.Link.Trash,
		TempSuffix:      cfg.Link.TempSuffix,
		MaxWorkers:      cfg.Performance.MaxWorkers,
		BandwidthLimit:  cfg.Performance.BandwidthLimit,
		BufferSize:      cfg.Performance.BufferSize,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "invalid operation")
	}

	return operation, nil
}
