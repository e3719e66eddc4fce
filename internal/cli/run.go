package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sdejongh/dirlink/pkg/config"
	"github.com/sdejongh/dirlink/pkg/dedup"
	"github.com/sdejongh/dirlink/pkg/errors"
	"github.com/sdejongh/dirlink/pkg/logging"
	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/output"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// ExitError carries the exit code of a run that finished with a non-success
// status. The report has already been printed.
type ExitError struct {
	Status models.RunStatus
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run finished with status %s", e.Status)
}

// Code returns the process exit code
func (e *ExitError) Code() int {
	return e.Status.ExitCode()
}

var runFlags RunFlags

// NewRootCommand creates the dirlink command. Running it without a
// subcommand replaces duplicates in the destination tree by symlinks.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirlink",
		Short: "Replace duplicate files by symbolic links",
		Long: `dirlink finds files in the destination directory whose content is
identical to a file in the target directory and replaces each of them by a
symbolic link to the target file. Target files are never modified.`,
		Example: `  dirlink -t /photos/originals -d /photos/exports
  dirlink -t /music -d /backup/music -s "*.mp3|*.flac" --dry-run`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedup(cmd, &runFlags)
		},
	}

	AddGlobalFlags(cmd)
	addRunFlags(cmd, &runFlags, true)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errors.Wrap(err, errors.ErrValidation, "invalid flag")
	})

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func runDedup(cmd *cobra.Command, flags *RunFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Validate paths before anything touches the disk
	if err := validatePaths(flags.Target, flags.Destination); err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cfg, flags); err != nil {
		return err
	}

	operation, err := createOperation(cfg, flags)
	if err != nil {
		return err
	}

	// Create storage backends
	target, err := storage.NewLocal(operation.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to create target backend: %w", err)
	}
	defer target.Close()

	dest, err := storage.NewLocal(operation.DestinationPath)
	if err != nil {
		return fmt.Errorf("failed to create destination backend: %w", err)
	}
	defer dest.Close()

	if operation.UseTrash {
		dest.SetTrash(storage.NewHomeTrash())
	}

	stdout := cmd.OutOrStdout()
	formatter := createFormatter(cfg, stdout)

	logger, err := createLogger(cfg.Logging, globalFlags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	engine := dedup.NewEngine(target, dest, formatter, logger, operation)
	if globalFlags.Quiet {
		engine.SetOutput(io.Discard)
	} else {
		engine.SetOutput(stdout)
	}

	report, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("dedup failed: %w", err)
	}

	// Write the match report if requested, or list the matches of a dry run
	switch {
	case flags.MatchReport != "" || cmd.Flags().Changed("match-format"):
		if err := output.WriteMatchReport(report, flags.MatchReport, flags.MatchFormat); err != nil {
			return fmt.Errorf("failed to write match report: %w", err)
		}
	case operation.DryRun && formatter.Name() != "json" && !globalFlags.Quiet && len(report.Matches) > 0:
		fmt.Fprintln(stdout)
		if err := output.FprintMatchReport(stdout, report, "human"); err != nil {
			return fmt.Errorf("failed to write match report: %w", err)
		}
	}

	if report.Status != models.StatusSuccess {
		return &ExitError{Status: report.Status}
	}
	return nil
}

// createFormatter picks the output formatter for the configured format
func createFormatter(cfg *config.Config, w io.Writer) output.Formatter {
	switch cfg.Output.Format {
	case "json":
		return output.NewJSONFormatter()
	default:
		if cfg.Output.Progress && isTerminal(w) {
			return output.NewProgressFormatter()
		}
		return output.NewHumanFormatter()
	}
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig, verbose bool) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	if cfg.File != "" {
		return logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       cfg.File,
			Format:     format,
			Level:      logging.ParseLevel(cfg.Level),
			MaxSize:    10 * 1024 * 1024, // 10 MB
			MaxBackups: 5,
		})
	}

	if verbose {
		return logging.NewConsoleLogger(os.Stderr, logging.DebugLevel, isTerminal(os.Stderr)), nil
	}

	return logging.NewNullLogger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
