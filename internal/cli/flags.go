package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $XDG_CONFIG_HOME/dirlink/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (debug logs on stderr when no log file is set)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// RunFlags holds the flags of the link and scan commands
type RunFlags struct {
	Target        string
	Destination   string
	SearchPattern string
	DryRun        bool
	Exclude       []string
	Verify        bool
	NoTrash       bool
	Hash          string
	Parallel      int
	Bandwidth     string
	Output        string
	MatchReport   string
	MatchFormat   string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

// addRunFlags registers the flags shared by the root and scan commands
func addRunFlags(cmd *cobra.Command, flags *RunFlags, withDryRun bool) {
	cmd.Flags().StringVarP(&flags.Target, "target", "t", "", "directory whose files become link targets (required)")
	cmd.Flags().StringVarP(&flags.Destination, "destination", "d", "", "directory whose duplicates are replaced by symlinks (required)")
	cmd.Flags().StringVarP(&flags.SearchPattern, "searchPattern", "s", "", "file name patterns to consider, separated by | (e.g. \"*.jpg|*.png\")")

	if withDryRun {
		cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "find matches only, don't create links")
	}
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().BoolVar(&flags.Verify, "verify", false, "compare matching files byte by byte after their digests agree")
	cmd.Flags().BoolVar(&flags.NoTrash, "no-trash", false, "delete replaced files instead of moving them to the trash")
	cmd.Flags().StringVar(&flags.Hash, "hash", "", "digest algorithm: sha256, sha512")
	cmd.Flags().IntVarP(&flags.Parallel, "parallel", "p", 0, "number of parallel workers (default: 5)")
	cmd.Flags().StringVarP(&flags.Bandwidth, "bandwidth", "b", "", "read bandwidth limit for hashing (e.g., \"10M\", \"1G\")")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().StringVar(&flags.MatchReport, "match-report", "", "write the list of matches to file")
	cmd.Flags().StringVar(&flags.MatchFormat, "match-format", "human", "match report format: human, json")

	// Logging flags
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}
