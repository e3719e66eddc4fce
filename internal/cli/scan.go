package cli

import (
	"github.com/spf13/cobra"
)

var scanFlags RunFlags

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find duplicates without linking (dry-run)",
		Long: `Catalog and compare the target and destination directories and list
the destination files that would be replaced by symlinks, without touching
either tree. This is equivalent to dirlink --dry-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Force dry-run mode for scan command
			scanFlags.DryRun = true
			return runDedup(cmd, &scanFlags)
		},
	}

	addRunFlags(cmd, &scanFlags, false)

	return cmd
}
