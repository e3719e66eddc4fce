package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dirlink/pkg/compare"
	"github.com/sdejongh/dirlink/pkg/config"
	"github.com/sdejongh/dirlink/pkg/models"
)

// Build information, set by main from ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the dirlink build, the Go runtime it was built with, the
supported digests and where the configuration file is looked up.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, Version)
				return
			}

			fmt.Fprintf(w, "dirlink %s\n", Version)
			fmt.Fprintf(w, "  Commit:     %s\n", Commit)
			fmt.Fprintf(w, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "  Digests:    %s (default), %s\n", models.HashSHA256, models.HashSHA512)
			fmt.Fprintf(w, "  Prefix:     %d bytes\n", compare.DefaultPrefixSize)
			fmt.Fprintf(w, "  Config:     %s\n", config.DefaultConfigPath())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}
