package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdejongh/dirlink/internal/cli"
	"github.com/sdejongh/dirlink/pkg/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *cli.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code()
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.IsErrorCode(err, errors.ErrValidation) {
		fmt.Fprintln(os.Stderr, cli.UsageHint)
	}
	return 2
}
