// Package main provides the searchwire console entrypoint.
//
// Usage:
//
//	searchwire <command> [options]
//
// Commands: search, history, replay, version.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/searchwire/internal/cli/cmd"
	"github.com/kailas-cloud/searchwire/internal/version"
)

func main() {
	app := &cli.App{
		Name:           "searchwire",
		Usage:          "Streaming search console",
		Version:        fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.SearchCommand(),
			cmd.HistoryCommand(),
			cmd.ReplayCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors; this branch
		// covers unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() and keeps error
// output on stderr.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		// cli.Exit("", N).Error() returns "exit status N", skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
