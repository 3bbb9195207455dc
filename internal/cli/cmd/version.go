package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/searchwire/internal/version"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(*cli.Context) error {
			fmt.Printf("searchwire %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
			return nil
		},
	}
}
