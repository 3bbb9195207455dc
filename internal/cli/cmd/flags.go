// Package cmd provides the searchwire console commands.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags.
var (
	baseURLFlag = &cli.StringFlag{
		Name:    "base-url",
		Usage:   "Search backend base URL (overrides config)",
		EnvVars: []string{"SEARCHWIRE_BASE_URL"},
	}
	apiKeyFlag = &cli.StringFlag{
		Name:    "api-key",
		Usage:   "Bearer token for the search backend",
		EnvVars: []string{"SEARCHWIRE_API_KEY"},
	}
	collectionFlag = &cli.StringFlag{
		Name:    "collection",
		Aliases: []string{"c"},
		Usage:   "Collection to search (overrides config)",
	}
	plainFlag = &cli.BoolFlag{
		Name:  "plain",
		Usage: "Plain text output instead of the interactive console",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Log internal activity to stderr",
	}
)

func commonFlags() []cli.Flag {
	return []cli.Flag{baseURLFlag, apiKeyFlag, collectionFlag, verboseFlag}
}
