package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/searchwire"
)

// HistoryCommand returns the history command with subcommands.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect archived search sessions",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List archived sessions, newest first",
				Flags:  commonFlags(),
				Action: historyListAction,
			},
			{
				Name:      "show",
				Usage:     "Show one archived session with its pipeline trace",
				ArgsUsage: "<request-id>",
				Flags:     commonFlags(),
				Action:    historyShowAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete one archived session",
				ArgsUsage: "<request-id>",
				Flags:     commonFlags(),
				Action:    historyDeleteAction,
			},
		},
	}
}

func historyListAction(c *cli.Context) error {
	client, err := historyClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.History().List(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("history: %v", err), 1)
	}
	if len(entries) == 0 {
		fmt.Println("No archived sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REQUEST ID\tFINISHED\tPHASE\tCOLLECTION\tQUERY")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.RequestID,
			e.FinishedAt.Local().Format(time.RFC3339),
			e.Phase,
			e.Collection,
			e.Query,
		)
	}
	return w.Flush()
}

func historyShowAction(c *cli.Context) error {
	requestID := c.Args().First()
	if requestID == "" {
		return cli.Exit("history show: request id is required", 1)
	}

	client, err := historyClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	entry, rows, err := client.History().Get(c.Context, requestID)
	if err != nil {
		return cli.Exit(fmt.Sprintf("history: %v", err), 1)
	}

	fmt.Printf("Request:    %s\n", entry.RequestID)
	fmt.Printf("Collection: %s\n", entry.Collection)
	fmt.Printf("Query:      %s\n", entry.Query)
	fmt.Printf("Phase:      %s\n", entry.Phase)
	fmt.Printf("Finished:   %s\n", entry.FinishedAt.Local().Format(time.RFC3339))
	if entry.ErrMessage != "" {
		fmt.Printf("Error:      %s\n", entry.ErrMessage)
	}
	if entry.Answer != "" {
		fmt.Printf("\n%s\n", entry.Answer)
	}
	fmt.Printf("\n%s\n", formatRows(rows))
	return nil
}

func historyDeleteAction(c *cli.Context) error {
	requestID := c.Args().First()
	if requestID == "" {
		return cli.Exit("history delete: request id is required", 1)
	}

	client, err := historyClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.History().Delete(c.Context, requestID); err != nil {
		return cli.Exit(fmt.Sprintf("history: %v", err), 1)
	}
	fmt.Printf("Deleted session %s.\n", requestID)
	return nil
}

// historyClient builds a client and fails early when no archive is
// configured, so the subcommands share one error message.
func historyClient(c *cli.Context) (*searchwire.Client, error) {
	cfg := loadConfig(c)
	if !cfg.History.Enabled() {
		return nil, cli.Exit("history: no archive configured, set history.addrs in the config", 1)
	}
	log, err := newLogger(cfg, c.Bool("verbose"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	client, err := newClient(cfg, log)
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	return client, nil
}

// formatRows renders trace rows as plain text, indenting nested kinds.
func formatRows(rows []searchwire.TraceRow) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch r.Kind {
		case searchwire.RowHeader, searchwire.RowStatus, searchwire.RowError, searchwire.RowSeparator:
			b.WriteString(r.Text)
		default:
			b.WriteString("  ")
			b.WriteString(r.Text)
		}
	}
	return b.String()
}
