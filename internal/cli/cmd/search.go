package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/searchwire"
	"github.com/kailas-cloud/searchwire/internal/cli/tui"
	"github.com/kailas-cloud/searchwire/internal/config"
)

// SearchCommand returns the search command.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run a streaming search and follow its pipeline",
		ArgsUsage: "<query>",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:  "method",
				Usage: "Search method: hybrid, neural, keyword",
			},
			&cli.StringFlag{
				Name:  "expansion",
				Usage: "Query expansion strategy: auto, no_expansion",
			},
			&cli.BoolFlag{
				Name:  "interpret",
				Usage: "Enable query interpretation",
			},
			&cli.Float64Flag{
				Name:  "recency",
				Usage: "Recency bias weight (0..1)",
			},
			&cli.BoolFlag{
				Name:  "rerank",
				Usage: "Enable result reranking",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Raw results only, no generated answer",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Exact-match pre-filter, key=value (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Print the full pipeline trace after a plain-mode search",
			},
			plainFlag,
		),
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return cli.Exit("search: query is required", 1)
	}

	cfg := loadConfig(c)
	log, err := newLogger(cfg, c.Bool("verbose"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() { _ = log.Sync() }()

	client, err := newClient(cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer client.Close()

	opts, err := searchOptions(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := client.Search(ctx, cfg.API.Collection, query, opts)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if useTUI(c) {
		return tui.Run(s, cfg.API.Collection, query)
	}
	return plainSearch(ctx, c, s)
}

// useTUI picks the interactive console when stdout is a terminal.
func useTUI(c *cli.Context) bool {
	if c.Bool("plain") {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// plainSearch streams the answer to stdout as it grows, then prints the
// results and, with --trace, the reconstructed pipeline log.
func plainSearch(ctx context.Context, c *cli.Context, s *searchwire.Search) error {
	go func() {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-s.Done():
		}
	}()

	var printed int
	for snap := range s.Updates() {
		if len(snap.Answer) > printed {
			fmt.Print(snap.Answer[printed:])
			printed = len(snap.Answer)
		}
	}
	if printed > 0 {
		fmt.Println()
	}

	snap := s.Snapshot()
	if len(snap.Results) > 0 {
		fmt.Println()
		for i, r := range snap.Results {
			fmt.Printf("%d. %s (score %.2f)\n", i+1, resultTitle(r), r.Score)
		}
	}
	if c.Bool("trace") {
		fmt.Println()
		fmt.Println(s.TraceText())
	}

	if err := s.Err(); err != nil {
		return cli.Exit(fmt.Sprintf("search: %v", err), 1)
	}
	if snap.Phase == searchwire.PhaseError {
		msg := snap.ErrMessage
		if snap.ErrOp != "" {
			msg = fmt.Sprintf("%s: %s", snap.ErrOp, msg)
		}
		return cli.Exit(fmt.Sprintf("search: %s", msg), 1)
	}
	return nil
}

func resultTitle(r searchwire.Result) string {
	if r.Title != "" {
		return r.Title
	}
	if r.Source != "" {
		return r.Source
	}
	return r.ID
}

// searchOptions merges config defaults with per-invocation flags.
func searchOptions(c *cli.Context, cfg config.Config) (*searchwire.SearchOptions, error) {
	opts := &searchwire.SearchOptions{
		Method:         cfg.Search.Method,
		Expansion:      cfg.Search.Expansion,
		Interpretation: cfg.Search.Interpretation,
		RecencyBias:    cfg.Search.RecencyBias,
		Reranking:      cfg.Search.Reranking,
		ResponseType:   cfg.Search.ResponseType,
		Limit:          cfg.Search.Limit,
	}
	if v := c.String("method"); v != "" {
		opts.Method = v
	}
	if v := c.String("expansion"); v != "" {
		opts.Expansion = v
	}
	if c.IsSet("interpret") {
		opts.Interpretation = c.Bool("interpret")
	}
	if c.IsSet("recency") {
		opts.RecencyBias = c.Float64("recency")
	}
	if c.IsSet("rerank") {
		opts.Reranking = c.Bool("rerank")
	}
	if c.Bool("raw") {
		opts.ResponseType = searchwire.ResponseRaw
	}
	if v := c.Int("limit"); v > 0 {
		opts.Limit = v
	}

	f, err := parseFilters(c.StringSlice("filter"))
	if err != nil {
		return nil, err
	}
	opts.Filter = f
	return opts, nil
}

// parseFilters turns repeated key=value flags into a must-match filter.
func parseFilters(pairs []string) (*searchwire.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	f := &searchwire.Filter{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("search: invalid --filter %q, want key=value", p)
		}
		f.Must = append(f.Must, searchwire.Condition{Key: key, Match: value})
	}
	return f, nil
}
