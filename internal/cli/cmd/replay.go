package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/searchwire/internal/config"
	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/logger"
	"github.com/kailas-cloud/searchwire/internal/replay"
	"github.com/kailas-cloud/searchwire/internal/repository/history"
)

// ReplayCommand returns the replay server command.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Serve recorded search streams over SSE for local development",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
			&cli.StringFlag{
				Name:  "fixture",
				Usage: "NDJSON event fixture to replay instead of the built-in script",
			},
			&cli.BoolFlag{
				Name:  "archive",
				Usage: "Replay archived sessions, query is the request id",
			},
			&cli.IntFlag{
				Name:  "delay",
				Usage: "Per-event delay in milliseconds",
			},
			&cli.StringSliceFlag{
				Name:  "key",
				Usage: "Accepted bearer token (repeatable, none = open access)",
			},
		},
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	cfg := loadConfig(c)
	if c.IsSet("port") {
		cfg.Replay.Port = c.Int("port")
	}
	if c.IsSet("delay") {
		cfg.Replay.EventDelayMS = c.Int("delay")
	}
	if c.IsSet("fixture") {
		cfg.Replay.FixturePath = c.String("fixture")
	}
	if keys := c.StringSlice("key"); len(keys) > 0 {
		cfg.Replay.APIKeys = keys
	}

	// A server always logs.
	log, err := logger.NewLogger(config.GetEnv(), cfg.Logging.Level)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() { _ = log.Sync() }()

	source, cleanup, err := replaySource(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := replay.NewServer(source, replay.Config{
		Port:           cfg.Replay.Port,
		ReadTimeoutSec: cfg.Replay.ReadTimeoutSec,
		ShutdownSec:    cfg.Replay.ShutdownSec,
		APIKeys:        cfg.Replay.APIKeys,
		HeartbeatSec:   cfg.Replay.HeartbeatSec,
		EventDelayMS:   cfg.Replay.EventDelayMS,
	}, log)

	if err := srv.Run(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("replay: %v", err), 1)
	}
	return nil
}

// replaySource picks the event source: archived sessions, an NDJSON
// fixture, or the built-in scripted run.
func replaySource(c *cli.Context, cfg config.Config) (replay.Source, func(), error) {
	noop := func() {}

	if c.Bool("archive") {
		if !cfg.History.Enabled() {
			return nil, noop, fmt.Errorf("replay: --archive needs history.addrs in the config")
		}
		store, err := history.NewStore(history.Config{
			Addrs:    cfg.History.Addrs,
			Password: cfg.History.Password,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("replay: history store: %w", err)
		}
		repo := history.New(store, cfg.History.KeyPrefix, time.Duration(cfg.History.TTLHours)*time.Hour)
		return replay.NewArchiveSource(archiveEvents{repo: repo}), store.Close, nil
	}

	if cfg.Replay.FixturePath != "" {
		src, err := replay.LoadFixture(cfg.Replay.FixturePath)
		if err != nil {
			return nil, noop, fmt.Errorf("replay: %w", err)
		}
		return src, noop, nil
	}

	return replay.ScriptSource{}, noop, nil
}

// archiveEvents adapts the history repository to the replay source shape.
type archiveEvents struct {
	repo *history.Repo
}

func (a archiveEvents) EventsFor(requestID string) ([]event.Event, error) {
	arch, err := a.repo.Get(context.Background(), requestID)
	if err != nil {
		return nil, err
	}
	return arch.Events, nil
}
