package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchwire"
	"github.com/kailas-cloud/searchwire/internal/config"
	"github.com/kailas-cloud/searchwire/internal/logger"
)

// loadConfig reads the environment config and applies flag overrides.
// A missing config file is fine for the console: the built-in defaults
// point at the local replay server.
func loadConfig(c *cli.Context) config.Config {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		cfg = config.Default()
	}
	if v := c.String("base-url"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := c.String("api-key"); v != "" {
		cfg.API.APIKey = v
	}
	if v := c.String("collection"); v != "" {
		cfg.API.Collection = v
	}
	return cfg
}

// newLogger builds the command logger. Interactive commands pass
// verbose=false and get a silent logger so stderr stays clean.
func newLogger(cfg config.Config, verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	l, err := logger.NewLogger(config.GetEnv(), cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// newClient builds a searchwire client from config.
func newClient(cfg config.Config, log *zap.Logger) (*searchwire.Client, error) {
	opts := []searchwire.Option{searchwire.WithLogger(log)}
	if cfg.API.APIKey != "" {
		opts = append(opts, searchwire.WithAPIKey(cfg.API.APIKey))
	}
	// Zero disables the idle watchdog, so the value is always forwarded.
	opts = append(opts, searchwire.WithIdleTimeout(time.Duration(cfg.Stream.IdleTimeoutSec)*time.Second))
	if cfg.History.Enabled() {
		opts = append(opts,
			searchwire.WithHistory(cfg.History.Addrs, cfg.History.Password),
			searchwire.WithHistoryTTL(time.Duration(cfg.History.TTLHours)*time.Hour),
			searchwire.WithHistoryKeyPrefix(cfg.History.KeyPrefix),
		)
	}
	return searchwire.New(cfg.API.BaseURL, opts...)
}
