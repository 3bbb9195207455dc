package searchwire

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey      string
	httpClient  *http.Client
	logger      *zap.Logger
	idleTimeout time.Duration

	historyAddrs    []string
	historyPassword string
	historyPrefix   string
	historyTTL      time.Duration
}

// WithAPIKey sets the bearer token sent with every stream request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient sets a custom HTTP client. It must not carry a
// client-wide timeout: search streams are long-lived.
func WithHTTPClient(httpc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = httpc
	})
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = logger
	})
}

// WithIdleTimeout overrides how long a stream may stay silent before it
// fails. Zero disables the watchdog. Defaults to 120s.
func WithIdleTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.idleTimeout = d
	})
}

// WithHistory enables the session archive on a Redis-compatible store.
// Finished searches are persisted best-effort and expire after the TTL
// (default 72h).
func WithHistory(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyAddrs = addrs
		c.historyPassword = password
	})
}

// WithHistoryTTL overrides the archive retention period.
func WithHistoryTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyTTL = ttl
	})
}

// WithHistoryKeyPrefix overrides the archive key namespace (default "sw:").
func WithHistoryKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyPrefix = prefix
	})
}
