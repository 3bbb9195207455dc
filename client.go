package searchwire

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchwire/internal/domain/search/request"
	"github.com/kailas-cloud/searchwire/internal/metrics"
	"github.com/kailas-cloud/searchwire/internal/repository/history"
	"github.com/kailas-cloud/searchwire/internal/transport/stream"
	streamuc "github.com/kailas-cloud/searchwire/internal/usecase/stream"
)

// Defaults applied by New.
const (
	DefaultIdleTimeout = 120 * time.Second
	DefaultHistoryTTL  = 72 * time.Hour

	defaultHistoryPrefix = "sw:"
)

// Client is the searchwire entry point. One client serves one logical
// search session at a time: opening a new search supersedes the previous
// one.
type Client struct {
	svc          *streamuc.Service
	streamClient *stream.Client
	historyRepo  *history.Repo
	historyStore *history.Store
	logger       *zap.Logger
}

// New creates a client for the given search backend base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		idleTimeout:   DefaultIdleTimeout,
		historyPrefix: defaultHistoryPrefix,
		historyTTL:    DefaultHistoryTTL,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.Register()

	streamClient, err := stream.NewClient(stream.Config{
		BaseURL:     baseURL,
		APIKey:      cfg.apiKey,
		HTTPClient:  cfg.httpClient,
		IdleTimeout: cfg.idleTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("searchwire: %w", err)
	}

	c := &Client{streamClient: streamClient, logger: logger}

	var archiver streamuc.Archiver
	if len(cfg.historyAddrs) > 0 {
		store, err := history.NewStore(history.Config{
			Addrs:    cfg.historyAddrs,
			Password: cfg.historyPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("searchwire: history store: %w", err)
		}
		c.historyStore = store
		c.historyRepo = history.New(store, cfg.historyPrefix, cfg.historyTTL)
		archiver = c.historyRepo
	}

	opener := streamuc.OpenerFunc(
		func(ctx context.Context, collection string, req *request.Request) (streamuc.Source, error) {
			return streamClient.Open(ctx, collection, req)
		})
	c.svc = streamuc.New(opener, archiver, logger)
	return c, nil
}

// Close releases client resources. In-flight searches are not cancelled.
func (c *Client) Close() {
	if c.historyStore != nil {
		c.historyStore.Close()
	}
}

// History returns the archived-session API. Calls fail with
// ErrHistoryDisabled when the client was built without WithHistory.
func (c *Client) History() *History {
	return &History{repo: c.historyRepo}
}

// History is the archived-session API of a client.
type History struct {
	repo *history.Repo
}

// List returns archived sessions, newest first.
func (h *History) List(ctx context.Context) ([]HistoryEntry, error) {
	if h.repo == nil {
		return nil, ErrHistoryDisabled
	}
	archives, err := h.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, len(archives))
	for i, a := range archives {
		entries[i] = entryFrom(a)
	}
	return entries, nil
}

// Get returns one archived session with its reconstructed trace.
func (h *History) Get(ctx context.Context, requestID string) (HistoryEntry, []TraceRow, error) {
	if h.repo == nil {
		return HistoryEntry{}, nil, ErrHistoryDisabled
	}
	a, err := h.repo.Get(ctx, requestID)
	if err != nil {
		return HistoryEntry{}, nil, err
	}
	return entryFrom(a), rowsFrom(traceOf(a.Events)), nil
}

// Delete removes one archived session.
func (h *History) Delete(ctx context.Context, requestID string) error {
	if h.repo == nil {
		return ErrHistoryDisabled
	}
	return h.repo.Delete(ctx, requestID)
}
