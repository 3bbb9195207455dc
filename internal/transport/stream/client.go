// Package stream opens and consumes search event streams: one cancellable
// HTTP request per search, framed into typed events delivered in arrival
// order.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/search/request"
)

// maxErrorBody bounds how much of a non-2xx response body is kept as the
// failure message.
const maxErrorBody = 8 * 1024

// Config holds the stream client settings.
type Config struct {
	BaseURL string
	APIKey  string
	// HTTPClient must not set a client-wide timeout: streams are
	// long-lived. Defaults to a plain http.Client.
	HTTPClient *http.Client
	// IdleTimeout fails a stream with no frames for this long (0 disables).
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

// Client opens search streams. It owns the shared stream sequence counter:
// opening a new stream supersedes every earlier one, and superseded
// streams stop forwarding events.
type Client struct {
	baseURL     string
	apiKey      string
	httpc       *http.Client
	idleTimeout time.Duration
	logger      *zap.Logger
	seq         counter
}

// NewClient creates a stream client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("stream client: base URL is required")
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		httpc:       httpc,
		idleTimeout: cfg.IdleTimeout,
		logger:      logger,
	}, nil
}

// Open submits one search and returns its event stream. The previous
// stream, if still live, is invalidated and stops forwarding events.
// A non-success HTTP status surfaces once, before any event is delivered.
func (c *Client) Open(ctx context.Context, collection string, req *request.Request) (*Stream, error) {
	id := c.seq.next()

	body, err := json.Marshal(req.Wire())
	if err != nil {
		return nil, fmt.Errorf("open stream: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/search/stream", c.baseURL, url.PathEscape(collection))

	streamCtx, cancel := context.WithCancelCause(ctx)
	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		cancel(nil)
		return nil, fmt.Errorf("open stream: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		cancel(nil)
		return nil, fmt.Errorf("open stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		cancel(nil)
		return nil, &domain.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	s := &Stream{
		id:     id,
		client: c,
		ctx:    streamCtx,
		cancel: cancel,
		events: make(chan event.Event, eventBuffer),
		logger: c.logger.With(zap.Int64("stream_id", id), zap.String("collection", collection)),
	}
	go s.readLoop(resp.Body)
	return s, nil
}
