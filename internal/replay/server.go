// Package replay serves recorded or scripted search event streams over
// the same SSE wire contract as the production backend. It exists for
// demos, fixtures and offline development of stream consumers.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchwire/internal/logger"
)

// Source produces the event sequence for one search. Events are raw JSON
// payloads so fixtures may carry event types this code does not know.
type Source interface {
	Events(collection, query string) ([]json.RawMessage, error)
}

// Config holds replay server settings.
type Config struct {
	Port           int
	ReadTimeoutSec int
	ShutdownSec    int
	APIKeys        []string
	// HeartbeatSec is the comment-line keepalive interval (0 disables).
	HeartbeatSec int
	// EventDelayMS paces event emission to mimic a live pipeline.
	EventDelayMS int
}

// Server streams replayed searches.
type Server struct {
	source Source
	cfg    Config
	logger *zap.Logger
}

// NewServer creates a replay server.
func NewServer(source Source, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{source: source, cfg: cfg, logger: logger}
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(BearerAuthMiddleware(s.cfg.APIKeys))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/collections/{collection}/search/stream", s.streamSearch)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Port),
		Handler:     s.Handler(),
		ReadTimeout: time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting replay server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(s.cfg.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("replay server stopped")
	return nil
}

// requestLogger stores a request-scoped logger in the context so
// handlers correlate their lines by chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), l)))
	})
}

// streamRequest is the subset of the search request body the replay
// server cares about.
type streamRequest struct {
	Query string `json:"query"`
}

// streamSearch handles POST /collections/{collection}/search/stream.
// The response is an SSE stream paced by EventDelayMS; the client
// disconnecting stops emission immediately.
func (s *Server) streamSearch(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	log := logger.FromContext(r.Context())

	events, err := s.source.Events(collection, req.Query)
	if err != nil {
		log.Warn("no events for search",
			zap.String("collection", collection), zap.Error(err))
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Info("replaying stream",
		zap.String("collection", collection), zap.Int("events", len(events)))

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.emit(r.Context(), w, flusher, events)
}

func (s *Server) emit(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, events []json.RawMessage) {
	delay := time.Duration(s.cfg.EventDelayMS) * time.Millisecond

	var heartbeats <-chan time.Time
	if s.cfg.HeartbeatSec > 0 {
		ticker := time.NewTicker(time.Duration(s.cfg.HeartbeatSec) * time.Second)
		defer ticker.Stop()
		heartbeats = ticker.C
	}

	for _, ev := range events {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-heartbeats:
				_, _ = fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case <-timer.C:
			}
			timer.Stop()
		} else if ctx.Err() != nil {
			return
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", ev); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
