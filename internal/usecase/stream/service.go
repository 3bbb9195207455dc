// Package stream drives one search from request to terminal state: it
// opens the transport stream, folds events into the session projection
// and publishes snapshots to the caller.
package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchwire/internal/domain/search/request"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
)

// archiveTimeout bounds the best-effort history write after a stream ends.
const archiveTimeout = 5 * time.Second

// Service runs search streams. The archiver is optional: nil disables
// session history.
type Service struct {
	opener   Opener
	archiver Archiver
	logger   *zap.Logger
}

// New creates a stream service.
func New(opener Opener, archiver Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{opener: opener, archiver: archiver, logger: logger}
}

// Run submits one search and returns its live run handle. The consume
// loop is the single writer of the session; callers observe it through
// snapshots.
func (s *Service) Run(ctx context.Context, collection string, req *request.Request) (*Run, error) {
	source, err := s.opener.Open(ctx, collection, req)
	if err != nil {
		return nil, err
	}

	r := &Run{
		collection: collection,
		source:     source,
		session:    session.New(req.Query()),
		snapshots:  make(chan session.Snapshot, 1),
		done:       make(chan struct{}),
		started:    time.Now(),
		service:    s,
	}
	go r.consume()
	return r, nil
}

// archive persists a finished run. Failures are logged, never surfaced:
// history is a convenience, not part of the search result.
func (s *Service) archive(collection string, snap session.Snapshot, r *Run) {
	if s.archiver == nil || snap.RequestID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	a := session.NewArchive(collection, snap, r.EventLog(), time.Now().UTC())
	if err := s.archiver.Save(ctx, a); err != nil {
		s.logger.Warn("failed to archive session",
			zap.String("request_id", snap.RequestID), zap.Error(err))
	}
}
