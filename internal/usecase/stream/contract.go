package stream

import (
	"context"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/search/request"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
)

// Source is one open event stream.
type Source interface {
	Events() <-chan event.Event
	Err() error
	Cancel()
}

// Opener opens a search event stream against a collection.
type Opener interface {
	Open(ctx context.Context, collection string, req *request.Request) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, collection string, req *request.Request) (Source, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, collection string, req *request.Request) (Source, error) {
	return f(ctx, collection, req)
}

// Archiver persists finished sessions.
type Archiver interface {
	Save(ctx context.Context, a session.Archive) error
}
