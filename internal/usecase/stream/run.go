package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
	"github.com/kailas-cloud/searchwire/internal/metrics"
	"github.com/kailas-cloud/searchwire/internal/trace"
)

// Run is one in-flight search. It stays valid after the stream ends: the
// final snapshot, event log and trace remain readable.
type Run struct {
	collection string
	source     Source
	service    *Service
	started    time.Time

	mu      sync.Mutex
	session *session.Session

	snapshots chan session.Snapshot
	done      chan struct{}
}

// Snapshots returns the latest-wins snapshot channel. Slow consumers see
// the most recent projection, not every intermediate one. The channel is
// not closed; use Done to observe the end of the stream.
func (r *Run) Snapshots() <-chan session.Snapshot { return r.snapshots }

// Done closes when the stream has ended and the final state is readable.
func (r *Run) Done() <-chan struct{} { return r.done }

// Snapshot returns the current projection.
func (r *Run) Snapshot() session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Snapshot()
}

// EventLog returns a copy of the raw event log so far.
func (r *Run) EventLog() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.EventLog()
}

// Trace reconstructs the process log from the events received so far.
func (r *Run) Trace() []trace.Row {
	return trace.Reconstruct(r.EventLog())
}

// Cancel aborts the stream. Safe to call any number of times.
func (r *Run) Cancel() { r.source.Cancel() }

// Wait blocks until the stream ends or ctx expires, and returns the final
// snapshot.
func (r *Run) Wait(ctx context.Context) (session.Snapshot, error) {
	select {
	case <-r.done:
		return r.Snapshot(), nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	}
}

// Err returns the terminal stream error. Valid only after Done closes.
func (r *Run) Err() error { return r.source.Err() }

// consume is the single writer of the session. It folds every event in
// arrival order and publishes the resulting snapshot.
func (r *Run) consume() {
	for ev := range r.source.Events() {
		r.mu.Lock()
		snap := r.session.Apply(ev)
		r.mu.Unlock()
		r.publish(snap)
	}

	final := r.Snapshot()
	r.recordMetrics(final)
	if final.Phase.Terminal() {
		r.service.archive(r.collection, final, r)
	}
	close(r.done)
}

// publish delivers a snapshot, replacing an unconsumed older one.
func (r *Run) publish(snap session.Snapshot) {
	for {
		select {
		case r.snapshots <- snap:
			return
		default:
			select {
			case <-r.snapshots:
			default:
			}
		}
	}
}

func (r *Run) recordMetrics(final session.Snapshot) {
	outcome := string(final.Phase)
	if errors.Is(r.source.Err(), domain.ErrSuperseded) {
		outcome = "superseded"
	}
	metrics.StreamsTotal.WithLabelValues(outcome).Inc()
	metrics.StreamDuration.Observe(time.Since(r.started).Seconds())
	metrics.AnswerBytesTotal.Add(float64(len(final.Answer)))
}
