package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/metrics"
)

// eventBuffer decouples the read loop from slow consumers.
const eventBuffer = 32

// errAborted is the cancellation cause set by Stream.Cancel.
var errAborted = errors.New("aborted by caller")

// counter is the shared stream sequence. The latest issued id is the only
// stream allowed to forward events.
type counter struct {
	n atomic.Int64
}

func (c *counter) next() int64    { return c.n.Add(1) }
func (c *counter) current() int64 { return c.n.Load() }

// Stream is one in-flight search event stream. Events are delivered in
// arrival order on Events(); the channel closes exactly once, when the
// stream ends for any reason.
type Stream struct {
	id      int64
	client  *Client
	ctx     context.Context
	cancel  context.CancelCauseFunc
	events  chan event.Event
	aborted atomic.Bool
	logger  *zap.Logger

	// err is written by the read loop before the channel closes; the
	// close is the happens-before edge for readers.
	err error
}

// Events returns the ordered event channel. It closes when the stream
// ends; read Err afterwards for the terminal error, if any.
func (s *Stream) Events() <-chan event.Event { return s.events }

// Err returns the terminal stream error. Valid only after Events closes.
// Nil for a clean finish and for client-initiated cancellation.
func (s *Stream) Err() error { return s.err }

// Cancel aborts the stream. Idempotent: the first call injects exactly one
// synthetic cancelled event downstream, later calls are no-ops. Cancelling
// an already-finished stream does nothing.
func (s *Stream) Cancel() {
	if !s.aborted.CompareAndSwap(false, true) {
		return
	}
	s.cancel(errAborted)
}

// superseded reports whether a newer stream was opened on the same client.
func (s *Stream) superseded() bool { return s.id != s.client.seq.current() }

// readLoop frames, parses and forwards events until the stream ends.
// It is the only writer of s.events and closes it exactly once.
func (s *Stream) readLoop(body io.ReadCloser) {
	defer close(s.events)
	defer func() { _ = body.Close() }()

	var watchdog *time.Timer
	if s.client.idleTimeout > 0 {
		watchdog = time.AfterFunc(s.client.idleTimeout, func() {
			s.cancel(domain.ErrIdleTimeout)
		})
		defer watchdog.Stop()
	}

	reader := newFrameReader(body)
	for {
		payload, err := reader.Next()
		if err != nil {
			s.finish(err)
			return
		}
		if watchdog != nil {
			watchdog.Reset(s.client.idleTimeout)
		}

		ev, perr := event.Parse(payload)
		if perr != nil {
			// Protocol noise (heartbeat comments, partial writes) is
			// dropped and the stream continues.
			metrics.StreamFramesDroppedTotal.Inc()
			s.logger.Debug("dropped malformed frame", zap.Error(perr))
			continue
		}

		if s.superseded() {
			// A newer search owns the session now. Discard silently.
			s.err = domain.ErrSuperseded
			s.logger.Debug("stream superseded, discarding remaining events")
			return
		}
		if s.aborted.Load() {
			s.sendCancelled()
			return
		}

		if !s.emit(ev) {
			return
		}

		switch ev.Type {
		case event.TypeError:
			// Terminal failure signal: forwarded once, then the loop stops.
			s.err = &domain.ProtocolError{Message: ev.Message, Operation: ev.Operation}
			return
		case event.TypeDone:
			return
		}
	}
}

// emit forwards one event, respecting cancellation while blocked.
// Reports whether the stream should keep reading. A context firing while
// the send is blocked goes through finish so the terminal classification
// (cancelled, idle timeout) matches a context firing between frames.
func (s *Stream) emit(ev event.Event) bool {
	select {
	case s.events <- ev:
		metrics.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		return true
	case <-s.ctx.Done():
		s.finish(context.Cause(s.ctx))
		return false
	}
}

// sendCancelled delivers the synthetic cancelled marker. Consumers drain
// the channel until close, so a blocking send cannot wedge the loop.
func (s *Stream) sendCancelled() {
	s.events <- event.Event{Type: event.TypeCancelled}
	metrics.StreamEventsTotal.WithLabelValues(string(event.TypeCancelled)).Inc()
}

// finish classifies a read-loop error and emits the matching terminal
// event, if any.
func (s *Stream) finish(err error) {
	switch {
	case s.superseded():
		s.err = domain.ErrSuperseded

	case s.aborted.Load():
		// Abort-induced I/O errors are expected, not failures.
		s.sendCancelled()

	case errors.Is(context.Cause(s.ctx), domain.ErrIdleTimeout):
		s.err = domain.ErrIdleTimeout
		s.sendError("stream idle timeout: no events received")

	case errors.Is(err, io.EOF):
		// Abrupt end without done: last known state, not finalized.
		s.logger.Debug("stream ended without done event")

	case s.ctx.Err() != nil:
		// Parent context cancelled (shutdown): treat as cancellation.
		s.sendCancelled()

	default:
		s.err = err
		s.sendError(err.Error())
	}
}

// sendError injects a synthetic error event so the failure reaches the UI
// through the same channel as server-sent errors.
func (s *Stream) sendError(msg string) {
	s.events <- event.Event{Type: event.TypeError, Message: msg}
	metrics.StreamEventsTotal.WithLabelValues(string(event.TypeError)).Inc()
}
