// Package session maintains the live aggregated projection of one
// in-flight search: the raw event log, the incrementally assembled answer
// text, the latest results list and the lifecycle phase.
package session

import (
	"strings"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/search/result"
)

// Session is the aggregator state of one search request. It is not safe
// for concurrent use: events must be applied by a single consumer, in
// arrival order.
type Session struct {
	requestID string
	query     string
	events    []event.Event
	answer    strings.Builder
	results   []result.Result
	phase     Phase
	errMsg    string
	errOp     string
}

// Snapshot is the read-only projection emitted after each applied event.
// It is always consistent with the prefix of events processed so far.
type Snapshot struct {
	RequestID  string
	Query      string
	Answer     string
	Results    []result.Result
	Phase      Phase
	ErrMessage string
	ErrOp      string
	// EventCount lets consumers re-derive the trace only when the raw
	// log actually grew.
	EventCount int
}

// New creates a session in the searching phase.
func New(query string) *Session {
	return &Session{query: query, phase: Searching}
}

// Apply folds one event into the session and returns the updated snapshot.
// Every event is appended to the raw log; once a terminal phase is
// reached, stray events no longer mutate the projection.
func (s *Session) Apply(ev event.Event) Snapshot {
	s.events = append(s.events, ev)

	if s.phase.Terminal() {
		return s.snapshot()
	}

	switch ev.Type {
	case event.TypeConnected:
		if ev.RequestID != "" {
			s.requestID = ev.RequestID
		}

	case event.TypeCompletionStart:
		s.phase = Answering

	case event.TypeCompletionDelta:
		s.phase = Answering
		s.answer.WriteString(ev.Text)

	case event.TypeCompletionDone:
		// The aggregated buffer is authoritative. A completion_done
		// payload that disagrees with the accumulated deltas is ignored:
		// deltas may outrun a late final payload under pathological
		// network conditions, and the buffer reflects what was streamed.
		s.phase = Answering

	case event.TypeResults:
		s.results = append([]result.Result(nil), ev.Results...)

	case event.TypeDone:
		s.phase = Finalized

	case event.TypeError:
		s.phase = Error
		s.errMsg = ev.Message
		s.errOp = ev.Operation

	case event.TypeCancelled:
		s.phase = Cancelled
	}

	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		RequestID:  s.requestID,
		Query:      s.query,
		Answer:     s.answer.String(),
		Results:    s.results,
		Phase:      s.phase,
		ErrMessage: s.errMsg,
		ErrOp:      s.errOp,
		EventCount: len(s.events),
	}
}

// Snapshot returns the current projection without applying an event.
func (s *Session) Snapshot() Snapshot { return s.snapshot() }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// RequestID returns the backend-assigned request id ("" until connected).
func (s *Session) RequestID() string { return s.requestID }

// EventLog returns a copy of the raw event log.
func (s *Session) EventLog() []event.Event {
	return append([]event.Event(nil), s.events...)
}
