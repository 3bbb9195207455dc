package searchwire

import (
	"time"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/search/result"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
	"github.com/kailas-cloud/searchwire/internal/trace"
)

// Sentinel errors surfaced by the client.
var (
	// ErrNotFound signals a missing archived session.
	ErrNotFound = domain.ErrNotFound
	// ErrSuperseded signals a search invalidated by a newer one.
	ErrSuperseded = domain.ErrSuperseded
	// ErrIdleTimeout signals a stream with no activity for too long.
	ErrIdleTimeout = domain.ErrIdleTimeout
	// ErrHistoryDisabled signals that no session archive is configured.
	ErrHistoryDisabled = domain.ErrHistoryDisabled
)

// Phase is the lifecycle state of a search session.
type Phase string

// Phase constants.
const (
	PhaseSearching Phase = "searching"
	PhaseAnswering Phase = "answering"
	PhaseFinalized Phase = "finalized"
	PhaseCancelled Phase = "cancelled"
	PhaseError     Phase = "error"
)

// Terminal reports whether no further phase changes may occur.
func (p Phase) Terminal() bool {
	return p == PhaseFinalized || p == PhaseCancelled || p == PhaseError
}

// Result is a single search hit.
type Result struct {
	ID      string
	Score   float64
	Title   string
	Content string
	Source  string
	Payload map[string]any
}

// Snapshot is the aggregated state of a search at one point in time.
type Snapshot struct {
	RequestID  string
	Query      string
	Answer     string
	Results    []Result
	Phase      Phase
	ErrMessage string
	ErrOp      string
	EventCount int
}

// RowKind classifies a trace row for presentation.
type RowKind int

// Trace row kinds.
const (
	RowStatus RowKind = iota
	RowHeader
	RowReason
	RowDetail
	RowDecision
	RowComplete
	RowSeparator
	RowError
)

// TraceRow is one rendered line of the reconstructed process log.
type TraceRow struct {
	Kind RowKind
	Text string
}

// HistoryEntry summarizes one archived search session.
type HistoryEntry struct {
	RequestID  string
	Collection string
	Query      string
	Phase      Phase
	Answer     string
	ErrMessage string
	FinishedAt time.Time
}

func snapshotFrom(s session.Snapshot) Snapshot {
	return Snapshot{
		RequestID:  s.RequestID,
		Query:      s.Query,
		Answer:     s.Answer,
		Results:    resultsFrom(s.Results),
		Phase:      Phase(s.Phase),
		ErrMessage: s.ErrMessage,
		ErrOp:      s.ErrOp,
		EventCount: s.EventCount,
	}
}

func resultsFrom(in []result.Result) []Result {
	if in == nil {
		return nil
	}
	out := make([]Result, len(in))
	for i, r := range in {
		out[i] = Result{
			ID:      r.ID,
			Score:   r.Score,
			Title:   r.Title,
			Content: r.Content,
			Source:  r.Source,
			Payload: r.Payload,
		}
	}
	return out
}

var kindByTrace = map[trace.Kind]RowKind{
	trace.KindStatus:    RowStatus,
	trace.KindHeader:    RowHeader,
	trace.KindReason:    RowReason,
	trace.KindDetail:    RowDetail,
	trace.KindDecision:  RowDecision,
	trace.KindComplete:  RowComplete,
	trace.KindSeparator: RowSeparator,
	trace.KindError:     RowError,
}

func rowsFrom(in []trace.Row) []TraceRow {
	out := make([]TraceRow, len(in))
	for i, r := range in {
		out[i] = TraceRow{Kind: kindByTrace[r.Kind], Text: r.Text}
	}
	return out
}

func entryFrom(a session.Archive) HistoryEntry {
	return HistoryEntry{
		RequestID:  a.RequestID,
		Collection: a.Collection,
		Query:      a.Query,
		Phase:      Phase(a.Phase),
		Answer:     a.Answer,
		ErrMessage: a.ErrMessage,
		FinishedAt: a.FinishedAt,
	}
}
