// Package trace rebuilds a human-readable pipeline trace from the raw
// event log of a search stream. Reconstruction is a pure replay: the same
// event slice always yields the same rows, so the trace can be re-rendered
// at any time from a stored session.
package trace

import (
	"sort"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
)

// MaxEvents bounds how much of the log is replayed. Older events beyond
// the window are dropped before grouping.
const MaxEvents = 500

// Reconstruct replays the event log into display rows. It runs two
// passes: the first groups events into operator brackets and standalone
// records, the second folds each group through its stage accumulator and
// renders the rows.
func Reconstruct(events []event.Event) []Row {
	var rows []Row
	if len(events) > MaxEvents {
		rows = append(rows, row(KindStatus, "Trace truncated to the last %d events", MaxEvents))
		events = events[len(events)-MaxEvents:]
	}
	segments := group(events)

	r := renderer{}
	for _, seg := range segments {
		rows = append(rows, r.render(seg)...)
	}
	rows = append(rows, r.flushPending()...)
	return rows
}

// segment is one unit of the grouped log: either a single standalone
// event or an operator bracket with its sub-events.
type segment struct {
	ev *event.Event // standalone, nil for brackets

	op      string
	events  []event.Event
	closed  bool
	elapsed float64
}

// group splits the log into operator brackets and standalone events,
// preserving arrival order of the groups. Global events stay standalone
// even when they arrive inside an open bracket. Stage sub-events that
// arrive without an operator_start open an implicit bracket, which
// renders as in progress unless a matching operator_end follows.
func group(events []event.Event) []*segment {
	var out []*segment
	open := map[string]*segment{}

	bracket := func(op string) *segment {
		if seg, ok := open[op]; ok {
			return seg
		}
		seg := &segment{op: op}
		open[op] = seg
		out = append(out, seg)
		return seg
	}

	for i := range events {
		ev := events[i]
		switch ev.Type {
		case event.TypeOperatorStart:
			seg := &segment{op: ev.Op}
			open[ev.Op] = seg
			out = append(out, seg)
		case event.TypeOperatorEnd:
			if seg, ok := open[ev.Op]; ok {
				seg.closed = true
				seg.elapsed = ev.ElapsedMS
				delete(open, ev.Op)
			}
		case event.TypeConnected, event.TypeStart, event.TypeDone,
			event.TypeError, event.TypeCancelled, event.TypeHeartbeat,
			event.TypeSummary, event.TypeResults,
			event.TypeCompletionStart, event.TypeCompletionDelta,
			event.TypeCompletionDone, event.TypeFilterMerge:
			out = append(out, &segment{ev: &events[i]})
		default:
			if ev.Op == "" {
				out = append(out, &segment{ev: &events[i]})
				continue
			}
			seg := bracket(ev.Op)
			seg.events = append(seg.events, ev)
		}
	}
	return out
}

// renderer carries the small amount of cross-segment state the replay
// needs: embedding details held back until the vector search block, and
// the last filter_merge used to annotate the filter bracket.
type renderer struct {
	pendingEmbedding *embeddingState
	lastMerge        *event.Event
}

func (r *renderer) render(seg *segment) []Row {
	if seg.ev != nil {
		return r.renderStandalone(*seg.ev)
	}
	return r.renderBracket(seg)
}

func (r *renderer) renderStandalone(ev event.Event) []Row {
	switch ev.Type {
	case event.TypeConnected:
		if ev.RequestID != "" {
			return []Row{row(KindStatus, "Connected (request %s)", ev.RequestID)}
		}
		return []Row{row(KindStatus, "Connected")}
	case event.TypeStart:
		return []Row{row(KindStatus, "Searching: %q", ev.Query)}
	case event.TypeResults:
		return []Row{row(KindStatus, "Received %s", countNoun(len(ev.Results), "result"))}
	case event.TypeCompletionStart:
		return []Row{row(KindStatus, "Generating answer")}
	case event.TypeCompletionDone:
		return []Row{row(KindStatus, "Answer complete")}
	case event.TypeSummary:
		return summaryRows(ev)
	case event.TypeDone:
		return []Row{row(KindComplete, "Search complete")}
	case event.TypeError:
		if ev.Operation != "" {
			return []Row{row(KindError, "Error in %s: %s", ev.Operation, ev.Message)}
		}
		return []Row{row(KindError, "Error: %s", ev.Message)}
	case event.TypeCancelled:
		return []Row{row(KindStatus, "Search cancelled")}
	case event.TypeFilterMerge:
		// Not a block of its own. Remembered to annotate the filter
		// bracket it precedes.
		merge := ev
		r.lastMerge = &merge
		return nil
	case event.TypeHeartbeat, event.TypeCompletionDelta:
		return nil
	}
	return nil
}

func (r *renderer) renderBracket(seg *segment) []Row {
	switch seg.op {
	case event.OpInterpretation:
		st := &interpretationState{}
		foldAll(st.fold, seg.events)
		return st.flush(seg.closed, seg.elapsed)
	case event.OpExpansion:
		st := &expansionState{}
		foldAll(st.fold, seg.events)
		return st.flush(seg.closed, seg.elapsed)
	case event.OpRecency:
		st := &recencyState{}
		foldAll(st.fold, seg.events)
		return st.flush(seg.closed, seg.elapsed)
	case event.OpEmbedding:
		st := &embeddingState{}
		foldAll(st.fold, seg.events)
		r.pendingEmbedding = st
		return nil
	case event.OpVectorSearch:
		st := &vectorSearchState{}
		foldAll(st.fold, seg.events)
		embedding := r.pendingEmbedding
		r.pendingEmbedding = nil
		return st.flush(embedding, seg.closed, seg.elapsed)
	case event.OpReranking:
		st := &rerankingState{}
		foldAll(st.fold, seg.events)
		return st.flush(seg.closed, seg.elapsed)
	case event.OpFilter:
		st := &filterState{}
		foldAll(st.fold, seg.events)
		merged := r.lastMerge != nil && len(r.lastMerge.ExistingFilter) > 0
		r.lastMerge = nil
		return st.flush(merged, seg.closed, seg.elapsed)
	}
	return genericBracketRows(seg)
}

// flushPending renders embedding details that never got a vector search
// bracket to attach to. A stream that fails between the two stages still
// shows what the embedding step did.
func (r *renderer) flushPending() []Row {
	st := r.pendingEmbedding
	if st == nil {
		return nil
	}
	r.pendingEmbedding = nil
	rows := []Row{row(KindHeader, "Computing embeddings")}
	if st.method != "" {
		rows = append(rows, row(KindDetail, "Method: %s", st.method))
	}
	rows = append(rows, st.detailRows()...)
	return append(rows, row(KindStatus, "Retrieval did not start"))
}

// genericBracketRows renders an operator the replay does not recognize.
// The server may grow stages faster than this client.
func genericBracketRows(seg *segment) []Row {
	rows := []Row{row(KindHeader, "Stage: %s", seg.op)}
	if n := len(seg.events); n > 0 {
		rows = append(rows, row(KindDetail, "%s", countNoun(n, "event")))
	}
	if !seg.closed {
		return append(rows, row(KindStatus, "In progress"))
	}
	rows = append(rows, row(KindComplete, "Complete%s", elapsedSuffix(seg.elapsed)))
	return append(rows, separator)
}

func summaryRows(ev event.Event) []Row {
	rows := []Row{row(KindHeader, "Pipeline summary")}
	if ev.TotalTimeMS > 0 {
		rows = append(rows, row(KindDetail, "Total time: %.0f ms", ev.TotalTimeMS))
	}
	// Map order is random; sorted keys keep the replay deterministic.
	ops := make([]string, 0, len(ev.Timings))
	for op := range ev.Timings {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		rows = append(rows, row(KindDetail, "%s: %.0f ms", op, ev.Timings[op]))
	}
	for _, msg := range ev.Errors {
		rows = append(rows, row(KindError, "%s", msg))
	}
	return append(rows, separator)
}

func foldAll(fold func(event.Event), events []event.Event) {
	for _, ev := range events {
		fold(ev)
	}
}
