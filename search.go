package searchwire

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/search/filter"
	"github.com/kailas-cloud/searchwire/internal/domain/search/method"
	"github.com/kailas-cloud/searchwire/internal/domain/search/request"
	"github.com/kailas-cloud/searchwire/internal/trace"
	streamuc "github.com/kailas-cloud/searchwire/internal/usecase/stream"
)

// Search methods.
const (
	MethodHybrid  = "hybrid"
	MethodNeural  = "neural"
	MethodKeyword = "keyword"
)

// Expansion strategies.
const (
	ExpansionAuto = "auto"
	ExpansionNone = "no_expansion"
)

// Response types.
const (
	ResponseRaw        = "raw"
	ResponseCompletion = "completion"
)

// SearchOptions tune one search submission. The zero value requests a
// hybrid search with automatic expansion and a generated answer.
type SearchOptions struct {
	Method         string
	Expansion      string
	Interpretation bool
	RecencyBias    float64
	Reranking      bool
	ResponseType   string
	Filter         *Filter
	Limit          int
	Offset         int
}

// Filter is a structured pre-filter with must/should/must_not semantics.
type Filter struct {
	Must    []Condition
	Should  []Condition
	MustNot []Condition
}

// Condition is a single filter clause: an exact match or a numeric range.
type Condition struct {
	Key   string
	Match string
	Range *Range
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	GT  *float64
	GTE *float64
	LT  *float64
	LTE *float64
}

// Search submits a query against a collection and returns the live search
// handle. A previous search on the same client, if still running, is
// superseded and stops receiving events.
func (c *Client) Search(ctx context.Context, collection, query string, opts *SearchOptions) (*Search, error) {
	if collection == "" {
		return nil, fmt.Errorf("searchwire: collection is required")
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	req, err := request.New(query, request.Params{
		Method:         method.Method(opts.Method),
		Expansion:      method.ExpansionStrategy(opts.Expansion),
		Interpretation: opts.Interpretation,
		RecencyBias:    opts.RecencyBias,
		Reranking:      opts.Reranking,
		ResponseType:   method.ResponseType(opts.ResponseType),
		Filter:         filterExpr(opts.Filter),
		Limit:          opts.Limit,
		Offset:         opts.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("searchwire: %w", err)
	}

	run, err := c.svc.Run(ctx, collection, &req)
	if err != nil {
		return nil, fmt.Errorf("searchwire: %w", err)
	}

	s := &Search{run: run, updates: make(chan Snapshot, 1)}
	go s.pump()
	return s, nil
}

func filterExpr(f *Filter) filter.Expression {
	if f == nil {
		return filter.Expression{}
	}
	return filter.Expression{
		Must:    conditions(f.Must),
		Should:  conditions(f.Should),
		MustNot: conditions(f.MustNot),
	}
}

func conditions(in []Condition) []filter.Condition {
	if len(in) == 0 {
		return nil
	}
	out := make([]filter.Condition, len(in))
	for i, c := range in {
		out[i] = filter.Condition{Key: c.Key, Match: c.Match, Range: rangeOf(c.Range)}
	}
	return out
}

func rangeOf(r *Range) *filter.Range {
	if r == nil {
		return nil
	}
	return &filter.Range{GT: r.GT, GTE: r.GTE, LT: r.LT, LTE: r.LTE}
}

// Search is one in-flight (or finished) search. The handle stays valid
// after the stream ends: the final snapshot and the trace remain readable.
type Search struct {
	run     *streamuc.Run
	updates chan Snapshot
}

// Updates returns the latest-wins snapshot channel. It closes after the
// final snapshot has been delivered.
func (s *Search) Updates() <-chan Snapshot { return s.updates }

// Snapshot returns the current aggregated state.
func (s *Search) Snapshot() Snapshot { return snapshotFrom(s.run.Snapshot()) }

// Trace reconstructs the pipeline process log from events received so far.
func (s *Search) Trace() []TraceRow { return rowsFrom(s.run.Trace()) }

// TraceText renders the trace as plain text, suitable for the clipboard.
func (s *Search) TraceText() string { return trace.Text(s.run.Trace()) }

// Cancel aborts the search. Idempotent; the stream delivers one final
// cancelled snapshot.
func (s *Search) Cancel() { s.run.Cancel() }

// Done closes when the search has ended.
func (s *Search) Done() <-chan struct{} { return s.run.Done() }

// Wait blocks until the search ends or ctx expires, and returns the final
// snapshot.
func (s *Search) Wait(ctx context.Context) (Snapshot, error) {
	snap, err := s.run.Wait(ctx)
	return snapshotFrom(snap), err
}

// Err returns the terminal stream error, valid once Done is closed. Nil
// for a clean finish and for cancellation.
func (s *Search) Err() error { return s.run.Err() }

// pump converts internal snapshots for the public updates channel,
// keeping only the newest unconsumed one.
func (s *Search) pump() {
	for {
		select {
		case snap := <-s.run.Snapshots():
			s.publish(snapshotFrom(snap))
		case <-s.run.Done():
			// Drain the last published snapshot, then deliver the final
			// state and close.
			select {
			case snap := <-s.run.Snapshots():
				s.publish(snapshotFrom(snap))
			default:
			}
			s.publish(snapshotFrom(s.run.Snapshot()))
			close(s.updates)
			return
		}
	}
}

func (s *Search) publish(snap Snapshot) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func traceOf(events []event.Event) []trace.Row {
	return trace.Reconstruct(events)
}
