package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/search/result"
)

// ScriptSource generates a full scripted pipeline run for any query. Each
// request gets a fresh request id, so replayed sessions remain
// distinguishable in history.
type ScriptSource struct{}

// Events implements Source.
func (ScriptSource) Events(collection, query string) ([]json.RawMessage, error) {
	requestID := uuid.NewString()
	seq := int64(0)
	next := func(ev event.Event) event.Event {
		seq++
		ev.Seq = seq
		return ev
	}

	script := []event.Event{
		next(event.Event{Type: event.TypeConnected, RequestID: requestID}),
		next(event.Event{Type: event.TypeStart, Query: query, Limit: 20}),

		next(event.Event{Type: event.TypeOperatorStart, Op: event.OpInterpretation}),
		next(event.Event{Type: event.TypeInterpretationReasonDelta, Op: event.OpInterpretation,
			Text: "The query names a concrete topic; no structured filters needed.\n"}),
		next(event.Event{Type: event.TypeInterpretationDelta, Op: event.OpInterpretation,
			ParsedSnapshot: &event.InterpretationSnapshot{Confidence: 0.42}}),
		next(event.Event{Type: event.TypeOperatorEnd, Op: event.OpInterpretation, ElapsedMS: 310}),

		next(event.Event{Type: event.TypeOperatorStart, Op: event.OpExpansion}),
		next(event.Event{Type: event.TypeExpansionStart, Op: event.OpExpansion, Strategy: "auto"}),
		next(event.Event{Type: event.TypeExpansionDone, Op: event.OpExpansion,
			Alternatives: []string{query + " overview", query + " best practices"}}),
		next(event.Event{Type: event.TypeOperatorEnd, Op: event.OpExpansion, ElapsedMS: 180}),

		next(event.Event{Type: event.TypeOperatorStart, Op: event.OpEmbedding}),
		next(event.Event{Type: event.TypeEmbeddingStart, Op: event.OpEmbedding, Method: "hybrid"}),
		next(event.Event{Type: event.TypeEmbeddingDone, Op: event.OpEmbedding,
			NeuralCount: 3, SparseCount: 3, Dimension: 1024, Model: "demo-embedder"}),
		next(event.Event{Type: event.TypeOperatorEnd, Op: event.OpEmbedding, ElapsedMS: 45}),

		next(event.Event{Type: event.TypeOperatorStart, Op: event.OpVectorSearch}),
		next(event.Event{Type: event.TypeVectorSearchStart, Op: event.OpVectorSearch, Method: "hybrid"}),
		next(event.Event{Type: event.TypeVectorSearchBatch, Op: event.OpVectorSearch, BatchCount: 1}),
		next(event.Event{Type: event.TypeVectorSearchDone, Op: event.OpVectorSearch,
			FinalCount: 2, TopScores: []float64{0.93, 0.87}}),
		next(event.Event{Type: event.TypeOperatorEnd, Op: event.OpVectorSearch, ElapsedMS: 120}),

		next(event.Event{Type: event.TypeResults, Results: []result.Result{
			{ID: "doc-1", Score: 0.93, Title: "Demo document one", Source: collection},
			{ID: "doc-2", Score: 0.87, Title: "Demo document two", Source: collection},
		}}),

		next(event.Event{Type: event.TypeCompletionStart}),
		next(event.Event{Type: event.TypeCompletionDelta, Text: "This is a replayed answer "}),
		next(event.Event{Type: event.TypeCompletionDelta, Text: fmt.Sprintf("for %q.", query)}),
		next(event.Event{Type: event.TypeCompletionDone}),

		next(event.Event{Type: event.TypeSummary,
			Timings:     map[string]float64{"embedding": 45, "vector_search": 120},
			TotalTimeMS: 655}),
		next(event.Event{Type: event.TypeDone}),
	}

	out := make([]json.RawMessage, len(script))
	for i, ev := range script {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal script event: %w", err)
		}
		out[i] = data
	}
	return out, nil
}

// FixtureSource replays an NDJSON fixture file: one raw event per line,
// blank lines and # comments skipped. Lines pass through unvalidated so
// fixtures can exercise malformed-frame handling in consumers.
type FixtureSource struct {
	events []json.RawMessage
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*FixtureSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		events = append(events, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("fixture %s has no events", path)
	}
	return &FixtureSource{events: events}, nil
}

// Events implements Source.
func (s *FixtureSource) Events(string, string) ([]json.RawMessage, error) {
	return s.events, nil
}

// historyEvents is the minimal shape ArchiveSource needs from an archive.
type historyEvents interface {
	EventsFor(requestID string) ([]event.Event, error)
}

// ArchiveSource replays a stored session. The incoming query is treated
// as the request id of the archived session to replay.
type ArchiveSource struct {
	history historyEvents
}

// NewArchiveSource creates an archive-backed source.
func NewArchiveSource(history historyEvents) *ArchiveSource {
	return &ArchiveSource{history: history}
}

// Events implements Source.
func (s *ArchiveSource) Events(_, query string) ([]json.RawMessage, error) {
	requestID := strings.TrimSpace(query)
	events, err := s.history.EventsFor(requestID)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(events))
	for i, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal archived event: %w", err)
		}
		out[i] = data
	}
	return out, nil
}
