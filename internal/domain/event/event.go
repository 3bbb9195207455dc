// Package event defines the wire contract of the search stream: every
// event the pipeline emits while a search request is in flight.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/searchwire/internal/domain/search/result"
)

// Type discriminates the event union.
type Type string

// Lifecycle events.
const (
	TypeConnected Type = "connected"
	TypeStart     Type = "start"
	TypeDone      Type = "done"
	TypeError     Type = "error"
	TypeHeartbeat Type = "heartbeat"
	TypeSummary   Type = "summary"
	// TypeCancelled is never sent by the server. The transport injects it
	// locally when the caller aborts the stream so every downstream
	// consumer handles cancellation through the same channel.
	TypeCancelled Type = "cancelled"
)

// Operator boundary events.
const (
	TypeOperatorStart Type = "operator_start"
	TypeOperatorEnd   Type = "operator_end"
)

// Per-stage streaming sub-events.
const (
	TypeInterpretationStart       Type = "interpretation_start"
	TypeInterpretationReasonDelta Type = "interpretation_reason_delta"
	TypeInterpretationDelta       Type = "interpretation_delta"
	TypeFilterApplied             Type = "filter_applied"
	TypeFilterMerge               Type = "filter_merge"

	TypeExpansionStart       Type = "expansion_start"
	TypeExpansionReasonDelta Type = "expansion_reason_delta"
	TypeExpansionDelta       Type = "expansion_delta"
	TypeExpansionDone        Type = "expansion_done"

	TypeRecencyStart   Type = "recency_start"
	TypeRecencySpan    Type = "recency_span"
	TypeRecencySkipped Type = "recency_skipped"

	TypeEmbeddingStart    Type = "embedding_start"
	TypeEmbeddingDone     Type = "embedding_done"
	TypeEmbeddingFallback Type = "embedding_fallback"

	TypeVectorSearchStart Type = "vector_search_start"
	TypeVectorSearchBatch Type = "vector_search_batch"
	TypeVectorSearchDone  Type = "vector_search_done"

	TypeRerankingStart       Type = "reranking_start"
	TypeRerankingReasonDelta Type = "reranking_reason_delta"
	TypeRerankingDelta       Type = "reranking_delta"
	TypeRerankingDone        Type = "reranking_done"

	TypeCompletionStart Type = "completion_start"
	TypeCompletionDelta Type = "completion_delta"
	TypeCompletionDone  Type = "completion_done"

	TypeResults Type = "results"
)

// Operator names of the pipeline stages.
const (
	OpFilter         = "qdrant_filter"
	OpInterpretation = "query_interpretation"
	OpExpansion      = "query_expansion"
	OpRecency        = "recency_bias"
	OpEmbedding      = "embedding"
	OpVectorSearch   = "vector_search"
	OpReranking      = "reranking"
)

// InterpretationSnapshot is the cumulative state of the query
// interpretation stage carried by interpretation_delta events. Each delta
// is a full snapshot, not an increment: latest wins.
type InterpretationSnapshot struct {
	Filters      []map[string]any `json:"filters,omitempty"`
	Confidence   float64          `json:"confidence"`
	RefinedQuery string           `json:"refined_query,omitempty"`
}

// Ranking is one reranked result position.
type Ranking struct {
	Index  int     `json:"index"`
	Score  float64 `json:"relevance_score"`
	Reason string  `json:"reason,omitempty"`
}

// Event is one record of the search stream. The union is kept flat: only
// the fields relevant to a given Type are populated, the rest stay zero.
// Unknown fields in the payload are ignored (lenient parsing).
type Event struct {
	Type Type `json:"type"`

	// Envelope fields, present on most events.
	TS        float64 `json:"ts,omitempty"`
	Seq       int64   `json:"seq,omitempty"`
	Op        string  `json:"op,omitempty"`
	OpSeq     int64   `json:"op_seq,omitempty"`
	RequestID string  `json:"request_id,omitempty"`

	// start
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`

	// error
	Message   string `json:"message,omitempty"`
	Operation string `json:"operation,omitempty"`

	// summary
	Timings     map[string]float64 `json:"timings,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
	TotalTimeMS float64            `json:"total_time_ms,omitempty"`

	// operator_end
	ElapsedMS float64 `json:"elapsed_ms,omitempty"`

	// Reason deltas and completion text fragments.
	Text string `json:"text,omitempty"`

	// interpretation_delta
	ParsedSnapshot *InterpretationSnapshot `json:"parsed_snapshot,omitempty"`

	// filter_applied / filter_merge
	Filter         map[string]any `json:"filter,omitempty"`
	ExistingFilter map[string]any `json:"existing_filter,omitempty"`
	UserFilter     map[string]any `json:"user_filter,omitempty"`
	MergedFilter   map[string]any `json:"merged_filter,omitempty"`

	// expansion
	Strategy     string   `json:"strategy,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`

	// recency
	Weight      float64 `json:"weight,omitempty"`
	Field       string  `json:"field,omitempty"`
	Oldest      string  `json:"oldest,omitempty"`
	Newest      string  `json:"newest,omitempty"`
	SpanSeconds float64 `json:"span_seconds,omitempty"`
	Reason      string  `json:"reason,omitempty"`

	// embedding / vector search
	Method      string    `json:"method,omitempty"`
	NeuralCount int       `json:"neural_count,omitempty"`
	SparseCount int       `json:"sparse_count,omitempty"`
	Dimension   int       `json:"dimension,omitempty"`
	Model       string    `json:"model,omitempty"`
	BatchCount  int       `json:"batch_count,omitempty"`
	FinalCount  int       `json:"final_count,omitempty"`
	TopScores   []float64 `json:"top_scores,omitempty"`

	// reranking
	K        int       `json:"k,omitempty"`
	Rankings []Ranking `json:"rankings,omitempty"`

	// results
	Results []result.Result `json:"results,omitempty"`
}

// Parse decodes one frame payload into an Event. A payload without a type
// discriminant is rejected so the transport can drop it as protocol noise.
func Parse(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("parse event: missing type discriminant")
	}
	return e, nil
}

// IsTerminal reports whether the event ends the stream.
func (e *Event) IsTerminal() bool {
	return e.Type == TypeDone || e.Type == TypeError || e.Type == TypeCancelled
}

// IsKnownOperator reports whether op names a recognized pipeline stage.
func IsKnownOperator(op string) bool {
	switch op {
	case OpFilter, OpInterpretation, OpExpansion, OpRecency,
		OpEmbedding, OpVectorSearch, OpReranking:
		return true
	}
	return false
}
