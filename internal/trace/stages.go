package trace

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
)

// Each pipeline stage folds its bracket's sub-events into a small
// accumulator, then flushes the accumulator into finalized rows. Delta
// events carry cumulative snapshots, so every fold is latest-wins except
// reasoning fragments, which append.

// interpretationState accumulates the query interpretation bracket.
type interpretationState struct {
	reasons  []string
	snapshot *event.InterpretationSnapshot
	applied  map[string]any
	hasApply bool
}

func (st *interpretationState) fold(ev event.Event) {
	switch ev.Type {
	case event.TypeInterpretationReasonDelta:
		st.reasons = append(st.reasons, ev.Text)
	case event.TypeInterpretationDelta:
		if ev.ParsedSnapshot != nil {
			st.snapshot = ev.ParsedSnapshot
		}
	case event.TypeFilterApplied:
		st.applied = ev.Filter
		st.hasApply = true
	}
}

func (st *interpretationState) flush(closed bool, elapsedMS float64) []Row {
	rows := []Row{row(KindHeader, "Interpreting query")}
	for _, l := range reasonLines(st.reasons) {
		rows = append(rows, row(KindReason, "%s", l))
	}
	if st.snapshot != nil && st.snapshot.RefinedQuery != "" {
		rows = append(rows, row(KindDetail, "Refined query: %q", st.snapshot.RefinedQuery))
	}

	var confidence float64
	var proposed int
	if st.snapshot != nil {
		confidence = st.snapshot.Confidence
		proposed = len(st.snapshot.Filters)
	}

	// Application is decided solely by the presence of filter_applied.
	// A high confidence without it still means the filters were only
	// proposed, never applied.
	switch {
	case st.hasApply:
		n := proposed
		if n == 0 {
			n = 1
		}
		rows = append(rows, row(KindDecision,
			"Confidence = %.2f -> applying %s", confidence, countNoun(n, "filter")))
		if st.applied != nil {
			rows = append(rows, jsonRows(st.applied)...)
		}
	case proposed > 0:
		rows = append(rows, row(KindDecision,
			"Confidence = %.2f -> below threshold, filters not applied", confidence))
		rows = append(rows, row(KindDetail, "Proposed, not applied:"))
		rows = append(rows, jsonRows(st.snapshot.Filters)...)
	default:
		rows = append(rows, row(KindDecision, "No filters proposed"))
	}

	if !closed {
		return append(rows, row(KindStatus, "Query interpretation in progress"))
	}
	rows = append(rows, row(KindComplete, "Query interpretation complete%s", elapsedSuffix(elapsedMS)))
	return append(rows, separator)
}

// expansionState accumulates the query expansion bracket.
type expansionState struct {
	strategy     string
	reasons      []string
	alternatives []string
	doneSeen     bool
}

func (st *expansionState) fold(ev event.Event) {
	switch ev.Type {
	case event.TypeExpansionStart:
		st.strategy = ev.Strategy
	case event.TypeExpansionReasonDelta:
		st.reasons = append(st.reasons, ev.Text)
	case event.TypeExpansionDelta:
		// Cumulative snapshot, but the final payload of expansion_done is
		// guaranteed complete and wins when both occur.
		if !st.doneSeen {
			st.alternatives = ev.Alternatives
		}
	case event.TypeExpansionDone:
		st.alternatives = ev.Alternatives
		st.doneSeen = true
	}
}

func (st *expansionState) flush(closed bool, elapsedMS float64) []Row {
	head := "Expanding query"
	if st.strategy != "" {
		head = fmt.Sprintf("Expanding query (strategy: %s)", st.strategy)
	}
	rows := []Row{row(KindHeader, "%s", head)}
	for _, l := range reasonLines(st.reasons) {
		rows = append(rows, row(KindReason, "%s", l))
	}
	for i, alt := range st.alternatives {
		rows = append(rows, row(KindDetail, "%d. %s", i+1, alt))
	}
	if !closed {
		return append(rows, row(KindStatus, "Query expansion in progress"))
	}
	rows = append(rows, row(KindComplete, "Query expansion complete, %s%s",
		countNoun(len(st.alternatives), "alternative"), elapsedSuffix(elapsedMS)))
	return append(rows, separator)
}

// recencyState accumulates the recency bias bracket.
type recencyState struct {
	weight     float64
	hasWeight  bool
	span       *event.Event
	skipReason string
}

func (st *recencyState) fold(ev event.Event) {
	switch ev.Type {
	case event.TypeRecencyStart:
		st.weight = ev.Weight
		st.hasWeight = true
	case event.TypeRecencySpan:
		span := ev
		st.span = &span
	case event.TypeRecencySkipped:
		st.skipReason = ev.Reason
	}
}

func (st *recencyState) flush(closed bool, elapsedMS float64) []Row {
	rows := []Row{row(KindHeader, "Applying recency bias")}

	// A skipped stage renders only the skip reason: no weight, no span,
	// no applied line.
	if st.skipReason != "" {
		rows = append(rows, row(KindDecision, "Skipped: %s", st.skipReason))
		return append(rows, separator)
	}

	if st.hasWeight {
		rows = append(rows, row(KindDetail, "Requested weight: %.2f", st.weight))
	}
	if st.span != nil {
		rows = append(rows, row(KindDetail, "Window: %s .. %s (%s)",
			st.span.Oldest, st.span.Newest, st.span.Field))
		rows = append(rows, row(KindDetail, "Span: %s", formatSpan(st.span.SpanSeconds)))
	}
	if !closed {
		return append(rows, row(KindStatus, "Recency bias in progress"))
	}
	rows = append(rows, row(KindComplete, "Recency bias applied%s", elapsedSuffix(elapsedMS)))
	return append(rows, separator)
}

// embeddingState accumulates the embedding bracket. Its details are not
// rendered as an own block: they are carried forward and flushed together
// with the vector search block, which presents retrieval as one
// user-facing phase.
type embeddingState struct {
	method      string
	neuralCount int
	sparseCount int
	dimension   int
	model       string
	fallback    string
	doneSeen    bool
}

func (st *embeddingState) fold(ev event.Event) {
	switch ev.Type {
	case event.TypeEmbeddingStart:
		st.method = ev.Method
	case event.TypeEmbeddingDone:
		st.neuralCount = ev.NeuralCount
		st.sparseCount = ev.SparseCount
		st.dimension = ev.Dimension
		st.model = ev.Model
		st.doneSeen = true
	case event.TypeEmbeddingFallback:
		st.fallback = ev.Reason
	}
}

func (st *embeddingState) detailRows() []Row {
	var rows []Row
	if st.doneSeen {
		detail := fmt.Sprintf("Embeddings: %d neural / %d sparse", st.neuralCount, st.sparseCount)
		if st.dimension > 0 {
			detail += fmt.Sprintf(", dim %d", st.dimension)
		}
		if st.model != "" {
			detail += fmt.Sprintf(" (%s)", st.model)
		}
		rows = append(rows, row(KindDetail, "%s", detail))
	}
	if st.fallback != "" {
		rows = append(rows, row(KindDetail, "Embedding fallback: %s", st.fallback))
	}
	return rows
}

// vectorSearchState accumulates the vector search bracket.
type vectorSearchState struct {
	method     string
	batches    int
	finalCount int
	topScores  []float64
	doneSeen   bool
}

func (st *vectorSearchState) fold(ev event.Event) {
	switch ev.Type {
	case event.TypeVectorSearchStart:
		st.method = ev.Method
	case event.TypeVectorSearchBatch:
		st.batches++
	case event.TypeVectorSearchDone:
		st.finalCount = ev.FinalCount
		st.topScores = ev.TopScores
		st.doneSeen = true
	}
}

// flush renders the combined retrieval block: the pending embedding
// details (if any) followed by the vector search summary.
func (st *vectorSearchState) flush(embedding *embeddingState, closed bool, elapsedMS float64) []Row {
	rows := []Row{row(KindHeader, "Retrieving candidates")}
	if embedding != nil {
		rows = append(rows, embedding.detailRows()...)
	}
	if st.method != "" {
		rows = append(rows, row(KindDetail, "Method: %s", st.method))
	}
	if st.batches > 0 {
		rows = append(rows, row(KindDetail, "Batches: %d", st.batches))
	}
	if st.doneSeen {
		rows = append(rows, row(KindDecision, "Retrieved %s",
			countNoun(st.finalCount, "candidate result")))
		if len(st.topScores) > 0 {
			rows = append(rows, row(KindDetail, "Top scores: %s", formatScores(st.topScores)))
		}
	}
	if !closed {
		return append(rows, row(KindStatus, "Retrieval in progress"))
	}
	rows = append(rows, row(KindComplete, "Retrieval complete%s", elapsedSuffix(elapsedMS)))
	return append(rows, separator)
}

// rerankingState accumulates the reranking bracket. The header and the
// reasoning stream render in arrival order; only the final ranked list is
// rendered at the bracket end.
type rerankingState struct {
	k        int
	reasons  []string
	rankings []event.Ranking
	doneSeen bool
}

func (st *rerankingState) fold(ev event.Event) {
	switch ev.Type {
	case event.TypeRerankingStart:
		st.k = ev.K
	case event.TypeRerankingReasonDelta:
		st.reasons = append(st.reasons, ev.Text)
	case event.TypeRerankingDelta:
		if !st.doneSeen {
			st.rankings = ev.Rankings
		}
	case event.TypeRerankingDone:
		st.rankings = ev.Rankings
		st.doneSeen = true
	}
}

// rankedDisplayLimit caps how many ranked entries render individually.
const rankedDisplayLimit = 5

func (st *rerankingState) flush(closed bool, elapsedMS float64) []Row {
	rows := []Row{row(KindHeader, "Reranking results")}
	if st.k > 0 {
		rows = append(rows, row(KindDetail, "Considering top %d results", st.k))
	}
	for _, l := range reasonLines(st.reasons) {
		rows = append(rows, row(KindReason, "%s", l))
	}
	if closed || st.doneSeen {
		shown := st.rankings
		if len(shown) > rankedDisplayLimit {
			shown = shown[:rankedDisplayLimit]
		}
		for i, rk := range shown {
			rows = append(rows, row(KindDetail, "%d. result #%d (score %.2f)", i+1, rk.Index, rk.Score))
		}
		if rest := len(st.rankings) - len(shown); rest > 0 {
			rows = append(rows, row(KindDetail, "...and %d more", rest))
		}
	}
	if !closed {
		return append(rows, row(KindStatus, "Reranking in progress"))
	}
	rows = append(rows, row(KindComplete, "Reranking complete%s", elapsedSuffix(elapsedMS)))
	return append(rows, separator)
}

// filterState accumulates the filter application bracket.
type filterState struct {
	applied  map[string]any
	hasApply bool
}

func (st *filterState) fold(ev event.Event) {
	if ev.Type == event.TypeFilterApplied {
		st.applied = ev.Filter
		st.hasApply = true
	}
}

// flush renders the filter block. merged annotates reconciliation of an
// interpreted filter with a manual one; it is shown only when the
// interpreted (existing) side is non-empty.
func (st *filterState) flush(merged bool, closed bool, elapsedMS float64) []Row {
	rows := []Row{row(KindHeader, "Applying query filter")}
	if merged {
		rows = append(rows, row(KindDetail, "Merged interpreted and manual filters"))
	}
	if st.hasApply {
		rows = append(rows, jsonRows(st.applied)...)
	} else {
		rows = append(rows, row(KindDetail, "No filter applied"))
	}
	if !closed {
		return append(rows, row(KindStatus, "Filter stage in progress"))
	}
	rows = append(rows, row(KindComplete, "Filter stage complete%s", elapsedSuffix(elapsedMS)))
	return append(rows, separator)
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatScores(scores []float64) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%.2f", s)
	}
	return strings.Join(parts, ", ")
}
