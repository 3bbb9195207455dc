// Package request builds validated search requests for the streaming API.
package request

import (
	"fmt"

	"github.com/kailas-cloud/searchwire/internal/domain/search/filter"
	"github.com/kailas-cloud/searchwire/internal/domain/search/method"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
	// MaxRecencyBias is the upper bound of the recency bias weight.
	MaxRecencyBias = 1.0
)

// Request is a validated streaming search request. It maps one-to-one onto
// the JSON body of the search-stream endpoint.
type Request struct {
	query          string
	searchMethod   method.Method
	expansion      method.ExpansionStrategy
	interpretation bool
	recencyBias    float64
	reranking      bool
	responseType   method.ResponseType
	filters        filter.Expression
	limit          int
	offset         int
}

// Params carries the raw options of a search submission before validation.
type Params struct {
	Method         method.Method
	Expansion      method.ExpansionStrategy
	Interpretation bool
	RecencyBias    float64
	Reranking      bool
	ResponseType   method.ResponseType
	Filter         filter.Expression
	Limit          int
	Offset         int
}

// New validates and normalizes search parameters.
// Defaults: method=hybrid, expansion=auto, response_type=completion,
// limit=20. A recency bias of 0 disables the recency stage.
func New(query string, p Params) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if p.Method == "" {
		p.Method = method.Hybrid
	}
	if !p.Method.IsValid() {
		return Request{}, fmt.Errorf("invalid search method: %q", p.Method)
	}
	if p.Expansion == "" {
		p.Expansion = method.ExpansionAuto
	}
	if !p.Expansion.IsValid() {
		return Request{}, fmt.Errorf("invalid expansion strategy: %q", p.Expansion)
	}
	if p.ResponseType == "" {
		p.ResponseType = method.ResponseCompletion
	}
	if !p.ResponseType.IsValid() {
		return Request{}, fmt.Errorf("invalid response type: %q", p.ResponseType)
	}
	if p.RecencyBias < 0 || p.RecencyBias > MaxRecencyBias {
		return Request{}, fmt.Errorf("recency_bias must be between 0 and %g", MaxRecencyBias)
	}
	if err := p.Filter.Validate(); err != nil {
		return Request{}, fmt.Errorf("filter: %w", err)
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		return Request{}, fmt.Errorf("offset must not be negative")
	}

	return Request{
		query:          query,
		searchMethod:   p.Method,
		expansion:      p.Expansion,
		interpretation: p.Interpretation,
		recencyBias:    p.RecencyBias,
		reranking:      p.Reranking,
		responseType:   p.ResponseType,
		filters:        p.Filter,
		limit:          p.Limit,
		offset:         p.Offset,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Method returns the retrieval strategy.
func (r *Request) Method() method.Method { return r.searchMethod }

// Expansion returns the query expansion strategy.
func (r *Request) Expansion() method.ExpansionStrategy { return r.expansion }

// Interpretation reports whether query interpretation is enabled.
func (r *Request) Interpretation() bool { return r.interpretation }

// RecencyBias returns the recency bias weight (0 disables the stage).
func (r *Request) RecencyBias() float64 { return r.recencyBias }

// Reranking reports whether reranking is enabled.
func (r *Request) Reranking() bool { return r.reranking }

// ResponseType returns the response mode.
func (r *Request) ResponseType() method.ResponseType { return r.responseType }

// Filters returns the manual pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Offset returns the result offset.
func (r *Request) Offset() int { return r.offset }

// wireRequest is the JSON body of the search-stream endpoint.
type wireRequest struct {
	Query          string             `json:"query"`
	SearchMethod   string             `json:"search_method"`
	Expansion      string             `json:"expansion_strategy"`
	Interpretation bool               `json:"enable_query_interpretation"`
	RecencyBias    float64            `json:"recency_bias"`
	Reranking      bool               `json:"enable_reranking"`
	ResponseType   string             `json:"response_type"`
	Filter         *filter.Expression `json:"filter,omitempty"`
	Limit          int                `json:"limit"`
	Offset         int                `json:"offset"`
}

// Wire returns the JSON-marshalable body for the streaming endpoint.
func (r *Request) Wire() any {
	w := wireRequest{
		Query:          r.query,
		SearchMethod:   string(r.searchMethod),
		Expansion:      string(r.expansion),
		Interpretation: r.interpretation,
		RecencyBias:    r.recencyBias,
		Reranking:      r.reranking,
		ResponseType:   string(r.responseType),
		Limit:          r.limit,
		Offset:         r.offset,
	}
	if !r.filters.IsEmpty() {
		f := r.filters
		w.Filter = &f
	}
	return w
}
