package request

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchwire/internal/domain/search/filter"
	"github.com/kailas-cloud/searchwire/internal/domain/search/method"
)

func TestNewAppliesDefaults(t *testing.T) {
	r, err := New("solar panels", Params{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Method() != method.Hybrid {
		t.Errorf("default method should be hybrid, got %s", r.Method())
	}
	if r.Expansion() != method.ExpansionAuto {
		t.Errorf("default expansion should be auto, got %s", r.Expansion())
	}
	if r.ResponseType() != method.ResponseCompletion {
		t.Errorf("default response type should be completion, got %s", r.ResponseType())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("default limit should be %d, got %d", DefaultLimit, r.Limit())
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name  string
		query string
		p     Params
	}{
		{"empty query", "", Params{}},
		{"query too long", strings.Repeat("q", MaxQueryLength+1), Params{}},
		{"bad method", "q", Params{Method: "psychic"}},
		{"bad expansion", "q", Params{Expansion: "always"}},
		{"bad response type", "q", Params{ResponseType: "verbose"}},
		{"recency out of range", "q", Params{RecencyBias: 1.5}},
		{"negative recency", "q", Params{RecencyBias: -0.1}},
		{"negative offset", "q", Params{Offset: -1}},
		{"invalid filter", "q", Params{Filter: filter.Expression{Must: []filter.Condition{{Match: "x"}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.query, tc.p); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewClampsLimit(t *testing.T) {
	r, err := New("q", Params{Limit: MaxLimit + 50})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("limit should clamp to %d, got %d", MaxLimit, r.Limit())
	}
}

func TestWireShape(t *testing.T) {
	r, err := New("solar panels", Params{
		Method:         method.Neural,
		Interpretation: true,
		RecencyBias:    0.3,
		Reranking:      true,
		Filter: filter.Expression{
			Must: []filter.Condition{{Key: "source", Match: "docs"}},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := json.Marshal(r.Wire())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if body["query"] != "solar panels" {
		t.Errorf("unexpected query: %v", body["query"])
	}
	if body["search_method"] != "neural" {
		t.Errorf("unexpected search_method: %v", body["search_method"])
	}
	if body["enable_query_interpretation"] != true {
		t.Errorf("interpretation flag not set")
	}
	if body["recency_bias"] != 0.3 {
		t.Errorf("unexpected recency_bias: %v", body["recency_bias"])
	}
	if _, ok := body["filter"]; !ok {
		t.Error("filter missing from wire body")
	}
}

func TestWireOmitsEmptyFilter(t *testing.T) {
	r, err := New("q", Params{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := json.Marshal(r.Wire())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), `"filter"`) {
		t.Errorf("empty filter should be omitted: %s", data)
	}
}
