package trace

import (
	"reflect"
	"testing"
)

func TestFormatSpan(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{59.9, "59s"},
		{60, "1m"},
		{3660, "1h 1m"},
		{7200, "2h 0m"},
		{86400, "1d 0h 0m"},
		{90061, "1d 1h 1m"},
		{31536000, "365d 0h 0m"},
	}
	for _, c := range cases {
		if got := formatSpan(c.seconds); got != c.want {
			t.Errorf("formatSpan(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestTextIndentsNestedRows(t *testing.T) {
	rows := []Row{
		row(KindHeader, "Expanding query"),
		row(KindReason, "thinking"),
		row(KindDetail, "1. alt"),
		row(KindComplete, "done"),
		separator,
		row(KindStatus, "Search complete"),
	}
	want := "Expanding query\n  thinking\n  1. alt\n  done\n\nSearch complete"
	if got := Text(rows); got != want {
		t.Fatalf("Text = %q, want %q", got, want)
	}
}

func TestReasonLines(t *testing.T) {
	got := reasonLines([]string{"The query ", "mentions a region.\nApply", "ing a filter.\n"})
	want := []string{"The query mentions a region.", "Applying a filter."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reasonLines = %q, want %q", got, want)
	}
	if got := reasonLines([]string{"  \n ", ""}); got != nil {
		t.Fatalf("blank fragments should yield nil, got %q", got)
	}
}

func TestRedactSystemKeys(t *testing.T) {
	in := map[string]any{
		"must": []any{
			map[string]any{
				"key":   "system_metadata.source",
				"match": map[string]any{"value": "system_metadata.raw"},
			},
			map[string]any{"key": "category"},
		},
		"should": []map[string]any{
			{"key": "system_metadata.tenant"},
		},
	}
	got := redactSystemKeys(in).(map[string]any)

	must := got["must"].([]any)
	if k := must[0].(map[string]any)["key"]; k != "source" {
		t.Errorf("nested key = %v, want source", k)
	}
	// Only "key" fields are display names; values keep the prefix.
	if v := must[0].(map[string]any)["match"].(map[string]any)["value"]; v != "system_metadata.raw" {
		t.Errorf("match value = %v, want untouched", v)
	}
	if k := must[1].(map[string]any)["key"]; k != "category" {
		t.Errorf("plain key = %v, want category", k)
	}
	should := got["should"].([]any)
	if k := should[0].(map[string]any)["key"]; k != "tenant" {
		t.Errorf("should key = %v, want tenant", k)
	}

	// Input is not mutated.
	if k := in["must"].([]any)[0].(map[string]any)["key"]; k != "system_metadata.source" {
		t.Errorf("input mutated: %v", k)
	}
}

func TestJSONRowsRedactForDisplay(t *testing.T) {
	rows := jsonRows(map[string]any{"key": "system_metadata.source"})
	requireRow(t, rows, `"key": "source"`)
	forbidRow(t, rows, "system_metadata")
	for _, r := range rows {
		if r.Kind != KindDetail {
			t.Fatalf("row %q kind = %v, want detail", r.Text, r.Kind)
		}
	}
}
