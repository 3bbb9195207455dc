package trace

import (
	"encoding/json"
	"strings"
)

// systemMetadataPrefix marks internal system fields in filter keys. The
// prefix is stripped for display only; the underlying filter semantics
// are untouched.
const systemMetadataPrefix = "system_metadata."

// redactSystemKeys returns a display copy of a filter-shaped value with
// the system-field prefix stripped from every nested "key" field. The
// transform recurses through objects and arrays.
func redactSystemKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "key" {
				if s, ok := val.(string); ok {
					out[k] = strings.TrimPrefix(s, systemMetadataPrefix)
					continue
				}
			}
			out[k] = redactSystemKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = redactSystemKeys(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = redactSystemKeys(val)
		}
		return out
	default:
		return v
	}
}

// jsonRows renders a value as indented JSON detail rows, redacted for
// display. Values that cannot be marshaled yield no rows.
func jsonRows(v any) []Row {
	data, err := json.MarshalIndent(redactSystemKeys(v), "", "  ")
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	rows := make([]Row, len(lines))
	for i, l := range lines {
		rows[i] = Row{Kind: KindDetail, Text: l}
	}
	return rows
}
