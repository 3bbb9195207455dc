// Package result defines the search hits carried by results events.
package result

// Result is a single search hit as delivered on the wire.
type Result struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Title   string         `json:"title,omitempty"`
	Content string         `json:"content,omitempty"`
	Source  string         `json:"source,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}
