package trace

import (
	"fmt"
	"strings"
)

// Kind classifies a trace row for presentation. The text itself is plain,
// copy-safe, and carries the full meaning without the kind.
type Kind int

// Row kinds.
const (
	// KindStatus is a single-line status message outside any stage block.
	KindStatus Kind = iota
	// KindHeader opens a stage block.
	KindHeader
	// KindReason is a streamed model-reasoning line inside a block.
	KindReason
	// KindDetail is a nested detail line inside a block.
	KindDetail
	// KindDecision is a stage outcome line.
	KindDecision
	// KindComplete closes a finished stage block.
	KindComplete
	// KindSeparator visually separates stage blocks.
	KindSeparator
	// KindError is a low-emphasis inline error row.
	KindError
)

// Row is one rendered unit of the reconstructed process log.
type Row struct {
	Kind Kind
	Text string
}

func row(kind Kind, format string, args ...any) Row {
	if len(args) == 0 {
		return Row{Kind: kind, Text: format}
	}
	return Row{Kind: kind, Text: fmt.Sprintf(format, args...)}
}

var separator = Row{Kind: KindSeparator}

// Text renders rows as plain text, suitable for clipboard export.
func Text(rows []Row) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch r.Kind {
		case KindHeader, KindStatus, KindError, KindSeparator:
			b.WriteString(r.Text)
		default:
			b.WriteString("  ")
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// formatSpan renders a duration in seconds as "Xd Yh Zm". Sub-minute
// spans render as seconds.
func formatSpan(seconds float64) string {
	total := int64(seconds)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	days := total / 86400
	hours := (total % 86400) / 3600
	mins := (total % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", mins))
	return strings.Join(parts, " ")
}

// elapsedSuffix renders the operator elapsed time for complete lines.
func elapsedSuffix(elapsedMS float64) string {
	if elapsedMS <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%.0f ms)", elapsedMS)
}

// reasonLines splits accumulated reasoning deltas into displayable lines.
// Deltas are arbitrary text fragments, so they are joined first and split
// on newlines afterwards.
func reasonLines(fragments []string) []string {
	joined := strings.Join(fragments, "")
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(joined, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
