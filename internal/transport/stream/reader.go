package stream

import (
	"bufio"
	"io"
	"strings"
)

// frameReader splits a Server-Sent-Events byte stream into frame payloads.
// A frame is one or more data: lines terminated by a blank line; the
// prefixes are stripped and the lines joined with a newline. Comment lines
// (":"-prefixed) and unknown field lines are skipped.
type frameReader struct {
	r *bufio.Reader
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: bufio.NewReader(r)}
}

// Next blocks until a complete frame is available and returns its payload.
// Returns io.EOF when the stream ends cleanly; a frame still open at EOF
// is returned as-is (best effort, the stream may have been truncated).
func (f *frameReader) Next() ([]byte, error) {
	var data []string

	for {
		line, err := f.r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			// Blank line closes the frame. Leading blank lines between
			// frames produce no payload and are skipped.
			if err == nil && len(data) == 0 {
				continue
			}
		case strings.HasPrefix(line, ":"):
			// SSE comment, used by servers as keepalive.
		default:
			if payload, ok := strings.CutPrefix(line, "data:"); ok {
				data = append(data, strings.TrimPrefix(payload, " "))
			}
			// Other SSE fields (event:, id:, retry:) are not part of the
			// wire contract and are ignored.
		}

		if err != nil {
			if err == io.EOF && len(data) > 0 {
				return []byte(strings.Join(data, "\n")), nil
			}
			return nil, err
		}
		if line == "" && len(data) > 0 {
			return []byte(strings.Join(data, "\n")), nil
		}
	}
}
