package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrStreamClosed signals a use of an already-finished stream.
	ErrStreamClosed = errors.New("stream closed")
	// ErrSuperseded signals a stream invalidated by a newer search.
	ErrSuperseded = errors.New("stream superseded by a newer search")
	// ErrIdleTimeout signals a stream with no activity for too long.
	ErrIdleTimeout = errors.New("stream idle timeout")
	// ErrHistoryDisabled signals that no session archive is configured.
	ErrHistoryDisabled = errors.New("session history is not configured")
)

// StatusError is a non-success HTTP response received before any event
// was streamed. The body text is preserved as the message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search stream request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("search stream request failed with status %d: %s", e.StatusCode, e.Body)
}

// ProtocolError is a terminal error event received mid-stream. Message and
// originating operation are preserved verbatim for display.
type ProtocolError struct {
	Message   string
	Operation string
}

func (e *ProtocolError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("search failed during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("search failed: %s", e.Message)
}
