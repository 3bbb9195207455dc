package session

import (
	"time"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
)

// Archive is a finished search session as persisted in the history store.
type Archive struct {
	RequestID  string
	Collection string
	Query      string
	Phase      Phase
	Answer     string
	ErrMessage string
	FinishedAt time.Time
	Events     []event.Event
}

// NewArchive captures the final state of a session for persistence.
func NewArchive(collection string, snap Snapshot, events []event.Event, finishedAt time.Time) Archive {
	return Archive{
		RequestID:  snap.RequestID,
		Collection: collection,
		Query:      snap.Query,
		Phase:      snap.Phase,
		Answer:     snap.Answer,
		ErrMessage: snap.ErrMessage,
		FinishedAt: finishedAt,
		Events:     events,
	}
}
