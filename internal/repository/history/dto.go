package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
)

// archiveRow is the msgpack-serializable representation of an archived
// session. The event log keeps its wire JSON form so replaying an archive
// goes through the exact same decode path as a live stream.
type archiveRow struct {
	RequestID  string `msgpack:"request_id"`
	Collection string `msgpack:"collection"`
	Query      string `msgpack:"query"`
	Phase      string `msgpack:"phase"`
	Answer     string `msgpack:"answer"`
	ErrMessage string `msgpack:"err_message,omitempty"`
	FinishedAt int64  `msgpack:"finished_at"`
	EventsJSON []byte `msgpack:"events_json"`
}

// archiveToBytes serializes a domain Archive for storage.
func archiveToBytes(a session.Archive) ([]byte, error) {
	eventsJSON, err := json.Marshal(a.Events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	row := archiveRow{
		RequestID:  a.RequestID,
		Collection: a.Collection,
		Query:      a.Query,
		Phase:      string(a.Phase),
		Answer:     a.Answer,
		ErrMessage: a.ErrMessage,
		FinishedAt: a.FinishedAt.UnixMilli(),
		EventsJSON: eventsJSON,
	}
	data, err := msgpack.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}
	return data, nil
}

// archiveFromBytes hydrates a domain Archive from its stored form.
func archiveFromBytes(data []byte) (session.Archive, error) {
	var row archiveRow
	if err := msgpack.Unmarshal(data, &row); err != nil {
		return session.Archive{}, fmt.Errorf("unmarshal archive: %w", err)
	}

	var events []event.Event
	if len(row.EventsJSON) > 0 {
		if err := json.Unmarshal(row.EventsJSON, &events); err != nil {
			return session.Archive{}, fmt.Errorf("unmarshal events: %w", err)
		}
	}

	phase := session.Phase(row.Phase)
	if !phase.IsValid() {
		return session.Archive{}, fmt.Errorf("invalid phase %q", row.Phase)
	}

	return session.Archive{
		RequestID:  row.RequestID,
		Collection: row.Collection,
		Query:      row.Query,
		Phase:      phase,
		Answer:     row.Answer,
		ErrMessage: row.ErrMessage,
		FinishedAt: time.UnixMilli(row.FinishedAt).UTC(),
		Events:     events,
	}, nil
}
