package replay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/search/request"
	"github.com/kailas-cloud/searchwire/internal/transport/stream"
)

func testServer(t *testing.T, source Source, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(source, cfg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func openStream(t *testing.T, baseURL, apiKey, query string) *stream.Stream {
	t.Helper()
	client, err := stream.NewClient(stream.Config{BaseURL: baseURL, APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	req, err := request.New(query, request.Params{})
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	s, err := client.Open(context.Background(), "articles", &req)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func drain(t *testing.T, s *stream.Stream) []event.Event {
	t.Helper()
	var events []event.Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("stream did not finish, got %d events", len(events))
		}
	}
}

func TestScriptedStreamEndToEnd(t *testing.T) {
	srv := testServer(t, ScriptSource{}, Config{})
	s := openStream(t, srv.URL, "", "solar panel efficiency")
	events := drain(t, s)

	if len(events) == 0 {
		t.Fatal("no events received")
	}
	if events[0].Type != event.TypeConnected || events[0].RequestID == "" {
		t.Fatalf("first event = %+v, want connected with request id", events[0])
	}
	if last := events[len(events)-1]; last.Type != event.TypeDone {
		t.Fatalf("last event = %+v, want done", last)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("stream err = %v", err)
	}

	var answer string
	var sawResults bool
	for _, ev := range events {
		switch ev.Type {
		case event.TypeCompletionDelta:
			answer += ev.Text
		case event.TypeResults:
			sawResults = len(ev.Results) > 0
		}
	}
	if answer != `This is a replayed answer for "solar panel efficiency".` {
		t.Errorf("answer = %q", answer)
	}
	if !sawResults {
		t.Error("no results event received")
	}
}

func TestAuthRejectsInvalidKey(t *testing.T) {
	srv := testServer(t, ScriptSource{}, Config{APIKeys: []string{"secret"}})

	client, err := stream.NewClient(stream.Config{BaseURL: srv.URL, APIKey: "wrong"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	req, _ := request.New("q", request.Params{})
	_, err = client.Open(context.Background(), "articles", &req)

	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", statusErr.StatusCode)
	}
}

func TestAuthAcceptsValidKey(t *testing.T) {
	srv := testServer(t, ScriptSource{}, Config{APIKeys: []string{"secret"}})
	s := openStream(t, srv.URL, "secret", "q")
	events := drain(t, s)
	if len(events) == 0 {
		t.Fatal("no events with valid key")
	}
}

func TestEmptyQueryRejected(t *testing.T) {
	srv := testServer(t, ScriptSource{}, Config{})
	resp, err := http.Post(srv.URL+"/collections/articles/search/stream",
		"application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthBypassesAuth(t *testing.T) {
	srv := testServer(t, ScriptSource{}, Config{APIKeys: []string{"secret"}})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestFixtureSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.ndjson")
	fixture := `# demo session
{"type":"connected","request_id":"req-fix"}

{"type":"completion_delta","text":"hi"}
not even json
{"type":"done"}
`
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	source, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	srv := testServer(t, source, Config{})
	s := openStream(t, srv.URL, "", "anything")
	events := drain(t, s)

	// The malformed line reaches the wire and is dropped client-side.
	want := []event.Type{event.TypeConnected, event.TypeCompletionDelta, event.TypeDone}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Type, want[i])
		}
	}
}

func TestLoadFixtureRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ndjson")
	if err := os.WriteFile(path, []byte("# only comments\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for empty fixture")
	}
}

type stubHistory struct {
	events map[string][]event.Event
}

func (s *stubHistory) EventsFor(requestID string) ([]event.Event, error) {
	events, ok := s.events[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return events, nil
}

func TestArchiveSourceReplaysStoredSession(t *testing.T) {
	history := &stubHistory{events: map[string][]event.Event{
		"req-42": {
			{Type: event.TypeConnected, RequestID: "req-42"},
			{Type: event.TypeDone},
		},
	}}
	srv := testServer(t, NewArchiveSource(history), Config{})

	s := openStream(t, srv.URL, "", "req-42")
	events := drain(t, s)
	if len(events) != 2 || events[0].RequestID != "req-42" {
		t.Fatalf("events = %+v", events)
	}
}

func TestArchiveSourceUnknownSession(t *testing.T) {
	srv := testServer(t, NewArchiveSource(&stubHistory{}), Config{})

	client, _ := stream.NewClient(stream.Config{BaseURL: srv.URL})
	req, _ := request.New("req-missing", request.Params{})
	_, err := client.Open(context.Background(), "articles", &req)

	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", statusErr.StatusCode)
	}
}

func TestClientCancelStopsReplay(t *testing.T) {
	srv := testServer(t, ScriptSource{}, Config{EventDelayMS: 50})
	s := openStream(t, srv.URL, "", "slow query")

	// Let a few events through, then abort.
	var events []event.Event
	for ev := range s.Events() {
		events = append(events, ev)
		if len(events) == 2 {
			s.Cancel()
		}
	}

	if last := events[len(events)-1]; last.Type != event.TypeCancelled {
		t.Fatalf("last event = %s, want cancelled", last.Type)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("stream err = %v, want nil after cancel", err)
	}
}
