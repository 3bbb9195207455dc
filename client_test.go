package searchwire

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/searchwire/internal/replay"
)

func replayServer(t *testing.T, cfg replay.Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(replay.NewServer(replay.ScriptSource{}, cfg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := New(baseURL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestSearchEndToEnd(t *testing.T) {
	srv := replayServer(t, replay.Config{})
	client := newTestClient(t, srv.URL)

	s, err := client.Search(context.Background(), "articles", "solar panel efficiency", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := s.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if snap.Phase != PhaseFinalized {
		t.Errorf("phase = %s, want finalized", snap.Phase)
	}
	if !strings.Contains(snap.Answer, "replayed answer") {
		t.Errorf("answer = %q", snap.Answer)
	}
	if len(snap.Results) != 2 {
		t.Errorf("results = %d, want 2", len(snap.Results))
	}
	if snap.RequestID == "" {
		t.Error("missing request id")
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err = %v", err)
	}

	text := s.TraceText()
	for _, want := range []string{"Interpreting query", "Retrieving candidates", "Search complete"} {
		if !strings.Contains(text, want) {
			t.Errorf("trace missing %q:\n%s", want, text)
		}
	}
}

func TestSearchUpdatesDeliverFinalSnapshot(t *testing.T) {
	srv := replayServer(t, replay.Config{})
	client := newTestClient(t, srv.URL)

	s, err := client.Search(context.Background(), "articles", "q", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	var last Snapshot
	for snap := range s.Updates() {
		last = snap
	}
	if last.Phase != PhaseFinalized {
		t.Errorf("final phase = %s, want finalized", last.Phase)
	}
}

func TestSearchValidation(t *testing.T) {
	srv := replayServer(t, replay.Config{})
	client := newTestClient(t, srv.URL)

	if _, err := client.Search(context.Background(), "", "q", nil); err == nil {
		t.Error("expected error for empty collection")
	}
	if _, err := client.Search(context.Background(), "articles", "", nil); err == nil {
		t.Error("expected error for empty query")
	}
	if _, err := client.Search(context.Background(), "articles", "q",
		&SearchOptions{RecencyBias: 2}); err == nil {
		t.Error("expected error for out-of-range recency bias")
	}
}

func TestSearchCancel(t *testing.T) {
	srv := replayServer(t, replay.Config{EventDelayMS: 30})
	client := newTestClient(t, srv.URL)

	s, err := client.Search(context.Background(), "articles", "slow", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	s.Cancel()
	s.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := s.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if snap.Phase != PhaseCancelled {
		t.Errorf("phase = %s, want cancelled", snap.Phase)
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err = %v, want nil after cancel", err)
	}
}

func TestNewSearchSupersedesPrevious(t *testing.T) {
	srv := replayServer(t, replay.Config{EventDelayMS: 30})
	client := newTestClient(t, srv.URL)

	first, err := client.Search(context.Background(), "articles", "first", nil)
	if err != nil {
		t.Fatalf("Search first: %v", err)
	}
	second, err := client.Search(context.Background(), "articles", "second", nil)
	if err != nil {
		t.Fatalf("Search second: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if snap, err := second.Wait(ctx); err != nil || snap.Phase != PhaseFinalized {
		t.Fatalf("second: snap=%+v err=%v", snap, err)
	}

	snap, err := first.Wait(ctx)
	if err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if snap.Phase.Terminal() {
		t.Errorf("superseded search reached terminal phase %s", snap.Phase)
	}
	if !errors.Is(first.Err(), ErrSuperseded) {
		t.Errorf("first.Err() = %v, want ErrSuperseded", first.Err())
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv := replayServer(t, replay.Config{})
	client := newTestClient(t, srv.URL)

	if _, err := client.History().List(context.Background()); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("List err = %v, want ErrHistoryDisabled", err)
	}
	if _, _, err := client.History().Get(context.Background(), "req-1"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("Get err = %v, want ErrHistoryDisabled", err)
	}
	if err := client.History().Delete(context.Background(), "req-1"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("Delete err = %v, want ErrHistoryDisabled", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestNewConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := New("http://localhost:1")
			if err != nil {
				t.Errorf("New: %v", err)
				return
			}
			client.Close()
		}()
	}
	wg.Wait()
}
