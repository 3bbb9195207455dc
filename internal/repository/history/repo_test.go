package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/event"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
)

func testArchive(t *testing.T, requestID string, finishedAt time.Time) session.Archive {
	t.Helper()
	return session.Archive{
		RequestID:  requestID,
		Collection: "articles",
		Query:      "solar panel efficiency",
		Phase:      session.Finalized,
		Answer:     "Panels degrade about 0.5% per year.",
		FinishedAt: finishedAt,
		Events: []event.Event{
			{Type: event.TypeConnected, RequestID: requestID},
			{Type: event.TypeStart, Query: "solar panel efficiency"},
			{Type: event.TypeDone},
		},
	}
}

func TestSaveRoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	finished := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var storedKey string
	var storedValue []byte
	var storedTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		storedKey, storedValue, storedTTL = key, value, ttl
		return nil
	}

	if err := repo.Save(context.Background(), testArchive(t, "req-1", finished)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if storedKey != "sw:session:req-1" {
		t.Errorf("key = %q, want sw:session:req-1", storedKey)
	}
	if storedTTL != 72*time.Hour {
		t.Errorf("ttl = %v, want 72h", storedTTL)
	}

	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key != "sw:session:req-1" {
			t.Fatalf("get key = %q", key)
		}
		return storedValue, nil
	}
	got, err := repo.Get(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Query != "solar panel efficiency" || got.Phase != session.Finalized {
		t.Errorf("archive = %+v", got)
	}
	if !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}
	if len(got.Events) != 3 || got.Events[0].Type != event.TypeConnected {
		t.Errorf("events = %+v", got.Events)
	}
}

func TestSaveRejectsMissingRequestID(t *testing.T) {
	repo, _ := newTestRepo(t)
	a := testArchive(t, "", time.Now())
	if err := repo.Save(context.Background(), a); err == nil {
		t.Fatal("expected error for empty request id")
	}
}

func TestGetNotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, domain.ErrNotFound
	}
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	repo, ms := newTestRepo(t)

	older, _ := archiveToBytes(testArchive(t, "req-old", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	newer, _ := archiveToBytes(testArchive(t, "req-new", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	values := map[string][]byte{
		"sw:session:req-old": older,
		"sw:session:req-new": newer,
	}

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "sw:session:*" {
			t.Fatalf("pattern = %q", pattern)
		}
		return []string{"sw:session:req-old", "sw:session:req-new", "sw:session:req-gone"}, nil
	}
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		data, ok := values[key]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return data, nil
	}

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (expired key skipped)", len(got))
	}
	if got[0].RequestID != "req-new" || got[1].RequestID != "req-old" {
		t.Errorf("order = %s, %s", got[0].RequestID, got[1].RequestID)
	}
}

func TestListPropagatesScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(context.Context, string) ([]string, error) {
		return nil, errors.New("connection refused")
	}
	if _, err := repo.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)
	var deleted string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}
	if err := repo.Delete(context.Background(), "req-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != "sw:session:req-1" {
		t.Errorf("deleted = %q", deleted)
	}
}

func TestArchiveBytesRejectBadPhase(t *testing.T) {
	a := testArchive(t, "req-1", time.Now())
	a.Phase = "exploded"
	data, err := archiveToBytes(a)
	if err != nil {
		t.Fatalf("archiveToBytes: %v", err)
	}
	if _, err := archiveFromBytes(data); err == nil {
		t.Fatal("expected invalid phase error")
	}
}
