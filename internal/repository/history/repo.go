// Package history persists finished search sessions so their answer and
// process trace can be replayed later.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/searchwire/internal/domain"
	"github.com/kailas-cloud/searchwire/internal/domain/session"
)

// store is the consumer interface for the session archive.
type store interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the session archive on a key-value store. Archives
// expire after the configured TTL; there is no explicit pruning.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a history repository.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Save stores a finished session under its request id.
func (r *Repo) Save(ctx context.Context, a session.Archive) error {
	if a.RequestID == "" {
		return fmt.Errorf("archive has no request id")
	}
	data, err := archiveToBytes(a)
	if err != nil {
		return err
	}
	if err := r.store.SetWithTTL(ctx, r.key(a.RequestID), data, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", a.RequestID, err)
	}
	return nil
}

// Get retrieves one archived session by request id.
func (r *Repo) Get(ctx context.Context, requestID string) (session.Archive, error) {
	data, err := r.store.Get(ctx, r.key(requestID))
	if err != nil {
		return session.Archive{}, err
	}
	return archiveFromBytes(data)
}

// List returns all archived sessions, newest first.
func (r *Repo) List(ctx context.Context) ([]session.Archive, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}

	archives := make([]session.Archive, 0, len(keys))
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if err != nil {
			// Expired between SCAN and GET.
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		a, err := archiveFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse session %s: %w", k, err)
		}
		archives = append(archives, a)
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].FinishedAt.After(archives[j].FinishedAt)
	})

	return archives, nil
}

// Delete removes one archived session.
func (r *Repo) Delete(ctx context.Context, requestID string) error {
	if err := r.store.Del(ctx, r.key(requestID)); err != nil {
		return fmt.Errorf("delete session %s: %w", requestID, err)
	}
	return nil
}

// Key pattern: {prefix}session:{request_id}
func (r *Repo) key(requestID string) string {
	return fmt.Sprintf("%ssession:%s", r.keyPrefix, requestID)
}
