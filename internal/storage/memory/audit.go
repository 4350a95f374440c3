package memory

import (
	"context"
	"sort"
	"sync"

	"time"

	"github.com/m3rciful/promobot/internal/audit"
)

// AuditStore is an in-memory audit.Store.
type AuditStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

// NewAuditStore creates an empty audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Insert appends one entry.
func (s *AuditStore) Insert(ctx context.Context, e audit.Entry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// Recent returns entries created at or after the cutoff, newest first.
func (s *AuditStore) Recent(ctx context.Context, since time.Time, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, e := range s.entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
