package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/promobot/internal/catalog"
)

// CatalogStore is an in-memory catalog.Store.
type CatalogStore struct {
	mu      sync.RWMutex
	entries map[string]catalog.Entry
}

// NewCatalogStore creates an empty catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{entries: make(map[string]catalog.Entry)}
}

// Upsert stores the entry, keeping the original creation time on replace.
func (s *CatalogStore) Upsert(ctx context.Context, e catalog.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	old, exists := s.entries[e.Code]
	if exists {
		e.CreatedAt = old.CreatedAt
	} else {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	s.entries[e.Code] = e
	return !exists, nil
}

// GetByCode returns the entry for a code.
func (s *CatalogStore) GetByCode(ctx context.Context, code string) (catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[code]
	if !ok {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return e, nil
}

// Delete removes the entry and reports whether it existed.
func (s *CatalogStore) Delete(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[code]
	delete(s.entries, code)
	return ok, nil
}

// List returns a window of entries ordered by code.
func (s *CatalogStore) List(ctx context.Context, offset, limit int) ([]catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]catalog.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Count returns the number of entries.
func (s *CatalogStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
