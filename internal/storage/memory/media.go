package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"math/rand/v2"

	"github.com/m3rciful/promobot/internal/media"
)

// MediaStore is an in-memory media.Store.
type MediaStore struct {
	mu    sync.RWMutex
	items map[string]media.Item
}

// NewMediaStore creates an empty media store.
func NewMediaStore() *MediaStore {
	return &MediaStore{items: make(map[string]media.Item)}
}

// Insert stores a new item; an existing ID is rejected.
func (s *MediaStore) Insert(ctx context.Context, item media.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("media: duplicate id %s", item.ID)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.items[item.ID] = item
	return nil
}

// Delete removes an item and reports whether it existed.
func (s *MediaStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

// Latest returns up to limit items, newest first.
func (s *MediaStore) Latest(ctx context.Context, limit int) ([]media.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sorted()
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Random picks one stored item uniformly.
func (s *MediaStore) Random(ctx context.Context) (media.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.items) == 0 {
		return media.Item{}, media.ErrEmpty
	}
	all := s.sorted()
	return all[rand.IntN(len(all))], nil
}

// Count returns the number of items.
func (s *MediaStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// sorted returns items newest first; ID breaks creation-time ties so the
// order is stable. Callers hold at least the read lock.
func (s *MediaStore) sorted() []media.Item {
	all := make([]media.Item, 0, len(s.items))
	for _, item := range s.items {
		all = append(all, item)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return all
}
