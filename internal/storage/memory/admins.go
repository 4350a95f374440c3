package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/promobot/internal/admins"
)

// AdminStore is an in-memory admins.Store.
type AdminStore struct {
	mu     sync.RWMutex
	roster map[int64]admins.Admin
}

// NewAdminStore creates an empty roster store.
func NewAdminStore() *AdminStore {
	return &AdminStore{roster: make(map[int64]admins.Admin)}
}

// Add inserts a roster row; adding an existing admin reports false.
func (s *AdminStore) Add(ctx context.Context, userID, addedBy int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roster[userID]; exists {
		return false, nil
	}
	s.roster[userID] = admins.Admin{
		UserID:    userID,
		AddedBy:   addedBy,
		CreatedAt: time.Now().UTC(),
	}
	return true, nil
}

// Remove deletes a roster row and reports whether it existed.
func (s *AdminStore) Remove(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.roster[userID]
	delete(s.roster, userID)
	return ok, nil
}

// List returns the roster ordered by creation time, then user ID.
func (s *AdminStore) List(ctx context.Context) ([]admins.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]admins.Admin, 0, len(s.roster))
	for _, a := range s.roster {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].UserID < all[j].UserID
	})
	return all, nil
}
