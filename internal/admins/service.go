package admins

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/m3rciful/promobot/core/logger"
)

const component = "service.admins"

// Service writes roster changes through to the store and keeps the cache in
// step with them.
type Service struct {
	store Store
	cache *Cache
}

// NewService builds an admin roster service.
func NewService(store Store, cache *Cache) *Service {
	return &Service{store: store, cache: cache}
}

// Add grants admin rights; reports whether the user was newly added.
func (s *Service) Add(ctx context.Context, userID, addedBy int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("user id must be positive")
	}
	added, err := s.store.Add(ctx, userID, addedBy)
	if err != nil {
		return false, fmt.Errorf("add admin: %w", err)
	}
	if added {
		logger.Info(ctx, component, "admin.add", slog.Int64("admin_id", userID))
		s.refresh(ctx)
	}
	return added, nil
}

// Remove revokes admin rights; reports whether the user was on the roster.
func (s *Service) Remove(ctx context.Context, userID int64) (bool, error) {
	existed, err := s.store.Remove(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("remove admin: %w", err)
	}
	if existed {
		logger.Info(ctx, component, "admin.remove", slog.Int64("admin_id", userID))
		s.refresh(ctx)
	}
	return existed, nil
}

// List returns the roster straight from the store.
func (s *Service) List(ctx context.Context) ([]Admin, error) {
	roster, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return roster, nil
}

// Reload forces a cache refresh and returns the roster size.
func (s *Service) Reload(ctx context.Context) (int, error) {
	n, err := s.cache.Refresh(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, component, "admin.reload", slog.Int("count", n))
	return n, nil
}

// refresh keeps the cache current after a roster write. The write already
// landed, so a failed reload only logs; the TTL caps the staleness window.
func (s *Service) refresh(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Refresh(ctx); err != nil {
		logger.Warn(ctx, component, "admin.cache_refresh_failed",
			slog.String("err", err.Error()),
		)
	}
}
