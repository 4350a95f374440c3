package admins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/m3rciful/promobot/core/logger"
)

// DefaultCacheTTL bounds how stale the cached roster may get before the next
// admin check reloads it.
const DefaultCacheTTL = 5 * time.Minute

// Cache serves admin checks from an in-memory snapshot of the roster.
//
// The snapshot is explicit state: it is loaded from the store, stamped with
// its load time, and reused until it is older than the TTL. Checks against a
// stale snapshot reload it first; Refresh reloads unconditionally;
// Invalidate drops the snapshot so the next check must reload. The root
// admin from configuration passes checks without touching the roster.
type Cache struct {
	store  Store
	rootID int64
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	ids       map[int64]struct{}
	fetchedAt time.Time
}

// NewCache builds a roster cache; ttl <= 0 selects DefaultCacheTTL.
func NewCache(store Store, rootID int64, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		store:  store,
		rootID: rootID,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured snapshot lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// IsAdmin reports whether the user may run admin commands.
func (c *Cache) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID != 0 && userID == c.rootID {
		return true, nil
	}

	c.mu.RLock()
	if c.ids != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		_, ok := c.ids[userID]
		c.mu.RUnlock()
		return ok, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ids == nil || c.now().Sub(c.fetchedAt) >= c.ttl {
		if err := c.loadLocked(ctx); err != nil {
			return false, err
		}
	}
	_, ok := c.ids[userID]
	return ok, nil
}

// Refresh reloads the snapshot from the store and returns the roster size.
func (c *Cache) Refresh(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return 0, err
	}
	return len(c.ids), nil
}

// Invalidate drops the snapshot; the next check reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.ids = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Size returns the cached roster size, 0 when no snapshot is loaded.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

func (c *Cache) loadLocked(ctx context.Context) error {
	roster, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	ids := make(map[int64]struct{}, len(roster))
	for _, a := range roster {
		ids[a.UserID] = struct{}{}
	}
	c.ids = ids
	c.fetchedAt = c.now()
	logger.Debug(ctx, "cache.admins", "admins.refresh",
		slog.String("cache", "refresh"),
		slog.Int("count", len(ids)),
	)
	return nil
}
