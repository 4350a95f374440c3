// Package admins owns the admin roster and its read cache.
package admins

import (
	"context"
	"time"
)

// Admin is one roster row.
type Admin struct {
	UserID    int64     `db:"user_id"`
	AddedBy   int64     `db:"added_by"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists the roster. Add reports whether the user was newly added;
// adding an existing admin is a no-op. List returns rows ordered by creation.
type Store interface {
	Add(ctx context.Context, userID, addedBy int64) (bool, error)
	Remove(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]Admin, error)
}
