// Package media stores the viral links the relay bot shares.
package media

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmpty reports that the media pool has no items to pick from.
	ErrEmpty = errors.New("media: no items")
	// ErrNotFound reports that no item exists under the requested ID.
	ErrNotFound = errors.New("media: item not found")
)

// Item is one shareable link.
type Item struct {
	ID        string    `db:"id"`
	URL       string    `db:"url"`
	Title     string    `db:"title"`
	AddedBy   int64     `db:"added_by"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists media items. Latest returns newest first; Random returns
// ErrEmpty when the pool is empty.
type Store interface {
	Insert(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) (bool, error)
	Latest(ctx context.Context, limit int) ([]Item, error)
	Random(ctx context.Context) (Item, error)
	Count(ctx context.Context) (int, error)
}
