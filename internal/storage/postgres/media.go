package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/promobot/internal/media"
)

// MediaStore is the media.Store backed by the media_items table.
type MediaStore struct {
	db *sqlx.DB
}

// NewMediaStore wraps an open connection pool.
func NewMediaStore(db *sqlx.DB) *MediaStore {
	return &MediaStore{db: db}
}

// Insert stores one item, stamping a creation time when none is set.
func (s *MediaStore) Insert(ctx context.Context, item media.Item) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO media_items (id, url, title, added_by, created_at)
		VALUES (:id, :url, :title, :added_by, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, item); err != nil {
		return fmt.Errorf("insert media item: %w", err)
	}
	return nil
}

// Delete removes the item and reports whether it existed.
func (s *MediaStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete media item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete media item: %w", err)
	}
	return n > 0, nil
}

// Latest returns up to limit newest items.
func (s *MediaStore) Latest(ctx context.Context, limit int) ([]media.Item, error) {
	const q = `
		SELECT id, url, title, added_by, created_at
		FROM media_items
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	var items []media.Item
	if err := s.db.SelectContext(ctx, &items, q, limit); err != nil {
		return nil, fmt.Errorf("list media items: %w", err)
	}
	return items, nil
}

// Random picks one item uniformly; ErrEmpty when the table is empty.
func (s *MediaStore) Random(ctx context.Context) (media.Item, error) {
	const q = `
		SELECT id, url, title, added_by, created_at
		FROM media_items
		ORDER BY random()
		LIMIT 1`

	var item media.Item
	err := s.db.GetContext(ctx, &item, q)
	if errors.Is(err, sql.ErrNoRows) {
		return media.Item{}, media.ErrEmpty
	}
	if err != nil {
		return media.Item{}, fmt.Errorf("pick media item: %w", err)
	}
	return item, nil
}

// Count returns the number of items.
func (s *MediaStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM media_items`); err != nil {
		return 0, fmt.Errorf("count media items: %w", err)
	}
	return n, nil
}
