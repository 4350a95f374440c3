// Package postgres implements the domain stores on PostgreSQL through sqlx.
// Schema lives in the migrations directory.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/promobot/internal/catalog"
)

// CatalogStore is the catalog.Store backed by the catalog_entries table.
type CatalogStore struct {
	db *sqlx.DB
}

// NewCatalogStore wraps an open connection pool.
func NewCatalogStore(db *sqlx.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Upsert inserts or replaces one entry. xmax = 0 only holds for a freshly
// inserted row, which distinguishes create from replace in one round trip.
func (s *CatalogStore) Upsert(ctx context.Context, e catalog.Entry) (bool, error) {
	const q = `
		INSERT INTO catalog_entries (code, doc_url, affiliate_url, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE SET
			doc_url = EXCLUDED.doc_url,
			affiliate_url = EXCLUDED.affiliate_url,
			added_by = EXCLUDED.added_by,
			updated_at = NOW()
		RETURNING (xmax = 0)`

	var created bool
	err := s.db.QueryRowxContext(ctx, q, e.Code, e.DocURL, e.AffiliateURL, e.AddedBy).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert catalog entry: %w", err)
	}
	return created, nil
}

// GetByCode returns the entry for a code.
func (s *CatalogStore) GetByCode(ctx context.Context, code string) (catalog.Entry, error) {
	const q = `
		SELECT code, doc_url, affiliate_url, added_by, created_at, updated_at
		FROM catalog_entries
		WHERE code = $1`

	var e catalog.Entry
	err := s.db.GetContext(ctx, &e, q, code)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("get catalog entry: %w", err)
	}
	return e, nil
}

// Delete removes the entry and reports whether it existed.
func (s *CatalogStore) Delete(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("delete catalog entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete catalog entry: %w", err)
	}
	return n > 0, nil
}

// List returns a window of entries ordered by code.
func (s *CatalogStore) List(ctx context.Context, offset, limit int) ([]catalog.Entry, error) {
	const q = `
		SELECT code, doc_url, affiliate_url, added_by, created_at, updated_at
		FROM catalog_entries
		ORDER BY code
		LIMIT $1 OFFSET $2`

	var entries []catalog.Entry
	if err := s.db.SelectContext(ctx, &entries, q, limit, offset); err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries.
func (s *CatalogStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM catalog_entries`); err != nil {
		return 0, fmt.Errorf("count catalog entries: %w", err)
	}
	return n, nil
}
