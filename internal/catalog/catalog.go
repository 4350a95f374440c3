// Package catalog maps promo codes to their document and affiliate links.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no entry exists for the requested code.
var ErrNotFound = errors.New("catalog: entry not found")

// Entry is one promo code with its published links. AffiliateURL may be
// empty for entries that only carry a document.
type Entry struct {
	Code         string    `db:"code"`
	DocURL       string    `db:"doc_url"`
	AffiliateURL string    `db:"affiliate_url"`
	AddedBy      int64     `db:"added_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Store persists catalog entries. Upsert reports whether the entry was
// created (true) or replaced an existing code. List returns entries ordered
// by code.
type Store interface {
	Upsert(ctx context.Context, e Entry) (bool, error)
	GetByCode(ctx context.Context, code string) (Entry, error)
	Delete(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}
