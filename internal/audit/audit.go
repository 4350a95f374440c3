// Package audit keeps a trail of roster and content changes.
package audit

import (
	"context"
	"time"
)

// Actions recorded by the bots.
const (
	ActionCatalogAdd    = "catalog.add"
	ActionCatalogDelete = "catalog.delete"
	ActionCatalogImport = "catalog.import"
	ActionMediaAdd      = "media.add"
	ActionMediaDelete   = "media.delete"
	ActionAdminAdd      = "admin.add"
	ActionAdminRemove   = "admin.remove"
)

// Entry is one recorded change.
type Entry struct {
	ID        string    `db:"id"`
	ActorID   int64     `db:"actor_id"`
	Action    string    `db:"action"`
	Subject   string    `db:"subject"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}

// Store persists audit entries. Recent returns entries created at or after
// the cutoff, newest first.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	Recent(ctx context.Context, since time.Time, limit int) ([]Entry, error)
}
