package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/promobot/internal/audit"
)

// AuditStore is the audit.Store backed by the audit_log table.
type AuditStore struct {
	db *sqlx.DB
}

// NewAuditStore wraps an open connection pool.
func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Insert appends one audit entry.
func (s *AuditStore) Insert(ctx context.Context, e audit.Entry) error {
	const q = `
		INSERT INTO audit_log (id, actor_id, action, subject, detail, created_at)
		VALUES (:id, :actor_id, :action, :subject, :detail, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns entries created at or after the cutoff, newest first.
func (s *AuditStore) Recent(ctx context.Context, since time.Time, limit int) ([]audit.Entry, error) {
	const q = `
		SELECT id, actor_id, action, subject, detail, created_at
		FROM audit_log
		WHERE created_at >= $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	var entries []audit.Entry
	if err := s.db.SelectContext(ctx, &entries, q, since, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
