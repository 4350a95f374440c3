package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/promobot/internal/admins"
)

// AdminStore is the admins.Store backed by the admins table.
type AdminStore struct {
	db *sqlx.DB
}

// NewAdminStore wraps an open connection pool.
func NewAdminStore(db *sqlx.DB) *AdminStore {
	return &AdminStore{db: db}
}

// Add grants admin rights; adding an existing admin changes nothing.
func (s *AdminStore) Add(ctx context.Context, userID, addedBy int64) (bool, error) {
	const q = `
		INSERT INTO admins (user_id, added_by, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, q, userID, addedBy)
	if err != nil {
		return false, fmt.Errorf("add admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add admin: %w", err)
	}
	return n > 0, nil
}

// Remove revokes admin rights and reports whether the user was on the roster.
func (s *AdminStore) Remove(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("remove admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove admin: %w", err)
	}
	return n > 0, nil
}

// List returns the roster in grant order.
func (s *AdminStore) List(ctx context.Context) ([]admins.Admin, error) {
	const q = `
		SELECT user_id, added_by, created_at
		FROM admins
		ORDER BY created_at, user_id`

	var roster []admins.Admin
	if err := s.db.SelectContext(ctx, &roster, q); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return roster, nil
}
