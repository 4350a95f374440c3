package audit

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/promobot/core/logger"
)

const component = "service.audit"

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 50
)

// Recorder writes audit entries on a best-effort basis.
type Recorder struct {
	store Store
}

// NewRecorder builds a recorder; a nil store yields a recorder that drops
// everything, which keeps call sites unconditional.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record persists one entry. Failures are logged and swallowed so an audit
// hiccup never blocks the action being recorded.
func (r *Recorder) Record(ctx context.Context, actorID int64, action, subject, detail string) {
	if r == nil || r.store == nil {
		return
	}
	e := Entry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		Subject:   subject,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, e); err != nil {
		logger.Warn(ctx, component, "audit.record_failed",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, component, "audit.record",
		slog.String("op", action),
		slog.Int64("user_id", actorID),
	)
}

// Recent lists entries since the cutoff, newest first. limit <= 0 selects a
// default page; requests beyond the cap are clamped.
func (r *Recorder) Recent(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	entries, err := r.store.Recent(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
