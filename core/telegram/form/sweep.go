package form

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/promobot/core/logger"
)

// DefaultSweepInterval is how often Sweep expires aged sessions.
const DefaultSweepInterval = time.Minute

// Sweep runs Expire on a ticker until ctx is done. Abandoned forms survive at
// most Timeout plus one interval.
func (e *Engine) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if reaped := e.Expire(now); reaped > 0 {
				logger.Info(logger.Background(), "form", "form.sweep",
					slog.Int("expired", reaped),
					slog.Int("active", e.Len()),
				)
			}
		}
	}
}
