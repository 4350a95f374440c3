package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/promobot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
// ExcludeCommands lists slash commands (such as "/cancel") that are never
// limited, so a user can always leave a conversation flow.
type RateLimitOptions struct {
	Interval        time.Duration
	Exclude         map[string]struct{}
	ExcludeCommands map[string]struct{}
	OnLimited       tele.HandlerFunc
}

// userThrottle tracks the last accepted update per user.
type userThrottle struct {
	mu       sync.Mutex
	lastSeen map[int64]time.Time
}

// tryPass reports whether the user is outside the interval and, if so,
// records the hit.
func (t *userThrottle) tryPass(id int64, interval time.Duration) bool {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.lastSeen[id]; ok && now.Sub(last) < interval {
		return false
	}
	t.lastSeen[id] = now
	return true
}

// RateLimitMiddleware enforces a minimum interval between updates from the
// same user. Excluded update kinds and commands always pass.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	throttle := &userThrottle{lastSeen: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 || exempt(opts, c) {
				return next(c)
			}
			if throttle.tryPass(user.ID, opts.Interval) {
				return next(c)
			}

			attrs := []slog.Attr{
				slog.String("event", "tg.rate_limit"),
				slog.Int64("user_id", user.ID),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "rate limit", attrs...)

			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func exempt(opts RateLimitOptions, c tele.Context) bool {
	upd := c.Update()
	kind := "other"
	switch {
	case upd.Callback != nil:
		kind = "callback"
	case upd.Message != nil:
		kind = "message"
	case upd.Query != nil:
		kind = "inline_query"
	}
	if _, skip := opts.Exclude[kind]; skip {
		return true
	}
	if len(opts.ExcludeCommands) == 0 {
		return false
	}
	word := commandWord(c.Text())
	if word == "" {
		return false
	}
	_, skip := opts.ExcludeCommands[word]
	return skip
}
