package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/promobot/core/logger"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminChecker answers membership questions against the admin roster.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminOptions defines how admin-only checks behave. RootID always passes;
// Checker extends the allowed set to the stored roster. With neither
// configured the check is disabled and everyone passes.
type AdminOptions struct {
	RootID   int64
	Checker  AdminChecker
	OnReject tele.HandlerFunc
}

// Allowed reports whether userID may run admin-only handlers. Roster lookup
// failures count as rejection; the root ID passes regardless.
func Allowed(ctx context.Context, opts AdminOptions, userID int64) bool {
	if opts.RootID == 0 && opts.Checker == nil {
		return true
	}
	if opts.RootID != 0 && userID == opts.RootID {
		return true
	}
	if opts.Checker == nil {
		return false
	}
	ok, err := opts.Checker.IsAdmin(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "tg", "admin.check_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return ok
}

// AdminOnlyMiddleware ensures that only roster admins can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			var userID int64
			if sender := c.Sender(); sender != nil {
				userID = sender.ID
			}
			if !Allowed(tghelpers.BuildContext(c), opts, userID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
