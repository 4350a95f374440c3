package middleware

import (
	"context"
	"runtime/debug"

	"github.com/m3rciful/promobot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware stops handler panics from escaping the update loop; the
// panic value and stack are logged at error level.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logPanic(c, r)
			}
		}()
		return next(c)
	}
}

// logPanic runs while the panicking frames are still on the stack, so the
// captured trace includes the panic site.
func logPanic(c tele.Context, v any) {
	attrs := []slog.Attr{
		slog.String("event", "tg.panic"),
		slog.Any("err", v),
	}
	if rid, ok := c.Get("rid").(string); ok && rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	attrs = append(attrs, slog.String("stack", string(debug.Stack())))
	logger.TG.LogAttrs(context.Background(), slog.LevelError, "panic recovered", attrs...)
}
