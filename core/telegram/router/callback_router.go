package router

import (
	"time"

	tg "github.com/m3rciful/promobot/core/telegram"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns a handler that routes callbacks through the registry.
// Unknown keys land on the registry's not-found handler, which the registry
// guarantees to be set; override it with SetCallbackNotFound.
func CallbackRoute(reg *tg.Registry) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  instrument(callbackHandler(reg)),
	}
}

func callbackHandler(reg *tg.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		start := time.Now()

		key, _ := parseCallback(cb)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		// Answer the callback query up front; clients show a spinner on the
		// pressed button until it is acknowledged.
		_ = c.Respond()

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
		}
		if h == nil {
			noteSkip(c, name, start, extras...)
			return nil
		}
		return observe(c, name, start, h, extras...)
	}
}
