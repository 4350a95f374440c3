package router

import (
	"time"

	tg "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/form"

	tele "gopkg.in/telebot.v4"
)

// Forms is the conversational session hook consulted before command routing.
// An active session captures every text and document update of its
// conversation until it completes, is cancelled or expires.
type Forms interface {
	Active(key form.Key) bool
	Handle(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing. An active form
// session wins over command lookup; otherwise the registry fallback and the
// unknown handlers take their turn.
func TextRoutes(forms Forms, reg *tg.Registry, opts TextOptions) []tg.Route {
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: instrument(textHandler(forms, reg, opts))},
		{Endpoint: tele.OnDocument, Handler: instrument(documentHandler(forms, opts))},
	}
}

func textHandler(forms Forms, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()

		if formActive(forms, c) {
			return observe(c, "form", start, forms.Handle)
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return observe(c, normalizeHandlerName(key), start, cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return observe(c, "fallback", start, fb)
			}
		}
		if opts.UnknownText != nil {
			return observe(c, "unknown_text", start, opts.UnknownText)
		}

		noteSkip(c, "unknown_text", start)
		return nil
	}
}

func documentHandler(forms Forms, opts TextOptions) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()

		if formActive(forms, c) {
			return observe(c, "form_document", start, forms.Handle)
		}
		if opts.UnknownDocument != nil {
			return observe(c, "unexpected_document", start, opts.UnknownDocument)
		}

		noteSkip(c, "unexpected_document", start)
		return nil
	}
}

func formActive(forms Forms, c tele.Context) bool {
	return forms != nil && forms.Active(form.KeyFromContext(c))
}
