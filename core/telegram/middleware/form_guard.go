package middleware

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// FormSession is the minimal surface the guard needs from a form engine.
type FormSession interface {
	Active(key form.Key) bool
	Handle(c tele.Context) error
}

// FormGuard suspends a command while the sender's form session is active, so
// mid-form slash commands do not fork the conversation: the update is fed to
// the form instead. Exempt commands (such as /cancel) run regardless.
func FormGuard(forms FormSession, exempt ...string) tele.MiddlewareFunc {
	exemptSet := make(map[string]struct{}, len(exempt))
	for _, cmd := range exempt {
		exemptSet[cmd] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if forms == nil {
				return next(c)
			}
			key := form.KeyFromContext(c)
			if !forms.Active(key) {
				return next(c)
			}
			word := commandWord(c.Text())
			if _, ok := exemptSet[word]; ok {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.Debug(ctx, "tg", "form.hold",
				slog.Int64("chat_id", key.ChatID),
				slog.Int64("user_id", key.UserID),
				slog.String("command", word),
			)
			return forms.Handle(c)
		}
	}
}

func commandWord(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		text = text[:i]
	}
	// Commands in groups may carry a bot mention, as in /cancel@promobot.
	if i := strings.Index(text, "@"); i >= 0 {
		text = text[:i]
	}
	return text
}
