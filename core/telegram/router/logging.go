package router

import (
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// instrument is the wrapper every routed handler goes through: panics are
// contained and the update gets its rid and derived context.
func instrument(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// statusPair is the status/outcome field pair of a handler summary.
type statusPair struct{ status, outcome string }

func summaryFor(err error) statusPair {
	s := logger.Status(err)
	return statusPair{status: s, outcome: s}
}

// observe runs fn as the named handler and emits the handler.handled summary.
func observe(c tele.Context, name string, start time.Time, fn tele.HandlerFunc, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, name)
	err := fn(c)
	emitSummary(c, name, start, summaryFor(err), err, extras...)
	return err
}

// noteSkip records that the named route saw the update but nothing claimed it.
func noteSkip(c tele.Context, name string, start time.Time, extras ...slog.Attr) {
	emitSummary(c, name, start, statusPair{status: "skip", outcome: "ok"}, nil, extras...)
}

func emitSummary(c tele.Context, name string, start time.Time, sp statusPair, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)

	attrs := []slog.Attr{
		slog.String("status", sp.status),
		slog.String("handler", name),
		slog.String("outcome", sp.outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", name),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

// normalizeHandlerName turns a command key or callback unique into the
// lowercase token reported in the handler field.
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode maps an error to the err_code token: a Code() method wins,
// otherwise the concrete type name stands in.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := err.(interface{ Code() string }); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return codeToken(code)
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return codeToken(t.Name())
	}
	return "UNKNOWN_ERROR"
}

func codeToken(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
}

func parseCallback(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return callbacks.ParseCallbackData(cb)
}
