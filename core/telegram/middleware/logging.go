package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// updateDedup remembers recently seen update IDs. The logging middleware can
// run on several routing branches for one update; only the first pass logs.
type updateDedup struct {
	mu   sync.Mutex
	seen map[int]time.Time
	ttl  time.Duration
}

var receiptDedup = updateDedup{seen: make(map[int]time.Time), ttl: 10 * time.Second}

func (d *updateDedup) firstPass(updateID int) bool {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ts := range d.seen {
		if now.Sub(ts) > d.ttl {
			delete(d.seen, id)
		}
	}
	if _, ok := d.seen[updateID]; ok {
		return false
	}
	d.seen[updateID] = now
	return true
}

// LoggerMiddleware stamps the update with a rid, stores the derived context
// on the tele.Context and logs a single sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var userID, chatID int64
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		if ch := c.Chat(); ch != nil {
			chatID = ch.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && receiptDedup.firstPass(upd.ID) {
			logReceipt(ctx, c, rid)
		}
		return next(c)
	}
}

func logReceipt(ctx context.Context, c tele.Context, rid string) {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("rid", rid),
		slog.Int("update_id", upd.ID),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs,
			slog.Int64("chat_id", chat.ID),
			slog.String("chat_type", string(chat.Type)),
		)
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	attrs = append(attrs, receiptKindAttrs(c, upd)...)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
}

// receiptKindAttrs picks the payload detail for the update kind. Callback
// metadata comes from Unique when set, otherwise from the raw data string.
func receiptKindAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	switch {
	case upd.Callback != nil:
		key, payload := upd.Callback.Unique, upd.Callback.Data
		if key == "" {
			key, payload = callbacks.ParseCallbackData(upd.Callback)
		}
		var attrs []slog.Attr
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
		return attrs
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			return []slog.Attr{slog.String("payload", logger.SanitizeLimit(t, 256))}
		}
	}
	return nil
}
