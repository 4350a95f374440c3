package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	keyMessages = "messages"
	keyKB       = "kb"
)

// metricsContext wraps tele.Context so every outgoing message bumps the
// per-update counters that the logging middleware reports.
type metricsContext struct{ tele.Context }

// counted records a successful send and whether it carried a keyboard.
func (m metricsContext) counted(err error, opts []any) error {
	if err != nil {
		return err
	}
	msgs, _ := GetCounters(m.Context)
	m.Set(keyMessages, msgs+1)
	if hasKeyboard(opts) {
		m.Set(keyKB, true)
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what any, opts ...any) error {
	return m.counted(m.Context.Send(what, opts...), opts)
}

func (m metricsContext) Reply(what any, opts ...any) error {
	return m.counted(m.Context.Reply(what, opts...), opts)
}

// Edits count as responses too.
func (m metricsContext) Edit(what any, opts ...any) error {
	return m.counted(m.Context.Edit(what, opts...), opts)
}

func (m metricsContext) EditOrSend(what any, opts ...any) error {
	return m.counted(m.Context.EditOrSend(what, opts...), opts)
}

func (m metricsContext) EditOrReply(what any, opts ...any) error {
	return m.counted(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware instruments context to track messages count and keyboard usage.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyKB, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads message count and keyboard presence from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKB).(bool)
	return msgs, kb
}
