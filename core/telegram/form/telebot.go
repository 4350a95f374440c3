package form

import (
	tele "gopkg.in/telebot.v4"
)

// KeyFromContext derives the session key for an incoming update. Updates
// without a chat or sender map to zero IDs, which never collide with real
// Telegram IDs.
func KeyFromContext(c tele.Context) Key {
	var key Key
	if chat := c.Chat(); chat != nil {
		key.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		key.UserID = sender.ID
	}
	return key
}
