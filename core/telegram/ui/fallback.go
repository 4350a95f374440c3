package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider supplies the handlers that answer updates no command,
// callback or document route claimed.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
