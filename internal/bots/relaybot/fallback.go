package relaybot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
)

// fallbacks routes updates nothing else claimed: free text goes to the
// assistant, everything else gets a short hint.
type fallbacks struct {
	app *App
}

func (f *fallbacks) UnknownText() tele.HandlerFunc {
	return f.app.handleChat
}

func (f *fallbacks) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I cannot do anything with documents.")
	}
}

func (f *fallbacks) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.EditOrSendText(c, "That button has expired.")
	}
}
