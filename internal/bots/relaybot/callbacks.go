package relaybot

import (
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
)

const cbFormCancel = "form_cancel"

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	_ = reg.RegisterCallback(cbFormCancel, a.handleFormCancel)
}

func (a *App) handleFormCancel(c tele.Context) error {
	if a.engine.Cancel(form.KeyFromContext(c)) {
		return tghelpers.EditOrSendMD(c, "Cancelled.")
	}
	return tghelpers.EditOrSendMD(c, "Nothing to cancel.")
}
