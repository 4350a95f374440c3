package catalogbot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/callbacks"
	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/internal/audit"
)

// Callback keys. Telebot encodes them as the unique part of the button data.
const (
	cbFormCancel    = "form_cancel"
	cbCatalogDelete = "catalog_del"
	cbCatalogKeep   = "catalog_keep"
	cbCatalogPage   = "catalog_page"
	cbAdminRevoke   = "admin_revoke"
	cbAdminKeep     = "admin_keep"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	_ = reg.RegisterCallback(cbFormCancel, a.handleFormCancel)
	_ = reg.RegisterCallback(cbCatalogDelete, a.adminCallback(a.handleDeleteConfirmed))
	_ = reg.RegisterCallback(cbCatalogKeep, a.adminCallback(a.handleDeleteKept))
	_ = reg.RegisterCallback(cbCatalogPage, a.adminCallback(a.handlePageFlip))
	_ = reg.RegisterCallback(cbAdminRevoke, a.adminCallback(a.handleAdminRevokeConfirmed))
	_ = reg.RegisterCallback(cbAdminKeep, a.adminCallback(a.handleAdminKept))
}

// adminCallback drops button presses from non-admins. The command middleware
// never sees callbacks, so admin-only buttons are gated here.
func (a *App) adminCallback(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.isAdmin(c) {
			return nil
		}
		return next(c)
	}
}

func (a *App) handleFormCancel(c tele.Context) error {
	if a.engine.Cancel(form.KeyFromContext(c)) {
		return tghelpers.EditOrSendMD(c, "Cancelled.")
	}
	return tghelpers.EditOrSendMD(c, "Nothing to cancel.")
}

func (a *App) handleDeleteConfirmed(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	code := callbacks.CallbackPayload(c)

	removed, err := a.catalog.Remove(ctx, code)
	if err != nil {
		return err
	}
	if !removed {
		return tghelpers.EditOrSendText(c, "Already gone.")
	}
	a.audit.Record(ctx, senderID(c), audit.ActionCatalogDelete, code, "")
	return tghelpers.EditOrSendText(c, fmt.Sprintf("Deleted %s.", code))
}

func (a *App) handleDeleteKept(c tele.Context) error {
	return tghelpers.EditOrSendText(c, fmt.Sprintf("Kept %s.", callbacks.CallbackPayload(c)))
}

func (a *App) handlePageFlip(c tele.Context) error {
	page, err := callbacks.PayloadInt(c)
	if err != nil || page < 1 {
		page = 1
	}
	text, markup, err := a.renderCatalogPage(tghelpers.BuildContext(c), page)
	if err != nil {
		return err
	}
	if markup != nil {
		return tghelpers.EditOrSendText(c, text, markup)
	}
	return tghelpers.EditOrSendText(c, text)
}

func (a *App) handleAdminRevokeConfirmed(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.EditOrSendText(c, "That button has expired.")
	}

	ctx := tghelpers.BuildContext(c)
	removed, err := a.admins.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return tghelpers.EditOrSendText(c, fmt.Sprintf("%d is not on the roster.", id))
	}
	a.audit.Record(ctx, senderID(c), audit.ActionAdminRemove, strconv.FormatInt(id, 10), "")
	return tghelpers.EditOrSendText(c, fmt.Sprintf("%d is no longer an admin.", id))
}

func (a *App) handleAdminKept(c tele.Context) error {
	return tghelpers.EditOrSendText(c, "Kept.")
}
