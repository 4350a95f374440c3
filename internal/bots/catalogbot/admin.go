package catalogbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promobot/core/logger"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/keyboard"
	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/catalog"
)

const auditDefaultWindow = 24 * time.Hour

func (a *App) handleDelete(c tele.Context) error {
	code, err := catalog.NormalizeCode(commandArg(c))
	if err != nil {
		return tghelpers.SendText(c, "Usage: /del CODE")
	}
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Delete", Unique: cbCatalogDelete, Data: code},
		{Text: "Keep", Unique: cbCatalogKeep, Data: code},
	})
	return tghelpers.SendText(c, fmt.Sprintf("Delete %s?", code), &tele.SendOptions{ReplyMarkup: markup})
}

func (a *App) handleList(c tele.Context) error {
	page := 1
	if arg := commandArg(c); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return tghelpers.SendText(c, "Usage: /list [page]")
		}
		page = n
	}
	text, markup, err := a.renderCatalogPage(tghelpers.BuildContext(c), page)
	if err != nil {
		return err
	}
	if markup != nil {
		return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
	}
	return tghelpers.SendText(c, text)
}

func (a *App) renderCatalogPage(ctx context.Context, page int) (string, *tele.ReplyMarkup, error) {
	entries, total, err := a.catalog.Page(ctx, page)
	if err != nil {
		return "", nil, err
	}
	if total == 0 {
		return "The catalog is empty.", nil, nil
	}
	pages := (total + a.catalog.PageSize() - 1) / a.catalog.PageSize()
	if len(entries) == 0 {
		return fmt.Sprintf("No entries on page %d, the catalog has %d page(s).", page, pages), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Promo codes, page %d/%d (%d total):\n", page, pages, total)
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s\n", e.Code, e.DocURL)
	}

	var nav []keyboard.InlineBtn
	if page > 1 {
		nav = append(nav, keyboard.InlineBtn{Text: "⬅️", Unique: cbCatalogPage, Data: strconv.Itoa(page - 1)})
	}
	if page < pages {
		nav = append(nav, keyboard.InlineBtn{Text: "➡️", Unique: cbCatalogPage, Data: strconv.Itoa(page + 1)})
	}
	var markup *tele.ReplyMarkup
	if len(nav) > 0 {
		markup = keyboard.InlineButtonsNPerRow(nav, 2)
	}
	return strings.TrimRight(b.String(), "\n"), markup, nil
}

func (a *App) handleStats(c tele.Context) error {
	total, err := a.catalog.Count(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog entries: %d\n", total)
	fmt.Fprintf(&b, "Cached admins: %d\n", a.gate.Size())
	fmt.Fprintf(&b, "Active forms: %d", a.engine.Len())
	return tghelpers.SendText(c, b.String())
}

func (a *App) handleAdminList(c tele.Context) error {
	roster, err := a.admins.List(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	if len(roster) == 0 {
		return tghelpers.SendText(c, "Nobody is on the roster yet.")
	}

	rootID := a.cfg.Core.Telegram.AdminID
	var b strings.Builder
	fmt.Fprintf(&b, "Admins (%d):\n", len(roster))
	for _, adm := range roster {
		fmt.Fprintf(&b, "%d since %s", adm.UserID, adm.CreatedAt.Format("2006-01-02"))
		if adm.UserID == rootID {
			b.WriteString(" (root)")
		}
		b.WriteString("\n")
	}
	return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"))
}

func (a *App) handleAdminAdd(c tele.Context) error {
	id, err := strconv.ParseInt(commandArg(c), 10, 64)
	if err != nil || id <= 0 {
		return tghelpers.SendText(c, "Usage: /admin_add USER_ID")
	}

	ctx := tghelpers.BuildContext(c)
	actor := senderID(c)
	added, err := a.admins.Add(ctx, id, actor)
	if err != nil {
		return err
	}
	if !added {
		return tghelpers.SendText(c, fmt.Sprintf("%d is already an admin.", id))
	}
	a.audit.Record(ctx, actor, audit.ActionAdminAdd, strconv.FormatInt(id, 10), "")
	return tghelpers.SendText(c, fmt.Sprintf("%d is now an admin.", id))
}

func (a *App) handleAdminRemove(c tele.Context) error {
	id, err := strconv.ParseInt(commandArg(c), 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "Usage: /admin_del USER_ID")
	}
	if id == a.cfg.Core.Telegram.AdminID {
		return tghelpers.SendText(c, "The root admin cannot be removed.")
	}

	payload := strconv.FormatInt(id, 10)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Revoke", Unique: cbAdminRevoke, Data: payload},
		{Text: "Keep", Unique: cbAdminKeep, Data: payload},
	})
	return tghelpers.SendText(c, fmt.Sprintf("Revoke admin rights of %d?", id),
		&tele.SendOptions{ReplyMarkup: markup})
}

func (a *App) handleAdminReload(c tele.Context) error {
	n, err := a.admins.Reload(tghelpers.BuildContext(c))
	if err != nil {
		return tghelpers.SendText(c, "Reload failed: "+err.Error())
	}
	return tghelpers.SendText(c, fmt.Sprintf("Roster reloaded, %d admin(s).", n))
}

func (a *App) handleAudit(c tele.Context) error {
	since := time.Now().Add(-auditDefaultWindow)
	if arg := commandArg(c); arg != "" {
		t, ok := tghelpers.ParseFlexibleDate(arg)
		if !ok {
			return tghelpers.SendText(c, "Usage: /audit [YYYY-MM-DD]")
		}
		since = t
	}

	entries, err := a.audit.Recent(tghelpers.BuildContext(c), since, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return tghelpers.SendText(c, "No admin actions in that window.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent actions (%d):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %d %s %s", e.CreatedAt.Format("2006-01-02 15:04"), e.ActorID, e.Action, e.Subject)
		if e.Detail != "" {
			fmt.Fprintf(&b, " (%s)", e.Detail)
		}
		b.WriteString("\n")
	}
	return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"))
}

func (a *App) handleImport(c tele.Context) error {
	return tghelpers.SendText(c,
		"Send a .csv document with the header code,doc_url,affiliate_url and I will import it.")
}

// handleImportDocument receives documents outside any form. Non-admin uploads
// are ignored so the import feature stays invisible to regular users.
func (a *App) handleImportDocument(c tele.Context) error {
	if !a.isAdmin(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	actor := senderID(c)

	m := c.Message()
	if m == nil || m.Document == nil {
		return nil
	}
	doc := m.Document
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".csv") {
		return tghelpers.SendText(c, "I only understand .csv documents. See /import.")
	}

	rc, err := c.Bot().File(&doc.File)
	if err != nil {
		logger.Warn(ctx, component, "import.download_failed",
			slog.String("file", doc.FileName),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "Could not download that file, please try again.")
	}
	defer rc.Close()

	report, err := a.catalog.ImportCSV(ctx, actor, rc)
	if err != nil {
		return tghelpers.SendText(c, "Import failed: "+err.Error())
	}
	a.audit.Record(ctx, actor, audit.ActionCatalogImport, doc.FileName,
		fmt.Sprintf("imported=%d skipped=%d", report.Imported, report.Skipped))
	return tghelpers.SendText(c, renderImportReport(report))
}

func renderImportReport(r catalog.ImportReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d, skipped %d.", r.Imported, r.Skipped)
	for _, p := range r.Problems {
		b.WriteString("\n")
		b.WriteString(p)
	}
	return b.String()
}
