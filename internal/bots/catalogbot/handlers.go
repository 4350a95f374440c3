package catalogbot

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promobot/core/buildinfo"
	coretelegram "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/commands"
	"github.com/m3rciful/promobot/core/telegram/form"
	"github.com/m3rciful/promobot/core/telegram/format"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/internal/catalog"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "What this bot does",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp(reg),
		Description: "List available commands",
	})
	reg.RegisterCommand("/get", commands.Command{
		Handler:     a.handleGet,
		Description: "Look up a promo code",
		Aliases:     []string{"code"},
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Abort the current form",
	})
	reg.RegisterCommand("/version", commands.Command{
		Handler:     a.handleVersion,
		Description: "Show build information",
		Hidden:      true,
	})

	reg.RegisterCommand("/add", commands.Command{
		Handler:     a.handleAdd,
		Description: "Add or replace a promo entry",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/del", commands.Command{
		Handler:     a.handleDelete,
		Description: "Delete a promo entry",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/list", commands.Command{
		Handler:     a.handleList,
		Description: "Browse the catalog",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/import", commands.Command{
		Handler:     a.handleImport,
		Description: "Import entries from a CSV document",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Catalog counters",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/admins", commands.Command{
		Handler:     a.handleAdminList,
		Description: "Show the admin roster",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/admin_add", commands.Command{
		Handler:     a.handleAdminAdd,
		Description: "Grant admin rights",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/admin_del", commands.Command{
		Handler:     a.handleAdminRemove,
		Description: "Revoke admin rights",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/admins_reload", commands.Command{
		Handler:     a.handleAdminReload,
		Description: "Reload the admin roster from the database",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/audit", commands.Command{
		Handler:     a.handleAudit,
		Description: "Show recent admin actions",
		AdminOnly:   true,
	})
}

func senderID(c tele.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}

func commandArg(c tele.Context) string {
	if m := c.Message(); m != nil {
		return strings.TrimSpace(m.Payload)
	}
	return ""
}

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c,
		"Send me a promo code and I reply with its document and purchase links. /help lists the commands.")
}

func (a *App) handleHelp(reg *coretelegram.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		var b strings.Builder
		b.WriteString("Commands:\n")
		for _, cmd := range reg.ListCommands(true) {
			fmt.Fprintf(&b, "%s: %s\n", cmd.Text, cmd.Description)
		}

		if a.isAdmin(c) {
			all := reg.Commands()
			var names []string
			for name, meta := range all {
				if meta.AdminOnly && !meta.Hidden {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			b.WriteString("\nAdmin commands:\n")
			for _, name := range names {
				fmt.Fprintf(&b, "%s: %s\n", name, all[name].Description)
			}
		}
		return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"))
	}
}

func (a *App) handleGet(c tele.Context) error {
	arg := commandArg(c)
	if arg == "" {
		return tghelpers.SendText(c, "Usage: /get CODE")
	}
	return a.replyWithEntry(c, arg)
}

// handleLookup is the fallback for free text: every non-command message is
// treated as a promo code guess.
func (a *App) handleLookup(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}
	return a.replyWithEntry(c, text)
}

func (a *App) replyWithEntry(c tele.Context, raw string) error {
	entry, err := a.catalog.Lookup(tghelpers.BuildContext(c), raw)
	if errors.Is(err, catalog.ErrNotFound) {
		return tghelpers.SendText(c, "I don't know that promo code. /help lists the commands.")
	}
	if err != nil {
		return err
	}
	text, err := renderEntry(entry)
	if err != nil {
		return err
	}
	return tghelpers.SendMDV2(c, text)
}

// renderEntry formats an entry as MarkdownV2 with tappable links.
func renderEntry(e catalog.Entry) (string, error) {
	code, err := format.EscapeMarkdown(e.Code, format.MarkdownV2, "")
	if err != nil {
		return "", err
	}
	doc, err := format.EscapeMarkdown(e.DocURL, format.MarkdownV2, "text_link")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n[Document](%s)", code, doc)
	if e.AffiliateURL != "" {
		aff, err := format.EscapeMarkdown(e.AffiliateURL, format.MarkdownV2, "text_link")
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n[Buy here](%s)", aff)
	}
	return b.String(), nil
}

func (a *App) handleCancel(c tele.Context) error {
	if a.engine.Cancel(form.KeyFromContext(c)) {
		return tghelpers.SendText(c, "Cancelled.")
	}
	return tghelpers.SendText(c, "Nothing to cancel.")
}

func (a *App) handleVersion(c tele.Context) error {
	return tghelpers.SendMD(c, "`catalogbot "+buildinfo.Summary()+"`")
}
