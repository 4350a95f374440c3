package relaybot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promobot/core/buildinfo"
	"github.com/m3rciful/promobot/core/logger"
	coretelegram "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/commands"
	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/keyboard"
	"github.com/m3rciful/promobot/core/telegram/ui"
	"github.com/m3rciful/promobot/internal/ai"
	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/media"
)

const inlineResultLimit = 20

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "What this bot does",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp(reg),
		Description: "List available commands",
	})
	reg.RegisterCommand("/viral", commands.Command{
		Handler:     a.handleViral,
		Description: "Get a random pick from the pool",
		Aliases:     []string{"random"},
	})
	reg.RegisterCommand("/latest", commands.Command{
		Handler:     a.handleLatest,
		Description: "Show the newest additions",
	})
	reg.RegisterCommand("/ask", commands.Command{
		Handler:     a.handleAsk,
		Description: "Ask the assistant a question",
	})
	reg.RegisterCommand("/forget", commands.Command{
		Handler:     a.handleForget,
		Description: "Drop the chat history the assistant keeps",
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

	reg.RegisterCommand("/addmedia", commands.Command{
		Handler:     a.handleAddMedia,
		Description: "Add a link to the pool",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/delmedia", commands.Command{
		Handler:     a.handleDelMedia,
		Description: "Remove an item by its id",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/media", commands.Command{
		Handler:     a.handleMediaList,
		Description: "List newest items with their ids",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Pool counters",
		AdminOnly:   true,
	})
}

func senderID(c tele.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}

func chatID(c tele.Context) int64 {
	if ch := c.Chat(); ch != nil {
		return ch.ID
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
	text := "I relay viral media links. /viral sends a random pick, /latest the newest ones."
	if a.ai.Enabled() {
		text += " You can also just write to me and I will answer."
	}
	return tghelpers.SendText(c, text, &tele.SendOptions{
		ReplyMarkup: keyboard.ReplyButtons([]string{"/viral", "/latest"}),
	})
}

func (a *App) handleHelp(reg *coretelegram.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		all := reg.Commands()
		var public, admin []string
		for name, meta := range all {
			if meta.Hidden {
				continue
			}
			line := fmt.Sprintf("%s: %s", name, meta.Description)
			if meta.AdminOnly {
				admin = append(admin, line)
			} else {
				public = append(public, line)
			}
		}
		sort.Strings(public)
		sort.Strings(admin)

		lines := append([]string{"Commands:"}, public...)
		if a.isAdmin(c) {
			lines = append(lines, "", "Admin commands:")
			lines = append(lines, admin...)
		}
		return tghelpers.SendText(c, strings.Join(lines, "\n"))
	}
}

func (a *App) handleViral(c tele.Context) error {
	item, err := a.media.Random(tghelpers.BuildContext(c))
	if errors.Is(err, media.ErrEmpty) {
		return tghelpers.SendText(c, "The pool is empty. Come back later.")
	}
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, item.Title+"\n"+item.URL)
}

func (a *App) handleLatest(c tele.Context) error {
	limit := 0
	if arg := commandArg(c); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return tghelpers.SendText(c, "Usage: /latest [count]")
		}
		limit = n
	}

	items, err := a.media.Latest(tghelpers.BuildContext(c), limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return tghelpers.SendText(c, "The pool is empty. Come back later.")
	}

	var b strings.Builder
	b.WriteString("Newest picks:\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n%s\n", i+1, it.Title, it.URL)
	}
	return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"))
}

func (a *App) handleAsk(c tele.Context) error {
	question := commandArg(c)
	if question == "" {
		return tghelpers.SendText(c, "Usage: /ask QUESTION")
	}
	return a.replyWithAnswer(c, question)
}

// handleChat is the free text fallback: anything that is not a command or an
// active form becomes a question for the assistant.
func (a *App) handleChat(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}
	return a.replyWithAnswer(c, text)
}

func (a *App) replyWithAnswer(c tele.Context, question string) error {
	ctx := tghelpers.BuildContext(c)
	answer, err := a.ai.Reply(ctx, chatID(c), question)
	if errors.Is(err, ai.ErrDisabled) {
		return tghelpers.SendText(c, "I only relay media here. /viral sends a random pick.")
	}
	if err != nil {
		logger.Warn(ctx, component, "ai.reply_failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "I could not come up with an answer, try again later.")
	}
	return tghelpers.SendText(c, answer)
}

func (a *App) handleForget(c tele.Context) error {
	if a.ai.Reset(chatID(c)) {
		return tghelpers.SendText(c, "Forgotten.")
	}
	return tghelpers.SendText(c, "Nothing to forget.")
}

func (a *App) handleCancel(c tele.Context) error {
	if a.engine.Cancel(form.KeyFromContext(c)) {
		return tghelpers.SendText(c, "Cancelled.")
	}
	return tghelpers.SendText(c, "Nothing to cancel.")
}

func (a *App) handleVersion(c tele.Context) error {
	return tghelpers.SendMD(c, "`relaybot "+buildinfo.Summary()+"`")
}

func (a *App) handleDelMedia(c tele.Context) error {
	id := commandArg(c)
	if id == "" {
		return tghelpers.SendText(c, "Usage: /delmedia ID, see /media for the ids.")
	}

	ctx := tghelpers.BuildContext(c)
	removed, err := a.media.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return tghelpers.SendText(c, "No item with that id.")
	}
	a.audit.Record(ctx, senderID(c), audit.ActionMediaDelete, id, "")
	return tghelpers.SendText(c, "Removed.")
}

func (a *App) handleMediaList(c tele.Context) error {
	items, err := a.media.Latest(tghelpers.BuildContext(c), inlineResultLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return tghelpers.SendText(c, "The pool is empty.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Newest %d item(s):\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "%s %s\n%s\n", it.ID, it.Title, it.URL)
	}
	return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"))
}

func (a *App) handleStats(c tele.Context) error {
	total, err := a.media.Count(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pool items: %d\n", total)
	fmt.Fprintf(&b, "Cached admins: %d\n", a.gate.Size())
	fmt.Fprintf(&b, "Active forms: %d\n", a.engine.Len())
	fmt.Fprintf(&b, "Assistant: %s", onOff(a.ai.Enabled()))
	return tghelpers.SendText(c, b.String())
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// handleInlineQuery answers inline queries with the newest pool items,
// filtered by the typed text when present.
func (a *App) handleInlineQuery(c tele.Context) error {
	q := c.Query()
	if q == nil {
		return nil
	}

	items, err := a.media.Latest(tghelpers.BuildContext(c), inlineResultLimit)
	if err != nil {
		return err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	results := make(tele.Results, 0, len(items))
	for _, it := range items {
		if needle != "" && !strings.Contains(strings.ToLower(it.Title), needle) {
			continue
		}
		results = append(results, ui.NewSimpleArticleResult(it.ID, it.Title, it.URL, it.Title+"\n"+it.URL))
	}
	return c.Answer(&tele.QueryResponse{Results: results, CacheTime: 30})
}
