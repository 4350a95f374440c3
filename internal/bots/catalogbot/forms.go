package catalogbot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/keyboard"
	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/catalog"
)

const (
	formAddEntry = "catalog_add"

	fieldCode         = "code"
	fieldDocURL       = "doc_url"
	fieldAffiliateURL = "affiliate_url"
)

// forms feeds intercepted messages into the form engine and renders the
// outcome back to the chat. Completion handlers leave their summary here
// because the engine drops the session before Handle regains control.
type forms struct {
	app *App

	mu        sync.Mutex
	summaries map[form.Key]string
}

func newForms(app *App) *forms {
	return &forms{app: app, summaries: make(map[form.Key]string)}
}

func (f *forms) Active(key form.Key) bool {
	return f.app.engine.Active(key)
}

func (f *forms) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	key := form.KeyFromContext(c)

	res, err := f.app.engine.Submit(ctx, key, c.Text())
	if err != nil {
		var invalid *form.InvalidInputError
		var failed *form.CompletionError
		switch {
		case errors.Is(err, form.ErrNoSession):
			// The session expired between the routing check and the submit.
			return nil
		case errors.As(err, &invalid):
			return sendFormPrompt(c, fmt.Sprintf("%v. %s", invalid.Err, invalid.Prompt.Text))
		case errors.As(err, &failed):
			return tghelpers.SendText(c, "Could not save that, please try again later.")
		default:
			return err
		}
	}

	if !res.Done {
		return sendFormPrompt(c, res.Next.Text)
	}
	if summary := f.takeSummary(key); summary != "" {
		return tghelpers.SendText(c, summary)
	}
	return tghelpers.SendText(c, "Done.")
}

func (f *forms) noteSummary(key form.Key, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries[key] = text
}

func (f *forms) takeSummary(key form.Key) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	text := f.summaries[key]
	delete(f.summaries, key)
	return text
}

func sendFormPrompt(c tele.Context, text string) error {
	return tghelpers.SendText(c, text, &tele.SendOptions{
		ReplyMarkup: keyboard.SingleCancelMarkup(cbFormCancel),
	})
}

// handleAdd opens the three step entry form. The definition is built per
// invocation so the completion can capture the acting admin.
func (a *App) handleAdd(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	key := form.KeyFromContext(c)
	actor := senderID(c)

	def := form.Definition{
		Name: formAddEntry,
		Fields: []form.Field{
			{
				Name:     fieldCode,
				Prompt:   "Send the promo code (2-32 characters: A-Z, 0-9, '-' or '_').",
				Validate: catalog.NormalizeCode,
			},
			{
				Name:     fieldDocURL,
				Prompt:   "Send the document link (http or https).",
				Validate: catalog.ValidateURL,
			},
			{
				Name:     fieldAffiliateURL,
				Prompt:   "Send the affiliate link (http or https).",
				Validate: catalog.ValidateURL,
			},
		},
		OnComplete: func(ctx context.Context, values *form.Values) error {
			entry, created, err := a.catalog.Add(ctx, actor,
				values.MustGet(fieldCode),
				values.MustGet(fieldDocURL),
				values.MustGet(fieldAffiliateURL),
			)
			if err != nil {
				return err
			}
			a.audit.Record(ctx, actor, audit.ActionCatalogAdd, entry.Code, "doc="+entry.DocURL)
			if created {
				a.forms.noteSummary(key, fmt.Sprintf("Saved %s.", entry.Code))
			} else {
				a.forms.noteSummary(key, fmt.Sprintf("Updated %s.", entry.Code))
			}
			return nil
		},
	}

	prompt, err := a.engine.Start(ctx, key, def)
	if err != nil {
		return err
	}
	return sendFormPrompt(c, prompt.Text)
}
