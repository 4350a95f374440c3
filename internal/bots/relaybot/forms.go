package relaybot

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/keyboard"
	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/media"
)

const (
	formAddMedia = "media_add"

	fieldURL   = "url"
	fieldTitle = "title"
)

// forms feeds intercepted messages into the form engine. The only form here
// ends with a fixed confirmation, so no completion state is carried around.
type forms struct {
	app *App
}

func newForms(app *App) *forms {
	return &forms{app: app}
}

func (f *forms) Active(key form.Key) bool {
	return f.app.engine.Active(key)
}

func (f *forms) Handle(c tele.Context) error {
	res, err := f.app.engine.Submit(tghelpers.BuildContext(c), form.KeyFromContext(c), c.Text())
	if err != nil {
		var invalid *form.InvalidInputError
		var failed *form.CompletionError
		switch {
		case errors.Is(err, form.ErrNoSession):
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
	return tghelpers.SendText(c, "Added to the pool. /viral may pick it now.")
}

func sendFormPrompt(c tele.Context, text string) error {
	return tghelpers.SendText(c, text, &tele.SendOptions{
		ReplyMarkup: keyboard.SingleCancelMarkup(cbFormCancel),
	})
}

func (a *App) handleAddMedia(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	actor := senderID(c)

	def := form.Definition{
		Name: formAddMedia,
		Fields: []form.Field{
			{
				Name:     fieldURL,
				Prompt:   "Send the media link (http or https).",
				Validate: media.ValidateURL,
			},
			{
				Name:     fieldTitle,
				Prompt:   fmt.Sprintf("Send a short title (at most %d characters).", media.MaxTitleLen),
				Validate: media.NormalizeTitle,
			},
		},
		OnComplete: func(ctx context.Context, values *form.Values) error {
			item, err := a.media.Add(ctx, actor, values.MustGet(fieldURL), values.MustGet(fieldTitle))
			if err != nil {
				return err
			}
			a.audit.Record(ctx, actor, audit.ActionMediaAdd, item.ID, item.Title)
			return nil
		},
	}

	prompt, err := a.engine.Start(ctx, form.KeyFromContext(c), def)
	if err != nil {
		return err
	}
	return sendFormPrompt(c, prompt.Text)
}
