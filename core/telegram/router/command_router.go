package router

import (
	"github.com/m3rciful/promobot/core/logger"
	tg "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions

	// Forms, when set, holds commands back while the sender is mid-form.
	// FormExempt lists commands that bypass the hold; it defaults to /cancel.
	Forms      middleware.FormSession
	FormExempt []string
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := commandGuard(opts)

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for cmd, def := range cmds {
		h := middleware.LoggerMiddleware(middleware.RecoverMiddleware(def.Handler))
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
		}
		routes = append(routes, tg.Route{Endpoint: cmd, Handler: guard(h)})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// commandGuard returns the outermost command wrapper: the form hold when a
// form engine is wired, identity otherwise.
func commandGuard(opts CommandRouteOptions) tele.MiddlewareFunc {
	if opts.Forms == nil {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	exempt := opts.FormExempt
	if len(exempt) == 0 {
		exempt = []string{"/cancel"}
	}
	return middleware.FormGuard(opts.Forms, exempt...)
}
