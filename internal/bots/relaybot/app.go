// Package relaybot shares a pool of viral media links in chat and answers
// free text through an Ark chat model when credentials are configured.
package relaybot

import (
	"context"

	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promobot/core/bootstrap"
	"github.com/m3rciful/promobot/core/logger"
	coretelegram "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/form"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/middleware"
	"github.com/m3rciful/promobot/core/telegram/router"
	"github.com/m3rciful/promobot/core/telegram/ui"
	"github.com/m3rciful/promobot/internal/admins"
	"github.com/m3rciful/promobot/internal/ai"
	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/config"
	"github.com/m3rciful/promobot/internal/media"
	"github.com/m3rciful/promobot/internal/ops"
	"github.com/m3rciful/promobot/internal/storage/postgres"
)

const component = "bot.relay"

// App wires the media pool and the chat model to the Telegram runtime.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	media  *media.Service
	ai     *ai.Service
	gate   *admins.Cache
	audit  *audit.Recorder
	engine *form.Engine
	forms  *forms

	mods bootstrap.Modules
}

// New bootstraps infrastructure and builds the relay bot.
func New(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	mediaStore := postgres.NewMediaStore(res.DB)
	adminStore := postgres.NewAdminStore(res.DB)
	auditStore := postgres.NewAuditStore(res.DB)

	chat, err := ai.NewService(context.Background(), cfg.AI)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		db:     res.DB,
		media:  media.NewService(mediaStore),
		ai:     chat,
		gate:   admins.NewCache(adminStore, cfg.Core.Telegram.AdminID, cfg.Admins.CacheTTL()),
		audit:  audit.NewRecorder(auditStore),
		engine: form.NewEngine(form.Options{Timeout: cfg.Forms.Timeout()}),
	}
	app.forms = newForms(app)

	// Both bots seed the same roster row; ON CONFLICT keeps this idempotent
	// so either binary can come up first.
	app.mods.Seeders = append(app.mods.Seeders, bootstrap.SeederFunc(func(ctx context.Context, _ bootstrap.Storage) error {
		rootID := cfg.Core.Telegram.AdminID
		if rootID <= 0 {
			return nil
		}
		added, err := adminStore.Add(ctx, rootID, rootID)
		if err != nil {
			return err
		}
		if added {
			logger.Info(ctx, component, "admin.seed", slog.Int64("admin_id", rootID))
		}
		return nil
	}))

	return app, nil
}

// TelegramRunOptions assembles registry, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)

	var fb ui.FallbackProvider = &fallbacks{app: a}
	reg.SetCallbackNotFound(fb.UnknownCallback())

	routes := router.TextRoutes(a.forms, reg, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		Admin: a.adminOptions(),
		Forms: a.forms,
	})...)
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, coretelegram.Route{
		Endpoint: tele.OnQuery,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(a.handleInlineQuery)),
	})

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart:     a.onStart,
	}, nil
}

func (a *App) adminOptions() middleware.AdminOptions {
	return middleware.AdminOptions{
		RootID:  a.cfg.Core.Telegram.AdminID,
		Checker: a.gate,
		OnReject: func(c tele.Context) error {
			return tghelpers.SendText(c, "This command is only available to admins.")
		},
	}
}

func (a *App) isAdmin(c tele.Context) bool {
	return middleware.Allowed(tghelpers.BuildContext(c), a.adminOptions(), senderID(c))
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if err := a.mods.Seed(ctx, a.db); err != nil {
		return err
	}

	if n, err := a.gate.Refresh(ctx); err != nil {
		logger.Warn(ctx, component, "admin.cache_warmup_failed",
			slog.String("err", err.Error()),
		)
	} else {
		logger.Info(ctx, component, "admin.cache_warm", slog.Int("count", n))
	}

	if a.ai.Enabled() {
		logger.Info(ctx, component, "ai.enabled", slog.String("model", a.cfg.AI.Model))
	} else {
		logger.Info(ctx, component, "ai.disabled")
	}

	go a.engine.Sweep(ctx, a.cfg.Forms.SweepInterval())

	opsSrv := ops.NewServer("relaybot", a.cfg.Ops.Listen, a.db, ops.Stats{
		ActiveForms: a.engine.Len,
		QueuedSends: rt.Dispatcher.QueueDepth,
		SendErrors:  rt.Dispatcher.ErrorCount,
	})
	go func() {
		if err := opsSrv.Run(ctx); err != nil {
			logger.Error(ctx, component, "ops.failed",
				slog.String("err", err.Error()),
			)
		}
	}()

	return nil
}
