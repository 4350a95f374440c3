// Package catalogbot is the promo catalog bot: it resolves promo codes typed
// in chat to their document and affiliate links, and gives admins commands
// and forms to maintain the catalog.
package catalogbot

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
	"github.com/m3rciful/promobot/internal/admins"
	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/catalog"
	"github.com/m3rciful/promobot/internal/config"
	"github.com/m3rciful/promobot/internal/ops"
	"github.com/m3rciful/promobot/internal/storage/postgres"
)

const component = "bot.catalog"

// App wires catalog services to the Telegram runtime.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	catalog *catalog.Service
	admins  *admins.Service
	gate    *admins.Cache
	audit   *audit.Recorder
	engine  *form.Engine
	forms   *forms

	mods bootstrap.Modules
}

// New bootstraps infrastructure and builds the catalog bot.
func New(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	catalogStore := postgres.NewCatalogStore(res.DB)
	adminStore := postgres.NewAdminStore(res.DB)
	auditStore := postgres.NewAuditStore(res.DB)

	gate := admins.NewCache(adminStore, cfg.Core.Telegram.AdminID, cfg.Admins.CacheTTL())
	engine := form.NewEngine(form.Options{Timeout: cfg.Forms.Timeout()})

	app := &App{
		cfg:     cfg,
		db:      res.DB,
		catalog: catalog.NewService(catalogStore, cfg.Catalog.PageSize),
		admins:  admins.NewService(adminStore, gate),
		gate:    gate,
		audit:   audit.NewRecorder(auditStore),
		engine:  engine,
	}
	app.forms = newForms(app)

	// The configured root admin lands on the stored roster so /admins shows
	// it and later roster edits by the root are attributed.
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
	reg.SetTextFallback(a.handleLookup)

	routes := router.TextRoutes(a.forms, reg, router.TextOptions{
		UnknownDocument: a.handleImportDocument,
	})
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		Admin: a.adminOptions(),
		Forms: a.forms,
	})...)
	routes = append(routes, router.CallbackRoute(reg))

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

// isAdmin gates updates that skip the command middleware, such as callbacks
// and document uploads.
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

	go a.engine.Sweep(ctx, a.cfg.Forms.SweepInterval())

	opsSrv := ops.NewServer("catalogbot", a.cfg.Ops.Listen, a.db, ops.Stats{
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
