// Package app wires the print-shop bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/printbot/core/bootstrap"
	corecmd "github.com/m3rciful/printbot/core/cmd"
	coreconfig "github.com/m3rciful/printbot/core/config"
	"github.com/m3rciful/printbot/core/logger"
	tg "github.com/m3rciful/printbot/core/telegram"
	"github.com/m3rciful/printbot/core/telegram/router"
	"github.com/m3rciful/printbot/core/telegram/sender"
	"github.com/m3rciful/printbot/internal/bot"
	"github.com/m3rciful/printbot/internal/journal"
	"github.com/m3rciful/printbot/internal/order"
	"github.com/m3rciful/printbot/internal/pages"
	"github.com/m3rciful/printbot/internal/pipeline"
	"github.com/m3rciful/printbot/internal/pricing"
	"github.com/m3rciful/printbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

// App holds the wired components for one process lifetime.
type App struct {
	cfg        *coreconfig.Config
	infra      *bootstrap.Result
	store      *session.Store
	bot        *tele.Bot
	dispatcher *sender.Dispatcher
	registry   *tg.Registry
	handlers   *bot.Handlers
}

// Bootstrap matches corecmd.Options.Bootstrap.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
	return New(ctx, cfg)
}

// New initializes logging and the optional journal database, then builds the
// order machine and its Telegram adapter.
func New(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	b, err := tg.NewBot(cfg)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	disp := sender.NewDispatcher(sender.Options{})
	a := &App{
		cfg:        cfg,
		infra:      infra,
		store:      session.NewStore(),
		bot:        b,
		dispatcher: disp,
		registry:   tg.NewRegistry(),
	}
	if err := a.wire(); err != nil {
		disp.Close()
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	transport := bot.NewTransport(a.bot, a.dispatcher)
	pricer := pricing.NewCalculator(transport, pages.PDFCounter{},
		pricing.Rates{Color: a.cfg.Print.ColorRate, Mono: a.cfg.Print.MonoRate},
		a.cfg.Storage.TempDir,
	)
	processor := pipeline.New(transport, pipeline.Options{
		OperatorID: a.cfg.Telegram.OperatorID,
		Caption:    a.cfg.Print.Caption,
		TempDir:    a.cfg.Storage.TempDir,
	})

	var (
		rec     order.Journal = journal.Nop{}
		summary bot.Summarizer
	)
	if a.infra.DB != nil {
		pg := journal.NewPostgres(a.infra.DB)
		rec, summary = pg, pg
	}

	machine, err := order.NewMachine(order.Deps{
		Store:       a.store,
		Notifier:    transport,
		Pricer:      pricer,
		Processor:   processor,
		Journal:     rec,
		MaxQuantity: a.cfg.Print.MaxQuantity,
	})
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	a.handlers = bot.NewHandlers(machine, machine.ActiveOrders, summary)
	return a.handlers.Register(a.registry)
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.handlers == nil {
		return tg.RunOptions{}, errors.New("app: not wired")
	}
	h := a.handlers

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.OperatorID,
		OnAdminReject: h.OperatorOnly,
	})
	routes = append(routes, router.CallbackRoute(a.registry))
	routes = append(routes, router.MessageRoutes(a.registry, router.MessageOptions{
		Document:    h.Document,
		UnknownText: h.UnknownText,
	})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(a.cfg, h.RateLimited),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.Close(ctx)
		},
	}, nil
}

// Close drops in-progress sessions and releases the database.
func (a *App) Close(ctx context.Context) error {
	a.store.Close()
	if err := a.infra.Close(); err != nil {
		logger.Warn(ctx, "app", "db.close", logger.Err(err))
		return err
	}
	return nil
}
