package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/printbot/core/bootstrap"
	coreconfig "github.com/m3rciful/printbot/core/config"
	tg "github.com/m3rciful/printbot/core/telegram"
	"github.com/m3rciful/printbot/core/telegram/sender"
	"github.com/m3rciful/printbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:abc", OperatorID: 42}}
	cfg.RateLimit.IntervalMS = 100
	require.NoError(t, coreconfig.Normalize(cfg))

	b, err := tele.NewBot(tele.Settings{Token: cfg.Telegram.Token, Offline: true})
	require.NoError(t, err)

	disp := sender.NewDispatcher(sender.Options{})
	t.Cleanup(disp.Close)

	a := &App{
		cfg:        cfg,
		infra:      &bootstrap.Result{},
		store:      session.NewStore(),
		bot:        b,
		dispatcher: disp,
		registry:   tg.NewRegistry(),
	}
	require.NoError(t, a.wire())
	return a
}

func TestTelegramRunOptionsRoutes(t *testing.T) {
	a := newTestApp(t)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		require.NotNil(t, r.Handler)
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/start", "/done", "/cancel", "/orders", tele.OnCallback, tele.OnText, tele.OnDocument} {
		assert.True(t, endpoints[want], "missing route %v", want)
	}

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "rate_limit", "metrics"}, names)
	assert.Same(t, a.bot, opts.Bot)
	assert.Same(t, a.dispatcher, opts.Dispatcher)
}

func TestCloseShutsStore(t *testing.T) {
	a := newTestApp(t)
	a.store.Create(1, 1, "alice")

	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, 0, a.store.Len())
}

func TestTelegramRunOptionsRequiresWiring(t *testing.T) {
	_, err := (&App{}).TelegramRunOptions()
	require.Error(t, err)
}
