package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/printbot/core/telegram"
	"github.com/m3rciful/printbot/core/telegram/callbacks"
	"github.com/m3rciful/printbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the single OnCallback route that dispatches presses
// to handlers registered by key. Every press is acknowledged first so the
// client stops its spinner even when the handler rejects it.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		cbHandler, ok := reg.GetCallback(key)
		if !ok {
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				return reg.CallbackNotFound()(c)
			}, extras...)
		}

		_ = c.Respond()
		return handleWithSummary(c, name, start, func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
