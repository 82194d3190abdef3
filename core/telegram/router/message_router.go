package router

import (
	"time"

	tg "github.com/m3rciful/printbot/core/telegram"
	"github.com/m3rciful/printbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions supplies handlers for non-command messages.
type MessageOptions struct {
	// Document receives every uploaded document.
	Document tele.HandlerFunc
	// UnknownText answers text that is neither a command nor an alias.
	UnknownText tele.HandlerFunc
}

// MessageRoutes builds the OnText and OnDocument routes. Plain text that
// names a registered command (with or without the slash) runs that command.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Document == nil {
			logHandlerSummary(c, "document", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "document", start, func() error {
			return opts.Document(c)
		})
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
