package middleware

import (
	"context"
	"sync/atomic"

	tghelpers "github.com/m3rciful/printbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "counters"

type countersCtxKey struct{}

// Counters tracks what a handler sent while serving one update.
type Counters struct {
	messages atomic.Int32
	kb       atomic.Bool
}

// Inc records one outgoing message.
func (c *Counters) Inc(hasKB bool) {
	if c == nil {
		return
	}
	c.messages.Add(1)
	if hasKB {
		c.kb.Store(true)
	}
}

// CountSent records an outgoing message against the update carried by ctx.
// Messages sent outside of an update are ignored.
func CountSent(ctx context.Context, hasKB bool) {
	if ctx == nil {
		return
	}
	if c, ok := ctx.Value(countersCtxKey{}).(*Counters); ok {
		c.Inc(hasKB)
	}
}

// metricsContext wraps tele.Context to count replies sent through it.
type metricsContext struct {
	tele.Context
	counters *Counters
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.counters.Inc(hasKeyboard(opts))
	}
	return err
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.counters.Inc(hasKeyboard(opts))
	}
	return err
}

// MessageMetricsMiddleware attaches per-update counters to both the telebot
// context and the stored request context.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		cnt := &Counters{}
		c.Set(countersKey, cnt)
		ctx := context.WithValue(tghelpers.BuildContext(c), countersCtxKey{}, cnt)
		tghelpers.StoreContext(c, ctx)
		return next(metricsContext{Context: c, counters: cnt})
	}
}

// GetCounters reads message count and keyboard presence for the current update.
func GetCounters(c tele.Context) (int, bool) {
	cnt, ok := c.Get(countersKey).(*Counters)
	if !ok || cnt == nil {
		return 0, false
	}
	return int(cnt.messages.Load()), cnt.kb.Load()
}
