package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/printbot/core/logger"
	tg "github.com/m3rciful/printbot/core/telegram"
	"github.com/m3rciful/printbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/printbot/core/telegram/helpers"
	"github.com/m3rciful/printbot/internal/journal"
	"github.com/m3rciful/printbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

const (
	msgUnknownText  = "Send me documents to print, or use /start, /done and /cancel."
	msgOperatorOnly = "This command is only available to the print shop."
	msgRateLimited  = "Too many messages, please slow down."
)

// EventHandler consumes order events.
type EventHandler interface {
	Handle(ctx context.Context, ev order.Event) error
}

// Summarizer reports journal totals.
type Summarizer interface {
	Summarize(ctx context.Context, since time.Time) ([]journal.Summary, error)
}

// Handlers turns Telegram updates into order events.
type Handlers struct {
	events  EventHandler
	active  func() int
	journal Summarizer
	now     func() time.Time
}

// NewHandlers wires handlers to the order machine. active reports in-progress
// orders for /orders; journal may be nil.
func NewHandlers(events EventHandler, active func() int, journal Summarizer) *Handlers {
	return &Handlers{events: events, active: active, journal: journal, now: time.Now}
}

// Register adds the order commands and button callbacks to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", tg.Command{Handler: h.Start, Description: "Start a new print order"})
	reg.RegisterCommand("/done", tg.Command{Handler: h.Done, Description: "Finish uploading and choose print options"})
	reg.RegisterCommand("/cancel", tg.Command{Handler: h.Cancel, Description: "Cancel the current order"})
	reg.RegisterCommand("/orders", tg.Command{Handler: h.Orders, Description: "Show order statistics", AdminOnly: true})

	for _, key := range []string{order.KeyPrintType, order.KeyQuantity, order.KeySides, order.KeyConfirm} {
		if err := reg.RegisterCallback(key, h.Button); err != nil {
			return fmt.Errorf("bot: register callback %s: %w", key, err)
		}
	}
	return nil
}

// Start begins a new order, discarding any previous one.
func (h *Handlers) Start(c tele.Context) error {
	return h.dispatch(c, eventFrom(c, order.EventStart))
}

// Done closes the upload phase.
func (h *Handlers) Done(c tele.Context) error {
	return h.dispatch(c, eventFrom(c, order.EventDone))
}

// Cancel abandons the current order.
func (h *Handlers) Cancel(c tele.Context) error {
	return h.dispatch(c, eventFrom(c, order.EventCancel))
}

// Document adds an uploaded document to the order.
func (h *Handlers) Document(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return nil
	}
	doc := msg.Document
	ev := eventFrom(c, order.EventDocument)
	ev.File = order.FileRef{
		ID:       doc.FileID,
		UniqueID: doc.UniqueID,
		Name:     documentName(doc),
		Size:     int64(doc.FileSize),
	}
	return h.dispatch(c, ev)
}

// Button applies an inline button press.
func (h *Handlers) Button(c tele.Context) error {
	key, payload := callbacks.Parse(c.Callback())
	ev := eventFrom(c, order.EventButton)
	ev.Button = order.Button{Key: key, Value: payload}
	return h.dispatch(c, ev)
}

// UnknownText answers free text that is not a command.
func (h *Handlers) UnknownText(c tele.Context) error {
	return tghelpers.SendText(c, msgUnknownText)
}

// OperatorOnly answers users who call an operator command.
func (h *Handlers) OperatorOnly(c tele.Context) error {
	return tghelpers.SendText(c, msgOperatorOnly)
}

// RateLimited tells the user their update was dropped.
func (h *Handlers) RateLimited(c tele.Context) error {
	return tghelpers.Notice(c, msgRateLimited)
}

// Orders reports active orders and, with a journal, the last day's totals.
func (h *Handlers) Orders(c tele.Context) error {
	return tghelpers.SendText(c, h.ordersReport(tghelpers.BuildContext(c)))
}

func (h *Handlers) ordersReport(ctx context.Context) string {
	var b strings.Builder
	active := 0
	if h.active != nil {
		active = h.active()
	}
	fmt.Fprintf(&b, "Orders in progress: %d", active)

	if h.journal == nil {
		return b.String()
	}
	rows, err := h.journal.Summarize(ctx, h.now().Add(-24*time.Hour))
	if err != nil {
		logger.Warn(ctx, "bot", "orders.summary", slog.String("status", "fail"), logger.Err(err))
		b.WriteString("\nJournal unavailable.")
		return b.String()
	}
	if len(rows) == 0 {
		b.WriteString("\nNo finished orders in the last 24 hours.")
		return b.String()
	}
	b.WriteString("\nLast 24 hours:")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%s: %d orders, %d pages, %d units", r.Outcome, r.Orders, r.Pages, r.Revenue)
	}
	return b.String()
}

// dispatch runs ev through the machine. Rejections the machine already
// answered are not handler failures.
func (h *Handlers) dispatch(c tele.Context, ev order.Event) error {
	ctx := tghelpers.BuildContext(c)
	err := h.events.Handle(ctx, ev)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, order.ErrUnexpectedEvent),
		errors.Is(err, order.ErrEmptyFileSet),
		errors.Is(err, order.ErrSessionNotFound):
		logger.Debug(ctx, "bot", "event.rejected", slog.String("trigger", ev.Kind.String()), logger.Err(err))
		return nil
	}
	return err
}

func eventFrom(c tele.Context, kind order.EventKind) order.Event {
	ev := order.Event{Kind: kind}
	if u := c.Sender(); u != nil {
		ev.UserID = u.ID
		ev.Username = displayName(u)
	}
	ev.ChatID = ev.UserID
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	return ev
}

// displayName is the handle used in file names: the @username, else the
// first and last name, else the numeric id.
func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return strings.ReplaceAll(name, " ", "-")
	}
	return strconv.FormatInt(u.ID, 10)
}

func documentName(doc *tele.Document) string {
	if doc.FileName != "" {
		return doc.FileName
	}
	return "document"
}
