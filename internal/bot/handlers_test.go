package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/printbot/core/telegram"
	"github.com/m3rciful/printbot/internal/journal"
	"github.com/m3rciful/printbot/internal/order"
)

type fakeEvents struct {
	events []order.Event
	err    error
}

func (f *fakeEvents) Handle(_ context.Context, ev order.Event) error {
	f.events = append(f.events, ev)
	return f.err
}

type fakeSummarizer struct {
	rows []journal.Summary
	err  error
}

func (f fakeSummarizer) Summarize(context.Context, time.Time) ([]journal.Summary, error) {
	return f.rows, f.err
}

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "1:test", Offline: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func alice() *tele.User { return &tele.User{ID: 7, Username: "alice", FirstName: "Alice"} }

func TestCommandsBecomeEvents(t *testing.T) {
	ev := &fakeEvents{}
	h := NewHandlers(ev, nil, nil)
	c := newContext(t, tele.Update{ID: 1, Message: &tele.Message{Sender: alice(), Chat: &tele.Chat{ID: 70}, Text: "/start"}})

	require.NoError(t, h.Start(c))
	require.NoError(t, h.Done(c))
	require.NoError(t, h.Cancel(c))

	require.Len(t, ev.events, 3)
	assert.Equal(t, order.Event{Kind: order.EventStart, UserID: 7, ChatID: 70, Username: "alice"}, ev.events[0])
	assert.Equal(t, order.EventDone, ev.events[1].Kind)
	assert.Equal(t, order.EventCancel, ev.events[2].Kind)
}

func TestDocumentBecomesFileRef(t *testing.T) {
	ev := &fakeEvents{}
	h := NewHandlers(ev, nil, nil)
	doc := &tele.Document{File: tele.File{FileID: "AgAD", UniqueID: "u1", FileSize: 2048}, FileName: "thesis.pdf"}
	c := newContext(t, tele.Update{ID: 2, Message: &tele.Message{Sender: alice(), Chat: &tele.Chat{ID: 70}, Document: doc}})

	require.NoError(t, h.Document(c))
	require.Len(t, ev.events, 1)
	assert.Equal(t, order.EventDocument, ev.events[0].Kind)
	assert.Equal(t, order.FileRef{ID: "AgAD", UniqueID: "u1", Name: "thesis.pdf", Size: 2048}, ev.events[0].File)
}

func TestButtonBecomesEvent(t *testing.T) {
	ev := &fakeEvents{}
	h := NewHandlers(ev, nil, nil)
	cb := &tele.Callback{
		Sender:  alice(),
		Message: &tele.Message{Chat: &tele.Chat{ID: 70}},
		Data:    "\fprint_type|b&w",
	}
	c := newContext(t, tele.Update{ID: 3, Callback: cb})

	require.NoError(t, h.Button(c))
	require.Len(t, ev.events, 1)
	assert.Equal(t, order.Button{Key: order.KeyPrintType, Value: "b&w"}, ev.events[0].Button)
	assert.Equal(t, int64(70), ev.events[0].ChatID)
}

func TestDispatchSwallowsAnsweredRejections(t *testing.T) {
	c := newContext(t, tele.Update{ID: 4, Message: &tele.Message{Sender: alice(), Chat: &tele.Chat{ID: 70}}})
	for _, err := range []error{order.ErrUnexpectedEvent, order.ErrEmptyFileSet, order.ErrSessionNotFound} {
		h := NewHandlers(&fakeEvents{err: errors.Join(err, nil)}, nil, nil)
		assert.NoError(t, h.Done(c))
	}

	boom := errors.New("telegram down")
	h := NewHandlers(&fakeEvents{err: boom}, nil, nil)
	assert.ErrorIs(t, h.Done(c), boom)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", displayName(&tele.User{ID: 1, Username: "alice", FirstName: "Alice"}))
	assert.Equal(t, "Ada-Lovelace", displayName(&tele.User{ID: 1, FirstName: "Ada", LastName: "Lovelace"}))
	assert.Equal(t, "42", displayName(&tele.User{ID: 42}))
}

func TestOrdersReport(t *testing.T) {
	h := NewHandlers(&fakeEvents{}, func() int { return 3 }, nil)
	assert.Equal(t, "Orders in progress: 3", h.ordersReport(context.Background()))

	h = NewHandlers(&fakeEvents{}, func() int { return 1 }, fakeSummarizer{rows: []journal.Summary{
		{Outcome: "confirmed", Orders: 4, Pages: 60, Revenue: 140},
	}})
	assert.Equal(t, "Orders in progress: 1\nLast 24 hours:\nconfirmed: 4 orders, 60 pages, 140 units", h.ordersReport(context.Background()))

	h = NewHandlers(&fakeEvents{}, func() int { return 0 }, fakeSummarizer{err: errors.New("db down")})
	assert.Contains(t, h.ordersReport(context.Background()), "Journal unavailable.")
}

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	h := NewHandlers(&fakeEvents{}, nil, nil)
	require.NoError(t, h.Register(reg))

	assert.Len(t, reg.Commands(), 4)
	assert.Equal(t, []string{order.KeyConfirm, order.KeyPrintType, order.KeyQuantity, order.KeySides}, reg.ListCallbacks())
	for _, c := range reg.ListCommands(true) {
		assert.NotEqual(t, "/orders", c.Text)
	}
	require.Error(t, h.Register(reg))
}
