package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/printbot/core/telegram/sender"
	"github.com/m3rciful/printbot/internal/order"
)

type sentMsg struct {
	to   string
	what any
	opts []any
}

type fakeAPI struct {
	sent      []sentMsg
	downloads map[string]string
	sendErr   error
	dlErr     error
}

func (f *fakeAPI) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMsg{to: to.Recipient(), what: what, opts: opts})
	return &tele.Message{}, nil
}

func (f *fakeAPI) Download(file *tele.File, dst string) error {
	if f.dlErr != nil {
		return f.dlErr
	}
	if f.downloads == nil {
		f.downloads = map[string]string{}
	}
	f.downloads[file.FileID] = dst
	return nil
}

func newTransport(t *testing.T) (*Transport, *fakeAPI) {
	t.Helper()
	d := sender.NewDispatcher(sender.Options{Workers: 1, MaxRetries: 0})
	t.Cleanup(d.Close)
	api := &fakeAPI{}
	return NewTransport(api, d), api
}

func TestTransportText(t *testing.T) {
	tr, api := newTransport(t)
	require.NoError(t, tr.Text(context.Background(), 5, "File received."))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "5", api.sent[0].to)
	assert.Equal(t, "File received.", api.sent[0].what)
}

func TestTransportPromptBuildsKeyboard(t *testing.T) {
	tr, api := newTransport(t)
	p := order.Prompt{
		Text: "Select Quantity:",
		Key:  order.KeyQuantity,
		Options: []order.Option{
			{Label: "1 copy", Value: "1"}, {Label: "2 copies", Value: "2"}, {Label: "3 copies", Value: "3"},
		},
		PerRow: 2,
	}
	require.NoError(t, tr.Prompt(context.Background(), 5, p))
	require.Len(t, api.sent, 1)
	require.Len(t, api.sent[0].opts, 1)

	markup, ok := api.sent[0].opts[0].(*tele.ReplyMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	btn := markup.InlineKeyboard[1][0]
	assert.Equal(t, "3 copies", btn.Text)
	assert.Equal(t, order.KeyQuantity, btn.Unique)
}

func TestTransportSendDocument(t *testing.T) {
	tr, api := newTransport(t)
	path := "/tmp/printbot-1-x/0/alice_color_3copies_double.pdf"
	require.NoError(t, tr.SendDocument(context.Background(), 900, path, "Renamed File"))
	require.Len(t, api.sent, 1)

	doc, ok := api.sent[0].what.(*tele.Document)
	require.True(t, ok)
	assert.Equal(t, "alice_color_3copies_double.pdf", doc.FileName)
	assert.Equal(t, "Renamed File", doc.Caption)
	assert.Equal(t, path, doc.FileLocal)
	assert.Equal(t, "900", api.sent[0].to)
}

func TestTransportFetch(t *testing.T) {
	tr, api := newTransport(t)
	require.NoError(t, tr.Fetch(context.Background(), order.FileRef{ID: "file-1", Name: "a.pdf"}, "/tmp/a.pdf"))
	assert.Equal(t, "/tmp/a.pdf", api.downloads["file-1"])
}

func TestTransportRedactsTokenInErrors(t *testing.T) {
	tr, api := newTransport(t)
	api.sendErr = errors.New(`Post "https://api.telegram.org/bot123:secret/sendMessage": EOF`)
	err := tr.Text(context.Background(), 5, "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")

	api.dlErr = errors.New(`Get "https://api.telegram.org/file/bot123:secret/doc.pdf": EOF`)
	err = tr.Fetch(context.Background(), order.FileRef{ID: "f", Name: "doc.pdf"}, "/tmp/doc.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doc.pdf")
	assert.NotContains(t, err.Error(), "secret")
}
