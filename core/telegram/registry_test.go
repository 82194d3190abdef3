package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommand(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", Command{Handler: noop, Description: "Start a new order"})
	r.RegisterCommand("/orders", Command{Handler: noop, Description: "Active orders", AdminOnly: true})
	r.RegisterCommand("done", Command{Handler: noop, Description: "no slash"})
	r.RegisterCommand("/cancel", Command{Handler: noop})
	r.RegisterCommand("/done", Command{Handler: noop, Description: "Finish uploading", Aliases: []string{"finish"}})

	assert.Len(t, r.Commands(), 3)
	assert.Equal(t, []tele.Command{
		{Text: "/done", Description: "Finish uploading"},
		{Text: "/start", Description: "Start a new order"},
	}, r.ListCommands(true))
	assert.Len(t, r.ListCommands(false), 3)

	key, _, ok := r.LookupCommand("done")
	require.True(t, ok)
	assert.Equal(t, "/done", key)

	key, _, ok = r.LookupCommand("finish")
	require.True(t, ok)
	assert.Equal(t, "/done", key)

	_, _, ok = r.LookupCommand("hello")
	assert.False(t, ok)
}

func TestRegisterCallback(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCallback("quantity", noop))
	require.Error(t, r.RegisterCallback("quantity", noop))
	require.Error(t, r.RegisterCallback("", noop))
	require.Error(t, r.RegisterCallback("sides", nil))

	_, ok := r.GetCallback("quantity")
	assert.True(t, ok)
	assert.Equal(t, []string{"quantity"}, r.ListCallbacks())
	assert.NotNil(t, r.CallbackNotFound())
}

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{LongPollTimeoutSeconds: 0}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10.0, lp.Timeout.Seconds())

	wh, ok := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://example.org/hook", wh.Endpoint.PublicURL)
}
