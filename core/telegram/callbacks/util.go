package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the unique key and payload of a callback. Telebot encodes
// inline data as "\f<unique>|<payload>" and only splits it itself when a
// handler is bound to that exact unique, so both shapes are handled here.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the callback's unique key from the update, if any.
func Key(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}

// Payload returns the data after the unique key.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}
