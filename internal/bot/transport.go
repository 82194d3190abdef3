package bot

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/m3rciful/printbot/core/telegram/keyboard"
	"github.com/m3rciful/printbot/core/telegram/middleware"
	"github.com/m3rciful/printbot/core/telegram/sender"
	"github.com/m3rciful/printbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

// API is the part of *tele.Bot the transport needs.
type API interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Download(file *tele.File, localFilename string) error
}

// Transport carries order traffic over Telegram. Every call goes through the
// sender's inline retry path so callers learn whether it was delivered.
type Transport struct {
	api    API
	sender *sender.Dispatcher
}

// NewTransport returns a Transport sending through api.
func NewTransport(api API, d *sender.Dispatcher) *Transport {
	return &Transport{api: api, sender: d}
}

// Text sends a plain message.
func (t *Transport) Text(ctx context.Context, chatID int64, text string) error {
	return t.send(ctx, "send.text", "sendMessage", false, func() error {
		_, err := t.api.Send(tele.ChatID(chatID), text)
		return err
	})
}

// Prompt sends text with an inline keyboard; every button carries p.Key as its unique.
func (t *Transport) Prompt(ctx context.Context, chatID int64, p order.Prompt) error {
	btns := make([]keyboard.InlineBtn, 0, len(p.Options))
	for _, o := range p.Options {
		btns = append(btns, keyboard.InlineBtn{Text: o.Label, Unique: p.Key, Data: o.Value})
	}
	markup := keyboard.InlineButtonsNPerRow(btns, p.PerRow)
	return t.send(ctx, "send.prompt", "sendMessage", true, func() error {
		_, err := t.api.Send(tele.ChatID(chatID), p.Text, markup)
		return err
	})
}

// SendDocument uploads the file at path under its base name.
func (t *Transport) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	return t.send(ctx, "send.document", "sendDocument", false, func() error {
		doc := &tele.Document{
			File:     tele.FromDisk(path),
			FileName: filepath.Base(path),
			Caption:  caption,
		}
		_, err := t.api.Send(tele.ChatID(chatID), doc)
		return err
	})
}

// Fetch downloads an uploaded document to dst.
func (t *Transport) Fetch(ctx context.Context, f order.FileRef, dst string) error {
	err := t.sender.Do(ctx, "download", "getFile", func() error {
		return t.api.Download(&tele.File{FileID: f.ID, UniqueID: f.UniqueID}, dst)
	})
	if err != nil {
		return fmt.Errorf("download %s: %s", f.Name, sender.SanitizeError(err))
	}
	return nil
}

func (t *Transport) send(ctx context.Context, action, endpoint string, kb bool, run func() error) error {
	if err := t.sender.Do(ctx, action, endpoint, run); err != nil {
		return fmt.Errorf("%s: %s", action, sender.SanitizeError(err))
	}
	middleware.CountSent(ctx, kb)
	return nil
}
