package helpers

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/m3rciful/orderbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	if len(opts) > 0 && opts[0] != nil {
		return c.Send(text, opts[0])
	}
	return c.Send(text)
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: first(markup)})
}

// SendPlain sends text without parse mode and with optional reply markup.
func SendPlain(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: first(markup)})
}

// SendDocument uploads data as a file named name.
func SendDocument(c tele.Context, name, mime, caption string, data []byte) error {
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: name,
		MIME:     mime,
		Caption:  caption,
	}
	if err := c.Send(doc); err != nil {
		logger.Warn(BuildContext(c), "tg", "send.document",
			slog.String("status", "fail"),
			slog.String("file", name),
			slog.Int("bytes", len(data)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("send document %s: %w", name, err)
	}
	return nil
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}
