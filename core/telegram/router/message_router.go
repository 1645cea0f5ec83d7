package router

import (
	"time"

	tg "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for document updates.
type TextOptions struct {
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document updates. Text that names a
// registered command is sent to that command; the rest goes to the registry's
// text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly && isCommandText(c.Text()) {
			return handleWithSummary(c, "command."+normalizeHandlerName(key), start, func() error {
				return cmd.Handler(c)
			})
		}

		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "text", start, func() error {
				return fb(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}

func isCommandText(text string) bool {
	return len(text) > 1 && text[0] == '/'
}
