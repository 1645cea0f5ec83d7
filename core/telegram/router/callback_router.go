package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the single route for button presses. The spinner is
// always cleared; routing by payload happens in the registry's callback handler.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		token := tghelpers.CallbackToken(c)
		key := "unknown"
		if p, err := callbacks.Decode(token); err == nil {
			key = p.Namespace
		}
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h := reg.CallbackHandler()
		if h == nil {
			logHandlerSummary(c, name, start, "skip", nil, append(extras, slog.String("reason", "no_handler"))...)
			return nil
		}
		return handleWithSummary(c, name, start, func() error { return h(c) }, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
