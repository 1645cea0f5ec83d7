package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// PanicMessage is sent to the chat when a handler panics.
const PanicMessage = "⚠️ Something went wrong. Please try again."

// RecoverMiddleware catches panics in handlers, logs them with the stack, and
// tells the user that the request failed.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := tghelpers.BuildContext(c)
			logger.Error(ctx, "tg", "tg.panic",
				slog.String("status", "fail"),
				slog.String("handler", logger.HandlerFrom(ctx)),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			if c.Chat() != nil {
				_ = c.Send(PanicMessage)
			}
			err = nil
		}()
		return next(c)
	}
}
