package middleware

import (
	"log/slog"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only the configured admin reach next. Without an
// admin configured every caller is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if opts.AdminID == 0 || sender == nil || sender.ID != opts.AdminID {
				logger.Info(tghelpers.BuildContext(c), "tg", "access.denied",
					slog.String("status", "skip"),
					slog.String("reason", "not_admin"),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
