package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// recentUpdates keeps a short-lived set of processed update IDs to avoid double logging.
type recentUpdates struct {
	mu      sync.Mutex
	seen    map[int]time.Time
	keepFor time.Duration
}

var recent = &recentUpdates{seen: make(map[int]time.Time), keepFor: 10 * time.Second}

func (r *recentUpdates) alreadyLogged(updateID int, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ts := range r.seen {
		if now.Sub(ts) > r.keepFor {
			delete(r.seen, id)
		}
	}
	if _, ok := r.seen[updateID]; ok {
		return true
	}
	r.seen[updateID] = now
	return false
}

// LoggerMiddleware stores the update context (rid, ids) on c and logs one
// sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		upd := c.Update()

		if logger.ShouldSampleDebug() && !recent.alreadyLogged(upd.ID, time.Now()) {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", updateKind(upd)),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user := c.Sender(); user != nil {
				if user.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
				}
				if user.LanguageCode != "" {
					attrs = append(attrs, slog.String("lang", user.LanguageCode))
				}
			}
			switch {
			case upd.Callback != nil:
				token := tghelpers.CallbackToken(c)
				if p, err := callbacks.Decode(token); err == nil {
					attrs = append(attrs, slog.String("cb_key", p.Namespace))
				}
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(token, 128)))
			case upd.Message != nil:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
			}
			logger.Debug(ctx, "tg", "update.received", attrs...)
		}

		return next(c)
	}
}
