package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the refill period of one token.
	Interval time.Duration
	// Burst is the bucket size; values below 1 mean 1.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// IdleTTL drops limiters of users that have been quiet this long.
	IdleTTL time.Duration
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterSet keeps one token bucket per user.
type limiterSet struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	ttl       time.Duration
	users     map[int64]*userLimiter
	lastSweep time.Time
}

func newLimiterSet(interval time.Duration, burst int, ttl time.Duration) *limiterSet {
	if burst < 1 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &limiterSet{
		every: rate.Every(interval),
		burst: burst,
		ttl:   ttl,
		users: make(map[int64]*userLimiter),
	}
}

// allow reports whether userID may proceed at now.
func (s *limiterSet) allow(userID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) > s.ttl {
		for id, u := range s.users {
			if now.Sub(u.lastSeen) > s.ttl {
				delete(s.users, id)
			}
		}
		s.lastSweep = now
	}
	u, ok := s.users[userID]
	if !ok {
		u = &userLimiter{lim: rate.NewLimiter(s.every, s.burst)}
		s.users[userID] = u
	}
	u.lastSeen = now
	return u.lim.AllowN(now, 1)
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware returns a middleware that applies a per-user token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiters := newLimiterSet(opts.Interval, opts.Burst, opts.IdleTTL)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if limiters.allow(user.ID, time.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "skip"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
