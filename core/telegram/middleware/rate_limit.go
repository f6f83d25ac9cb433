package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// idleLimiterTTL bounds how long an unused per-user limiter is kept.
const idleLimiterTTL = 10 * time.Minute

// RateLimitMiddleware allows one update per Interval for each user, with no burst.
// Dropped updates are logged and counted; OnLimited may tell the user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu        sync.Mutex
		limiters  = make(map[int64]*userLimiter)
		lastSweep time.Time
	)
	allow := func(userID int64, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(lastSweep) > idleLimiterTTL {
			for id, ul := range limiters {
				if now.Sub(ul.lastSeen) > idleLimiterTTL {
					delete(limiters, id)
				}
			}
			lastSweep = now
		}
		ul, ok := limiters[userID]
		if !ok {
			ul = &userLimiter{lim: rate.NewLimiter(rate.Every(opts.Interval), 1)}
			limiters[userID] = ul
		}
		ul.lastSeen = now
		return ul.lim.AllowN(now, 1)
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			kind := tghelpers.UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if allow(user.ID, time.Now()) {
				return next(c)
			}

			metrics.Updates.WithLabelValues("rate_limited").Inc()
			attrs := []any{
				slog.String("event", "tg.rate_limit"),
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
				slog.Int64("user_id", user.ID),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.TG.Warn("rate limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
