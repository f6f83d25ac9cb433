package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/finbot/core/config"
	"github.com/m3rciful/finbot/core/telegram/middleware"
)

// DefaultMiddlewares returns the global chain in order: recover, the per-user
// rate limit when rate_limit.interval_ms is set, update logging and update metrics.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if cfg != nil {
		if opts, ok := rateLimitOptions(cfg.RateLimit); ok {
			opts.OnLimited = onLimited
			mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(opts)})
		}
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

func rateLimitOptions(rl coreconfig.RateLimitConfig) (middleware.RateLimitOptions, bool) {
	if rl.IntervalMS <= 0 {
		return middleware.RateLimitOptions{}, false
	}
	exclude := make(map[string]struct{}, len(rl.ExcludeUpdates))
	for _, kind := range rl.ExcludeUpdates {
		if kind = strings.ToLower(strings.TrimSpace(kind)); kind != "" {
			exclude[kind] = struct{}{}
		}
	}
	return middleware.RateLimitOptions{
		Interval: time.Duration(rl.IntervalMS) * time.Millisecond,
		Exclude:  exclude,
	}, true
}
