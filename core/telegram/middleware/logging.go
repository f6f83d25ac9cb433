package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
)

// seenUpdates remembers update ids for a short window. Routes wrap the logger
// middleware on several branches, so one update may pass through it twice.
type seenUpdates struct {
	mu     sync.Mutex
	window time.Duration
	ids    map[int]time.Time
	swept  time.Time
}

func newSeenUpdates(window time.Duration) *seenUpdates {
	return &seenUpdates{window: window, ids: make(map[int]time.Time)}
}

// firstTime records id and reports whether it had not been seen within the window.
func (s *seenUpdates) firstTime(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.swept) > s.window {
		for k, at := range s.ids {
			if now.Sub(at) > s.window {
				delete(s.ids, k)
			}
		}
		s.swept = now
	}
	if at, ok := s.ids[id]; ok && now.Sub(at) <= s.window {
		return false
	}
	s.ids[id] = now
	return true
}

var received = newSeenUpdates(10 * time.Second)

// LoggerMiddleware sets up the request context for the update and, when debug
// sampling allows, logs one update.received line per update id.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		meta := tghelpers.Meta(c)
		ctx := tghelpers.NewContext(c, meta)
		c.Set("update_start", time.Now())

		if logger.ShouldSampleDebug() && received.firstTime(meta.UpdateID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receivedAttrs(c, meta)...)
		}
		return next(c)
	}
}

func receivedAttrs(c tele.Context, meta tghelpers.UpdateMeta) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("mode", meta.Kind),
	}
	if meta.ChatID != 0 {
		attrs = append(attrs, slog.String("chat_type", string(meta.ChatType)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.Parse(cb)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	} else if text := c.Text(); text != "" {
		attrs = append(attrs, slog.String("input", logger.SanitizeLimit(text, 256)))
	}
	return attrs
}
