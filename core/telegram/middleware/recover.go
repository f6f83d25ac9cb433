package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
)

// RecoverMiddleware converts a handler panic into an error returned to telebot's OnError hook.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			kind := tghelpers.UpdateKind(c.Update())
			metrics.Panics.WithLabelValues(kind).Inc()
			logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
				slog.String("status", "fail"),
				slog.String("mode", kind),
				slog.String("err", logger.SanitizeLimit(fmt.Sprint(r), 256)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}()
		return next(c)
	}
}
