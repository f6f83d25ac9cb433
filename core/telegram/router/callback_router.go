package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/callbacks"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches inline button presses by callback key. Keys without
// a handler go to NotFound, then the registry fallback, then a bare answer.
// Handlers answer the callback query themselves.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.Parse(cb)
		s := newSummary("callback."+handlerName(key), slog.String("cb_key", key))

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			s.extras = append(s.extras, slog.String("reason", "not_found"))
			h = opts.NotFound
			if h == nil {
				h = reg.CallbackNotFound()
			}
			if h == nil {
				h = func(c tele.Context) error { return c.Respond() }
			}
		}
		return s.run(c, func() error { return h(c) })
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}
