package router

import (
	"log/slog"
	"sort"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	tg "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes builds one route per registered slash command, sorted by name.
// Admin-only commands are gated by AdminID.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})
	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		def := cmds[name]
		label := handlerName(name)
		h := func(c tele.Context) error {
			return newSummary(label).run(c, func() error { return def.Handler(c) })
		}
		if def.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: wrap(h)})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "commands.routed"),
		slog.Int("commands", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// wrap applies the per-route recover and logging middleware.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}
