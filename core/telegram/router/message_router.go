package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/finbot/core/telegram"
)

// TextOptions controls fallback behaviour for text and non-text updates.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// mediaEndpoints are the non-text updates answered by UnknownMedia.
var mediaEndpoints = []string{tele.OnDocument, tele.OnPhoto, tele.OnSticker, tele.OnVoice, tele.OnVideo}

// TextRoutes builds the text route and the media routes. A text message is
// matched against command aliases first (public commands only), then the
// registry text fallback, then UnknownText.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return newSummary(handlerName(name)).run(c, func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return newSummary("text").run(c, func() error { return fb(c) })
			}
		}
		return fallback(c, "unknown_text", opts.UnknownText)
	}
	media := func(c tele.Context) error {
		return fallback(c, "unexpected_media", opts.UnknownMedia)
	}

	routes := make([]tg.Route, 0, 1+len(mediaEndpoints))
	routes = append(routes, tg.Route{Endpoint: tele.OnText, Handler: wrap(text)})
	for _, ep := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrap(media)})
	}
	return routes
}

func fallback(c tele.Context, name string, h tele.HandlerFunc) error {
	if h == nil {
		newSummary(name).skipped().log(c, nil)
		return nil
	}
	return newSummary(name).run(c, func() error { return h(c) })
}
