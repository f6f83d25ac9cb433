package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/finbot/core/config"
)

const defaultLongPollTimeout = 10 * time.Second

// allowedUpdates are the update kinds the bot handles; Telegram withholds the rest.
var allowedUpdates = []string{"message", "callback_query"}

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen      string
	Port        int
	URL         string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
	// PrivateOnly drops updates from group and channel chats.
	PrivateOnly bool
}

// BuildPoller returns a webhook poller for RunModeWebhook and a long poller otherwise.
func BuildPoller(opts PollerOptions) tele.Poller {
	var p tele.Poller
	if strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		p = &tele.Webhook{
			Listen:         net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			SecretToken:    opts.Webhook.SecretToken,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	} else {
		timeout := time.Duration(opts.LongPollTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultLongPollTimeout
		}
		p = &tele.LongPoller{Timeout: timeout, AllowedUpdates: allowedUpdates}
	}
	if opts.PrivateOnly {
		return tele.NewMiddlewarePoller(p, privateChat)
	}
	return p
}

// privateChat keeps updates from one-to-one chats.
func privateChat(u *tele.Update) bool {
	switch {
	case u.Message != nil:
		return u.Message.Chat == nil || u.Message.Chat.Type == tele.ChatPrivate
	case u.Callback != nil && u.Callback.Message != nil:
		return u.Callback.Message.Chat == nil || u.Callback.Message.Chat.Type == tele.ChatPrivate
	}
	return true
}
