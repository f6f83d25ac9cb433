package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook", SecretToken: "s3cret"},
	})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "s3cret", wh.SecretToken)
	assert.Equal(t, "https://bot.example.com/hook", wh.Endpoint.PublicURL)
}

func TestBuildPollerLongpollDefaults(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll"})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, lp.Timeout)

	p = BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 25})
	assert.Equal(t, 25*time.Second, p.(*tele.LongPoller).Timeout)
}

func TestBuildPollerAllowedUpdates(t *testing.T) {
	lp := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	assert.Equal(t, []string{"message", "callback_query"}, lp.AllowedUpdates)
}

func TestBuildPollerPrivateOnly(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll", PrivateOnly: true})
	mp, ok := p.(*tele.MiddlewarePoller)
	require.True(t, ok)
	assert.IsType(t, &tele.LongPoller{}, mp.Poller)
}

func TestPrivateChatFilter(t *testing.T) {
	private := &tele.Update{Message: &tele.Message{Chat: &tele.Chat{Type: tele.ChatPrivate}}}
	group := &tele.Update{Message: &tele.Message{Chat: &tele.Chat{Type: tele.ChatGroup}}}
	groupPress := &tele.Update{Callback: &tele.Callback{Message: &tele.Message{Chat: &tele.Chat{Type: tele.ChatSuperGroup}}}}

	assert.True(t, privateChat(private))
	assert.False(t, privateChat(group))
	assert.False(t, privateChat(groupPress))
	assert.True(t, privateChat(&tele.Update{}))
}
