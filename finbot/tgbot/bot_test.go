package tgbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/finbot/dialogue"
)

type sentMsg struct {
	text string
	opts *tele.SendOptions
}

type fakeContext struct {
	tele.Context
	sender    *tele.User
	text      string
	cb        *tele.Callback
	store     map[string]any
	sent      []sentMsg
	responded int
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, val interface{}) { f.store[key] = val }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 7} }
func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.sender == nil {
		return nil
	}
	return &tele.Chat{ID: f.sender.ID}
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	msg := sentMsg{text: what.(string)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			msg.opts = so
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeDialogue struct {
	userID   string
	text     string
	pb       dialogue.Postback
	resets   int
	resetErr error
	replies  []dialogue.Reply
}

func (d *fakeDialogue) HandleText(_ context.Context, userID, text string) []dialogue.Reply {
	d.userID, d.text = userID, text
	return d.replies
}

func (d *fakeDialogue) HandleSelection(_ context.Context, userID string, pb dialogue.Postback) []dialogue.Reply {
	d.userID, d.pb = userID, pb
	return d.replies
}

func (d *fakeDialogue) Reset(_ context.Context, userID string) error {
	d.userID = userID
	d.resets++
	return d.resetErr
}

func TestTextForwardsToDialogue(t *testing.T) {
	dlg := &fakeDialogue{replies: []dialogue.Reply{
		dialogue.PlainText("答對了！"),
		dialogue.QuestionPrompt("2. 什麼是ETF？", []dialogue.Choice{{Label: "A) x", Key: "quiz", Payload: "A"}}),
	}}
	b := New(dlg, Options{})
	c := newFakeContext(42)
	c.text = "D) Index"

	require.NoError(t, b.Text(c))
	assert.Equal(t, "42", dlg.userID)
	assert.Equal(t, "D) Index", dlg.text)
	require.Len(t, c.sent, 2)
	assert.Equal(t, "答對了！", c.sent[0].text)
	assert.Nil(t, c.sent[0].opts.ReplyMarkup)
	assert.Equal(t, "2. 什麼是ETF？", c.sent[1].text)
	require.NotNil(t, c.sent[1].opts.ReplyMarkup)
	assert.Len(t, c.sent[1].opts.ReplyMarkup.InlineKeyboard, 1)
}

func TestPostbackRespondsAndForwards(t *testing.T) {
	dlg := &fakeDialogue{replies: []dialogue.Reply{dialogue.PlainText("ok")}}
	b := New(dlg, Options{})
	c := newFakeContext(5)
	c.cb = &tele.Callback{Unique: "from_currency", Data: "USD美金"}

	require.NoError(t, b.Postback(c))
	assert.Equal(t, 1, c.responded)
	assert.Equal(t, dialogue.Postback{Key: "from_currency", Payload: "USD美金"}, dlg.pb)
	assert.Equal(t, "5", dlg.userID)
	require.Len(t, c.sent, 1)
}

func TestPostbackRawData(t *testing.T) {
	dlg := &fakeDialogue{}
	b := New(dlg, Options{})
	c := newFakeContext(5)
	c.cb = &tele.Callback{Data: "\fquiz|B"}

	require.NoError(t, b.Postback(c))
	assert.Equal(t, dialogue.Postback{Key: "quiz", Payload: "B"}, dlg.pb)
	assert.Empty(t, c.sent)
}

func TestStartResetsAndShowsMenu(t *testing.T) {
	dlg := &fakeDialogue{replies: []dialogue.Reply{dialogue.MenuPrompt("請選擇功能", []dialogue.Choice{{Label: "理財測驗"}})}}
	b := New(dlg, Options{})
	c := newFakeContext(9)

	require.NoError(t, b.Start(c))
	assert.Equal(t, 1, dlg.resets)
	assert.Equal(t, "", dlg.text)
	require.Len(t, c.sent, 1)
	require.NotNil(t, c.sent[0].opts.ReplyMarkup)
	assert.NotEmpty(t, c.sent[0].opts.ReplyMarkup.ReplyKeyboard)
}

func TestCancelStoreFailure(t *testing.T) {
	dlg := &fakeDialogue{resetErr: errors.New("down")}
	b := New(dlg, Options{})
	c := newFakeContext(9)

	require.NoError(t, b.Cancel(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, dialogue.MsgStoreUnavailable, c.sent[0].text)
}

func TestNoSenderIsIgnored(t *testing.T) {
	dlg := &fakeDialogue{}
	b := New(dlg, Options{})
	c := newFakeContext(0)
	c.sender = nil

	require.NoError(t, b.Text(c))
	assert.Empty(t, dlg.userID)
	assert.Empty(t, c.sent)
}

func TestStats(t *testing.T) {
	b := New(&fakeDialogue{}, Options{
		Conversations: func() int { return 3 },
		SendErrors:    func() uint64 { return 1 },
	})
	c := newFakeContext(1)
	require.NoError(t, b.Stats(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, "active conversations: 3\nsend errors: 1", c.sent[0].text)

	b = New(&fakeDialogue{}, Options{})
	c = newFakeContext(1)
	require.NoError(t, b.Stats(c))
	assert.Equal(t, "active conversations: n/a\nsend errors: 0", c.sent[0].text)
}

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	b := New(&fakeDialogue{}, Options{})
	require.NoError(t, b.Register(reg))

	assert.Equal(t, []string{"from_currency", "quiz", "say", "to_currency"}, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())

	visible := reg.ListCommands(true)
	var names []string
	for _, cmd := range visible {
		names = append(names, cmd.Text)
	}
	assert.Equal(t, []string{"/cancel", "/menu", "/start"}, names)

	_, cmd, ok := reg.LookupCommand("/stats")
	require.True(t, ok)
	assert.True(t, cmd.AdminOnly)

	assert.Error(t, b.Register(reg))
}

func TestMediaReply(t *testing.T) {
	c := newFakeContext(1)
	require.NoError(t, New(&fakeDialogue{}, Options{}).Media(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, msgTextOnly, c.sent[0].text)
}

func TestCancelHidesKeyboard(t *testing.T) {
	dlg := &fakeDialogue{}
	c := newFakeContext(9)

	require.NoError(t, New(dlg, Options{}).Cancel(c))
	assert.Equal(t, 1, dlg.resets)
	require.Len(t, c.sent, 1)
	assert.Equal(t, msgCancelled, c.sent[0].text)
	assert.True(t, c.sent[0].opts.ReplyMarkup.RemoveKeyboard)
}
