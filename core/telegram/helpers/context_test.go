package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
)

type stubContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
}

func (s *stubContext) Update() tele.Update { return s.upd }
func (s *stubContext) Get(k string) any    { return s.store[k] }
func (s *stubContext) Set(k string, v any) { s.store[k] = v }

func (s *stubContext) Sender() *tele.User {
	if s.upd.Message != nil {
		return s.upd.Message.Sender
	}
	if s.upd.Callback != nil {
		return s.upd.Callback.Sender
	}
	return nil
}

func (s *stubContext) Chat() *tele.Chat {
	if s.upd.Message != nil {
		return s.upd.Message.Chat
	}
	return nil
}

func newStub(upd tele.Update) *stubContext {
	return &stubContext{upd: upd, store: map[string]any{}}
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "callback", UpdateKind(tele.Update{Callback: &tele.Callback{}}))
	assert.Equal(t, "message", UpdateKind(tele.Update{Message: &tele.Message{}}))
	assert.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestBuildContextCachesMeta(t *testing.T) {
	c := newStub(tele.Update{ID: 9, Message: &tele.Message{
		Sender: &tele.User{ID: 100},
		Chat:   &tele.Chat{ID: 200, Type: tele.ChatPrivate},
	}})

	ctx := BuildContext(c)
	assert.Equal(t, 9, logger.UpdateIDFrom(ctx))
	assert.EqualValues(t, 100, logger.UserIDFrom(ctx))
	assert.EqualValues(t, 200, logger.ChatIDFrom(ctx))
	assert.Equal(t, logger.BuildRID(9, 200, 100), c.Get(ridKey))
	assert.Equal(t, ctx, BuildContext(c))

	tagged := WithHandler(c, "text")
	assert.Equal(t, "text", logger.HandlerFrom(tagged))
	assert.Equal(t, tagged, BuildContext(c))
}

func TestBuildContextNil(t *testing.T) {
	require.NotNil(t, BuildContext(nil))
	assert.Equal(t, context.Background(), BuildContext(nil))
}

func TestSenderKey(t *testing.T) {
	assert.Equal(t, "", SenderKey(newStub(tele.Update{})))
	c := newStub(tele.Update{Callback: &tele.Callback{Sender: &tele.User{ID: 42}}})
	assert.Equal(t, "42", SenderKey(c))

	m := Meta(c)
	assert.Equal(t, "callback", m.Kind)
	assert.EqualValues(t, 42, m.UserID)
	assert.Zero(t, m.ChatID)
}
